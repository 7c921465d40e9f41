package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Pwd implements the UNIX pwd command.
func Pwd(virtOS vos.VOS) int {
	fmt.Fprintln(virtOS.Stdout(), virtOS.Getwd())
	return 0
}

var _ vos.ProcessFunc = Pwd

func init() {
	addCmd("pwd", Pwd)
}
