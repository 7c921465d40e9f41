package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Env prints the exported environment.
func Env(virtOS vos.VOS) int {
	for _, kv := range virtOS.Environ() {
		fmt.Fprintln(virtOS.Stdout(), kv)
	}
	return 0
}

var _ vos.ProcessFunc = Env

func init() {
	addCmd("env", Env)
	addCmd("printenv", Env)
}
