package commands

import (
	"fmt"
	"path"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Basename implements the UNIX basename command.
func Basename(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "basename NAME [SUFFIX]",
		Short: "Strip directory and suffix from a file name.",
	}
	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			diag(virtOS, "missing operand")
			return 1
		}
		base := path.Base(args[0])
		if len(args) > 1 && base != args[1] {
			base = strings.TrimSuffix(base, args[1])
		}
		fmt.Fprintln(virtOS.Stdout(), base)
		return 0
	})
}

// Dirname implements the UNIX dirname command.
func Dirname(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "dirname NAME...",
		Short: "Strip the last component from a file name.",
	}
	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			diag(virtOS, "missing operand")
			return 1
		}
		for _, arg := range args {
			fmt.Fprintln(virtOS.Stdout(), path.Dir(arg))
		}
		return 0
	})
}

var _ vos.ProcessFunc = Basename
var _ vos.ProcessFunc = Dirname

func init() {
	addCmd("basename", Basename)
	addCmd("dirname", Dirname)
}
