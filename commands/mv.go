package commands

import (
	"github.com/josephlewis42/sandsh/core/vos"
)

// Mv implements the UNIX mv command.
func Mv(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "mv SOURCE... DEST",
		Short: "Rename SOURCE to DEST, or move SOURCE(s) to DIRECTORY.",
	}
	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		if len(args) < 2 {
			diag(virtOS, "missing file operand")
			return 1
		}
		dest := args[len(args)-1]
		sources := args[:len(args)-1]
		exit := 0
		for _, src := range sources {
			if err := virtOS.Rename(src, dest); err != nil {
				fsErr(virtOS, src, err)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Mv

func init() {
	addCmd("mv", Mv)
}
