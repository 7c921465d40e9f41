package commands

import (
	"github.com/josephlewis42/sandsh/core/vos"
)

// Cp implements the UNIX cp command.
func Cp(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cp [OPTION]... SOURCE... DEST",
		Short: "Copy SOURCE to DEST.",
	}
	opt := cmd.Flags()
	recursive := opt.Bool('r', "copy directories recursively")
	recursiveUpper := opt.Bool('R', "same as -r")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) < 2 {
			diag(virtOS, "missing file operand")
			return 1
		}
		dest := args[len(args)-1]
		sources := args[:len(args)-1]
		exit := 0
		for _, src := range sources {
			err := virtOS.Copy(src, dest, *recursive || *recursiveUpper)
			if err != nil {
				fsErr(virtOS, src, err)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Cp

func init() {
	addCmd("cp", Cp)
}
