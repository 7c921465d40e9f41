package commands

import (
	"github.com/josephlewis42/sandsh/core/vos"
)

// Mkdir implements the UNIX mkdir command.
func Mkdir(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "mkdir [OPTION]... DIRECTORY...",
		Short: "Create the DIRECTORY(ies), if they do not already exist.",
	}
	opt := cmd.Flags()
	parents := opt.Bool('p', "make parent directories as needed")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			diag(virtOS, "missing operand")
			return 1
		}
		exit := 0
		for _, path := range args {
			if err := virtOS.Mkdir(path, *parents, 0755); err != nil {
				fsErr(virtOS, path, err)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Mkdir

func init() {
	addCmd("mkdir", Mkdir)
}
