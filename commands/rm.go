package commands

import (
	"github.com/josephlewis42/sandsh/core/vos"
)

// Rm implements the UNIX rm command.
func Rm(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "rm [OPTION]... FILE...",
		Short: "Remove files or directories.",
	}
	opt := cmd.Flags()
	recursive := opt.Bool('r', "remove directories and their contents recursively")
	recursiveUpper := opt.Bool('R', "same as -r")
	force := opt.Bool('f', "ignore nonexistent files, never prompt")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			if *force {
				return 0
			}
			diag(virtOS, "missing operand")
			return 1
		}
		exit := 0
		for _, path := range args {
			err := virtOS.Remove(path, *recursive || *recursiveUpper, *force)
			if err != nil {
				fsErr(virtOS, path, err)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Rm

func init() {
	addCmd("rm", Rm)
}
