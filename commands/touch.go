package commands

import (
	"github.com/josephlewis42/sandsh/core/vos"
)

// Touch implements the UNIX touch command.
func Touch(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "touch FILE...",
		Short: "Update file timestamps, creating files that do not exist.",
	}
	opt := cmd.Flags()
	noCreate := opt.Bool('c', "do not create any files")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			diag(virtOS, "missing file operand")
			return 1
		}
		exit := 0
		now := virtOS.Now()
		for _, path := range args {
			exists, err := virtOS.Exists(path)
			if err != nil {
				fsErr(virtOS, path, err)
				exit = 1
				continue
			}
			if !exists {
				if *noCreate {
					continue
				}
				if err := virtOS.WriteFile(path, nil, 0644); err != nil {
					fsErr(virtOS, path, err)
					exit = 1
				}
				continue
			}
			if err := virtOS.Chtimes(path, now, now); err != nil {
				fsErr(virtOS, path, err)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Touch

func init() {
	addCmd("touch", Touch)
}
