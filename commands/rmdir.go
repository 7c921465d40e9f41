package commands

import (
	"github.com/josephlewis42/sandsh/core/vos"
)

// Rmdir implements the UNIX rmdir command.
func Rmdir(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "rmdir DIRECTORY...",
		Short: "Remove the DIRECTORY(ies), if they are empty.",
	}
	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			diag(virtOS, "missing operand")
			return 1
		}
		exit := 0
		for _, path := range args {
			entries, err := virtOS.ReadDir(path)
			if err != nil {
				fsErr(virtOS, path, err)
				exit = 1
				continue
			}
			if len(entries) > 0 {
				diag(virtOS, "%s: Directory not empty", path)
				exit = 1
				continue
			}
			if err := virtOS.Remove(path, true, false); err != nil {
				fsErr(virtOS, path, err)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Rmdir

func init() {
	addCmd("rmdir", Rmdir)
}
