package commands

import (
	"io"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Tee implements the UNIX tee command.
func Tee(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "tee [OPTION]... [FILE]...",
		Short: "Copy standard input to each FILE, and to standard output.",
	}
	opt := cmd.Flags()
	appendTo := opt.Bool('a', "append to the given FILEs, do not overwrite")

	return cmd.Run(virtOS, func() int {
		data, err := io.ReadAll(virtOS.Stdin())
		if err != nil {
			diag(virtOS, "stdin: %v", err)
			return 1
		}
		virtOS.Stdout().Write(data)

		exit := 0
		for _, path := range opt.Args() {
			var werr error
			if *appendTo {
				werr = virtOS.AppendFile(path, data)
			} else {
				werr = virtOS.WriteFile(path, data, 0644)
			}
			if werr != nil {
				fsErr(virtOS, path, werr)
				exit = 1
			}
		}
		return exit
	})
}

var _ vos.ProcessFunc = Tee

func init() {
	addCmd("tee", Tee)
}
