package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Cat implements the UNIX cat command.
func Cat(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cat [OPTION]... [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}
	opt := cmd.Flags()
	number := opt.Bool('n', "number all output lines")

	return cmd.Run(virtOS, func() int {
		line := 1
		return forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			if !*number {
				virtOS.Stdout().Write(data)
				return
			}
			for _, text := range splitLines(data) {
				fmt.Fprintf(virtOS.Stdout(), "%6d\t%s\n", line, text)
				line++
			}
		})
	})
}

var _ vos.ProcessFunc = Cat

func init() {
	addCmd("cat", Cat)
}
