package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Tail implements the UNIX tail command.
func Tail(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "tail [OPTION]... [FILE]...",
		Short: "Output the last part of files.",
	}
	opt := cmd.Flags()
	lines := opt.Int('n', 10, "output the last NUM lines")

	return cmd.Run(virtOS, func() int {
		return forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			all := splitLines(data)
			start := len(all) - *lines
			if start < 0 {
				start = 0
			}
			for _, line := range all[start:] {
				fmt.Fprintln(virtOS.Stdout(), line)
			}
		})
	})
}

var _ vos.ProcessFunc = Tail

func init() {
	addCmd("tail", Tail)
}
