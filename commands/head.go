package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Head implements the UNIX head command.
func Head(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "head [OPTION]... [FILE]...",
		Short: "Output the first part of files.",
	}
	opt := cmd.Flags()
	lines := opt.Int('n', 10, "print the first NUM lines")
	bytesN := opt.Int('c', 0, "print the first NUM bytes")

	return cmd.Run(virtOS, func() int {
		return forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			if *bytesN > 0 {
				n := *bytesN
				if n > len(data) {
					n = len(data)
				}
				virtOS.Stdout().Write(data[:n])
				return
			}
			for i, line := range splitLines(data) {
				if i >= *lines {
					break
				}
				fmt.Fprintln(virtOS.Stdout(), line)
			}
		})
	})
}

var _ vos.ProcessFunc = Head

func init() {
	addCmd("head", Head)
}
