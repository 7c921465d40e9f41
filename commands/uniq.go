package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Uniq implements the UNIX uniq command over already-sorted input.
func Uniq(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "uniq [OPTION]... [INPUT]",
		Short: "Filter adjacent matching lines.",
	}
	opt := cmd.Flags()
	count := opt.Bool('c', "prefix lines by the number of occurrences")
	dupsOnly := opt.Bool('d', "only print duplicate lines")

	return cmd.Run(virtOS, func() int {
		return forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			lines := splitLines(data)
			emit := func(line string, n int) {
				if *dupsOnly && n < 2 {
					return
				}
				if *count {
					fmt.Fprintf(virtOS.Stdout(), "%7d %s\n", n, line)
				} else {
					fmt.Fprintln(virtOS.Stdout(), line)
				}
			}
			for i := 0; i < len(lines); {
				j := i
				for j < len(lines) && lines[j] == lines[i] {
					j++
				}
				emit(lines[i], j-i)
				i = j
			}
		})
	})
}

var _ vos.ProcessFunc = Uniq

func init() {
	addCmd("uniq", Uniq)
}
