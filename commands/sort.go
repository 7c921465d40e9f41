package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Sort implements the UNIX sort command.
func Sort(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "sort [OPTION]... [FILE]...",
		Short: "Sort lines of text files.",
	}
	opt := cmd.Flags()
	reverse := opt.Bool('r', "reverse the result of comparisons")
	numeric := opt.Bool('n', "compare according to string numerical value")
	unique := opt.Bool('u', "output only the first of equal lines")

	return cmd.Run(virtOS, func() int {
		var all []string
		exit := forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			all = append(all, splitLines(data)...)
		})

		less := func(a, b string) bool { return a < b }
		if *numeric {
			less = func(a, b string) bool {
				na, _ := strconv.ParseFloat(a, 64)
				nb, _ := strconv.ParseFloat(b, 64)
				if na != nb {
					return na < nb
				}
				return a < b
			}
		}
		sort.SliceStable(all, func(i, j int) bool {
			if *reverse {
				return less(all[j], all[i])
			}
			return less(all[i], all[j])
		})

		prev := ""
		for i, line := range all {
			if *unique && i > 0 && line == prev {
				continue
			}
			prev = line
			fmt.Fprintln(virtOS.Stdout(), line)
		}
		return exit
	})
}

var _ vos.ProcessFunc = Sort

func init() {
	addCmd("sort", Sort)
}
