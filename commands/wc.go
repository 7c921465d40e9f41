package commands

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Wc implements the UNIX wc command.
func Wc(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "wc [OPTION]... [FILE]...",
		Short: "Print newline, word, and byte counts for each FILE.",
	}
	opt := cmd.Flags()
	lines := opt.Bool('l', "print the newline counts")
	words := opt.Bool('w', "print the word counts")
	chars := opt.Bool('c', "print the byte counts")

	return cmd.Run(virtOS, func() int {
		if !*lines && !*words && !*chars {
			*lines, *words, *chars = true, true, true
		}

		var totalL, totalW, totalC int
		count := 0
		print := func(name string, l, w, c int) {
			var cols []string
			if *lines {
				cols = append(cols, fmt.Sprintf("%d", l))
			}
			if *words {
				cols = append(cols, fmt.Sprintf("%d", w))
			}
			if *chars {
				cols = append(cols, fmt.Sprintf("%d", c))
			}
			if name != "-" {
				cols = append(cols, name)
			}
			fmt.Fprintln(virtOS.Stdout(), strings.Join(cols, " "))
		}

		exit := forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			l := bytes.Count(data, []byte{'\n'})
			w := len(bytes.Fields(data))
			c := len(data)
			totalL, totalW, totalC = totalL+l, totalW+w, totalC+c
			count++
			print(name, l, w, c)
		})
		if count > 1 {
			print("total", totalL, totalW, totalC)
		}
		return exit
	})
}

var _ vos.ProcessFunc = Wc

func init() {
	addCmd("wc", Wc)
}
