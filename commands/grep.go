package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Grep implements a useful subset of grep: fixed-string matching by
// default, extended regexps with -E.
func Grep(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "grep [OPTION]... PATTERN [FILE]...",
		Short: "Search for PATTERN in each FILE or standard input.",
	}
	opt := cmd.Flags()
	ignoreCase := opt.Bool('i', "ignore case distinctions")
	invert := opt.Bool('v', "select non-matching lines")
	countOnly := opt.Bool('c', "print only a count of matching lines")
	lineNumbers := opt.Bool('n', "print line number with output lines")
	quiet := opt.Bool('q', "suppress all normal output")
	extended := opt.Bool('E', "PATTERN is an extended regular expression")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			diag(virtOS, "missing pattern")
			return 2
		}
		pattern := args[0]
		files := args[1:]

		var re *regexp.Regexp
		if *extended {
			expr := pattern
			if *ignoreCase {
				expr = "(?i)" + expr
			}
			compiled, err := regexp.Compile(expr)
			if err != nil {
				diag(virtOS, "invalid regex: %s", pattern)
				return 2
			}
			re = compiled
		}

		matchLine := func(line string) bool {
			if re != nil {
				return re.MatchString(line)
			}
			if *ignoreCase {
				return strings.Contains(strings.ToLower(line), strings.ToLower(pattern))
			}
			return strings.Contains(line, pattern)
		}

		showName := len(files) > 1
		anyMatch := false
		exit := forEachInput(virtOS, files, func(name string, data []byte) {
			count := 0
			for i, line := range splitLines(data) {
				matched := matchLine(line)
				if matched == *invert {
					continue
				}
				anyMatch = true
				count++
				if *quiet || *countOnly {
					continue
				}
				prefix := ""
				if showName {
					prefix = name + ":"
				}
				if *lineNumbers {
					prefix += fmt.Sprintf("%d:", i+1)
				}
				fmt.Fprintf(virtOS.Stdout(), "%s%s\n", prefix, line)
			}
			if *countOnly && !*quiet {
				if showName {
					fmt.Fprintf(virtOS.Stdout(), "%s:%d\n", name, count)
				} else {
					fmt.Fprintf(virtOS.Stdout(), "%d\n", count)
				}
			}
		})
		switch {
		case exit != 0:
			return 2
		case anyMatch:
			return 0
		default:
			return 1
		}
	})
}

var _ vos.ProcessFunc = Grep

func init() {
	addCmd("grep", Grep)
	addCmd("egrep", Grep)
}
