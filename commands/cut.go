package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// parseRanges parses a cut field list like "1,3-5".
func parseRanges(spec string, max int) ([]bool, error) {
	selected := make([]bool, max+1)
	for _, part := range strings.Split(spec, ",") {
		bounds := strings.SplitN(part, "-", 2)
		switch {
		case len(bounds) == 1:
			n, err := strconv.Atoi(bounds[0])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid field value %q", part)
			}
			if n <= max {
				selected[n] = true
			}
		default:
			lo, hi := 1, max
			if bounds[0] != "" {
				n, err := strconv.Atoi(bounds[0])
				if err != nil {
					return nil, fmt.Errorf("invalid range %q", part)
				}
				lo = n
			}
			if bounds[1] != "" {
				n, err := strconv.Atoi(bounds[1])
				if err != nil {
					return nil, fmt.Errorf("invalid range %q", part)
				}
				hi = n
			}
			for n := lo; n <= hi && n <= max; n++ {
				if n >= 1 {
					selected[n] = true
				}
			}
		}
	}
	return selected, nil
}

// Cut implements the UNIX cut command for fields and characters.
func Cut(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cut OPTION... [FILE]...",
		Short: "Remove sections from each line of files.",
	}
	opt := cmd.Flags()
	delim := opt.String('d', "\t", "use DELIM instead of TAB")
	fields := opt.String('f', "", "select only these fields")
	chars := opt.String('c', "", "select only these characters")

	return cmd.Run(virtOS, func() int {
		if *fields == "" && *chars == "" {
			diag(virtOS, "you must specify a list of fields or characters")
			return 1
		}
		return forEachInput(virtOS, opt.Args(), func(name string, data []byte) {
			for _, line := range splitLines(data) {
				if *chars != "" {
					selected, err := parseRanges(*chars, len(line))
					if err != nil {
						diag(virtOS, "%v", err)
						return
					}
					var sb strings.Builder
					for i := 1; i <= len(line); i++ {
						if selected[i] {
							sb.WriteByte(line[i-1])
						}
					}
					fmt.Fprintln(virtOS.Stdout(), sb.String())
					continue
				}

				cols := strings.Split(line, *delim)
				if len(cols) == 1 {
					// Lines without the delimiter pass through whole.
					fmt.Fprintln(virtOS.Stdout(), line)
					continue
				}
				selected, err := parseRanges(*fields, len(cols))
				if err != nil {
					diag(virtOS, "%v", err)
					return
				}
				var keep []string
				for i := 1; i <= len(cols); i++ {
					if selected[i] {
						keep = append(keep, cols[i-1])
					}
				}
				fmt.Fprintln(virtOS.Stdout(), strings.Join(keep, *delim))
			}
		})
	})
}

var _ vos.ProcessFunc = Cut

func init() {
	addCmd("cut", Cut)
}
