package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Printf implements the shell printf utility. The format is reused
// until all arguments are consumed, as in bash.
func Printf(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]
	if len(args) == 0 {
		diag(virtOS, "usage: printf FORMAT [ARGUMENT]...")
		return 2
	}
	format := args[0]
	args = args[1:]

	out := virtOS.Stdout()
	for {
		rest, used := printfOnce(out, format, args)
		args = rest
		if len(args) == 0 || !used {
			break
		}
	}
	return 0
}

// printfOnce renders the format once, consuming arguments for each
// conversion. It reports whether any argument was consumed so callers
// can stop repeating.
func printfOnce(w io.Writer, format string, args []string) (rest []string, used bool) {
	next := func() string {
		if len(args) == 0 {
			return ""
		}
		used = true
		arg := args[0]
		args = args[1:]
		return arg
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '\\' && i+1 < len(format):
			i++
			switch format[i] {
			case 'n':
				io.WriteString(w, "\n")
			case 't':
				io.WriteString(w, "\t")
			case 'r':
				io.WriteString(w, "\r")
			case '\\':
				io.WriteString(w, "\\")
			case '0':
				io.WriteString(w, "\x00")
			default:
				io.WriteString(w, string([]byte{'\\', format[i]}))
			}
		case c == '%' && i+1 < len(format):
			// Scan the conversion: flags, width, precision, verb.
			j := i + 1
			for j < len(format) && strings.IndexByte("-+ 0#.0123456789", format[j]) >= 0 {
				j++
			}
			if j >= len(format) {
				io.WriteString(w, format[i:])
				return args, used
			}
			verb := format[j]
			spec := format[i : j+1]
			switch verb {
			case '%':
				io.WriteString(w, "%")
			case 's', 'b':
				fmt.Fprintf(w, strings.Replace(spec, "b", "s", 1), next())
			case 'd', 'i', 'o', 'x', 'X', 'u', 'c':
				n, _ := strconv.ParseInt(next(), 0, 64)
				goVerb := verb
				switch verb {
				case 'i', 'u':
					goVerb = 'd'
				case 'c':
					goVerb = 'c'
				}
				fmt.Fprintf(w, spec[:len(spec)-1]+string(goVerb), n)
			case 'f', 'e', 'g':
				f, _ := strconv.ParseFloat(next(), 64)
				fmt.Fprintf(w, spec, f)
			default:
				io.WriteString(w, spec)
			}
			i = j
		default:
			io.WriteString(w, string(c))
		}
	}
	return args, used
}

var _ vos.ProcessFunc = Printf

func init() {
	addCmd("printf", Printf)
}
