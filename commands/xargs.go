package commands

import (
	"io"
	"strings"

	"github.com/anmitsu/go-shlex"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Xargs builds command lines from standard input and re-enters the
// shell to run them.
func Xargs(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "xargs [OPTION]... [COMMAND [ARG]...]",
		Short: "Build and execute command lines from standard input.",
	}
	opt := cmd.Flags()
	perLine := opt.Int('n', 0, "use at most MAX arguments per command line")
	replace := opt.StringLong("replace", 'I', "", "replace occurrences of TOKEN in the arguments")

	return cmd.Run(virtOS, func() int {
		command := opt.Args()
		if len(command) == 0 {
			command = []string{"echo"}
		}

		input, err := io.ReadAll(virtOS.Stdin())
		if err != nil {
			diag(virtOS, "stdin: %v", err)
			return 1
		}
		words, err := shlex.Split(string(input), true)
		if err != nil {
			diag(virtOS, "unmatched quote")
			return 1
		}
		if len(words) == 0 && *replace == "" {
			words = nil
		}

		run := func(argv []string) int {
			var quoted []string
			for _, arg := range argv {
				quoted = append(quoted, shellQuote(arg))
			}
			result, err := virtOS.Exec(strings.Join(quoted, " "))
			if err != nil {
				diag(virtOS, "%v", err)
				return 1
			}
			io.WriteString(virtOS.Stdout(), result.Stdout)
			io.WriteString(virtOS.Stderr(), result.Stderr)
			return result.ExitCode
		}

		exit := 0
		switch {
		case *replace != "":
			for _, word := range words {
				argv := make([]string, len(command))
				for i, arg := range command {
					argv[i] = strings.ReplaceAll(arg, *replace, word)
				}
				if code := run(argv); code != 0 {
					exit = 123
				}
			}
		case *perLine > 0:
			for start := 0; start < len(words); start += *perLine {
				end := start + *perLine
				if end > len(words) {
					end = len(words)
				}
				if code := run(append(append([]string(nil), command...), words[start:end]...)); code != 0 {
					exit = 123
				}
			}
		default:
			if code := run(append(append([]string(nil), command...), words...)); code != 0 {
				exit = 123
			}
		}
		return exit
	})
}

// shellQuote renders one argument so the shell reads it verbatim.
func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`|&;()<>*?[]{}~#") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

var _ vos.ProcessFunc = Xargs

func init() {
	addCmd("xargs", Xargs)
}
