package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// sedScript is one parsed sed expression.
type sedScript struct {
	addr    *regexp.Regexp // /pat/ address, nil for all lines
	lineNum int            // numeric address, 0 for all lines
	op      byte           // 's', 'd' or 'p'
	re      *regexp.Regexp // for s///
	repl    string
	global  bool
}

// parseSedExpr understands "s/pat/repl/flags", "/pat/d", "Nd" and
// "Np".
func parseSedExpr(expr string) (*sedScript, error) {
	script := &sedScript{}

	if strings.HasPrefix(expr, "s") && len(expr) > 2 {
		sep := expr[1]
		parts := splitUnescaped(expr[2:], sep)
		if len(parts) < 2 {
			return nil, fmt.Errorf("unterminated `s' command")
		}
		flags := ""
		if len(parts) > 2 {
			flags = parts[2]
		}
		pattern := parts[0]
		if strings.Contains(flags, "i") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %s", parts[0])
		}
		script.op = 's'
		script.re = re
		script.repl = sedReplacement(parts[1])
		script.global = strings.Contains(flags, "g")
		return script, nil
	}

	if strings.HasPrefix(expr, "/") {
		end := strings.LastIndexByte(expr, '/')
		if end <= 0 || end == len(expr)-1 {
			return nil, fmt.Errorf("unknown command: %q", expr)
		}
		re, err := regexp.Compile(expr[1:end])
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %s", expr[1:end])
		}
		script.addr = re
		script.op = expr[end+1]
		return script, nil
	}

	if len(expr) >= 2 {
		if n, err := strconv.Atoi(expr[:len(expr)-1]); err == nil {
			script.lineNum = n
			script.op = expr[len(expr)-1]
			return script, nil
		}
	}
	return nil, fmt.Errorf("unknown command: %q", expr)
}

func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == sep:
			cur.WriteByte(sep)
			i++
		case s[i] == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// sedReplacement converts sed's \1 and & references to Go's $1/$0.
func sedReplacement(repl string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		switch {
		case repl[i] == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9':
			sb.WriteString("${")
			sb.WriteByte(repl[i+1])
			sb.WriteString("}")
			i++
		case repl[i] == '\\' && i+1 < len(repl):
			sb.WriteByte(repl[i+1])
			i++
		case repl[i] == '&':
			sb.WriteString("${0}")
		case repl[i] == '$':
			sb.WriteString("$$")
		default:
			sb.WriteByte(repl[i])
		}
	}
	return sb.String()
}

func (s *sedScript) matches(line string, lineNo int) bool {
	switch {
	case s.lineNum > 0:
		return lineNo == s.lineNum
	case s.addr != nil:
		return s.addr.MatchString(line)
	default:
		return true
	}
}

// Sed implements the workhorse subset of sed: substitution, deletion
// and printing with regex or line addresses.
func Sed(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "sed [OPTION]... SCRIPT [FILE]...",
		Short: "Stream editor for filtering and transforming text.",
	}
	opt := cmd.Flags()
	quiet := opt.Bool('n', "suppress automatic printing of pattern space")
	exprs := opt.List('e', "add SCRIPT to the commands to be executed")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		scriptTexts := *exprs
		if len(scriptTexts) == 0 {
			if len(args) == 0 {
				diag(virtOS, "missing script")
				return 1
			}
			scriptTexts = args[:1]
			args = args[1:]
		}

		var scripts []*sedScript
		for _, text := range scriptTexts {
			script, err := parseSedExpr(text)
			if err != nil {
				diag(virtOS, "%v", err)
				return 1
			}
			scripts = append(scripts, script)
		}

		return forEachInput(virtOS, args, func(name string, data []byte) {
			for i, line := range splitLines(data) {
				deleted := false
				printed := false
				for _, script := range scripts {
					if !script.matches(line, i+1) {
						continue
					}
					switch script.op {
					case 's':
						if script.global {
							line = script.re.ReplaceAllString(line, script.repl)
						} else {
							done := false
							line = script.re.ReplaceAllStringFunc(line, func(m string) string {
								if done {
									return m
								}
								done = true
								return script.re.ReplaceAllString(m, script.repl)
							})
						}
					case 'd':
						deleted = true
					case 'p':
						printed = true
					}
				}
				if deleted {
					continue
				}
				if !*quiet || printed {
					fmt.Fprintln(virtOS.Stdout(), line)
				}
				if !*quiet && printed {
					fmt.Fprintln(virtOS.Stdout(), line)
				}
			}
		})
	})
}

var _ vos.ProcessFunc = Sed

func init() {
	addCmd("sed", Sed)
}
