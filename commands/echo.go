package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-7][0-7]?[0-7]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\b`, "\b", // backspace
		`\a`, "\a", // alert
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 8, 16)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 16, 16)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return s
}

// Echo implements a limited echo command.
func Echo(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]
	escaped := false
	noNewline := false
	// echo's flag handling predates getopt conventions: anything
	// after the first non-flag argument is text.
parseFlags:
	for len(args) > 0 {
		switch args[0] {
		case "-e":
			escaped = true
		case "-E":
			escaped = false
		case "-n":
			noNewline = true
		case "-ne", "-en":
			escaped = true
			noNewline = true
		default:
			break parseFlags
		}
		args = args[1:]
	}

	w := virtOS.Stdout()
	for i, arg := range args {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		if escaped {
			arg = unescape(arg)
		}
		fmt.Fprint(w, arg)
	}
	if !noNewline {
		fmt.Fprintln(w)
	}
	return 0
}

var _ vos.ProcessFunc = Echo

func init() {
	addCmd("echo", Echo)
}
