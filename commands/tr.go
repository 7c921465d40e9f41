package commands

import (
	"io"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

// expandTrSet expands a-z style ranges into their member characters.
func expandTrSet(set string) string {
	var sb strings.Builder
	for i := 0; i < len(set); i++ {
		if i+2 < len(set) && set[i+1] == '-' && set[i+2] >= set[i] {
			for c := set[i]; c <= set[i+2]; c++ {
				sb.WriteByte(c)
			}
			i += 2
			continue
		}
		sb.WriteByte(set[i])
	}
	return sb.String()
}

// Tr implements the UNIX tr command for translation and deletion.
func Tr(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "tr [OPTION]... SET1 [SET2]",
		Short: "Translate or delete characters from standard input.",
	}
	opt := cmd.Flags()
	del := opt.Bool('d', "delete characters in SET1")
	squeeze := opt.Bool('s', "squeeze repeated output characters")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 || (!*del && len(args) < 2) {
			diag(virtOS, "missing operand")
			return 1
		}
		from := expandTrSet(args[0])
		to := ""
		if len(args) > 1 {
			to = expandTrSet(args[1])
		}

		data, err := io.ReadAll(virtOS.Stdin())
		if err != nil {
			diag(virtOS, "stdin: %v", err)
			return 1
		}

		var out strings.Builder
		lastOut := byte(0)
		wrote := false
		for _, c := range data {
			idx := strings.IndexByte(from, c)
			switch {
			case idx >= 0 && *del:
				continue
			case idx >= 0 && len(to) > 0:
				if idx >= len(to) {
					idx = len(to) - 1
				}
				c = to[idx]
			}
			if *squeeze && wrote && c == lastOut && strings.IndexByte(from+to, c) >= 0 {
				continue
			}
			out.WriteByte(c)
			lastOut = c
			wrote = true
		}
		io.WriteString(virtOS.Stdout(), out.String())
		return 0
	})
}

var _ vos.ProcessFunc = Tr

func init() {
	addCmd("tr", Tr)
}
