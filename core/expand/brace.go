package expand

import (
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/syntax"
)

// Brace expansions are bounded so a hostile {1..9999999999} cannot
// exhaust memory.
const maxBraceItems = 10000

// SplitBraces performs brace expansion on a word, returning the
// resulting words in order. Words without expandable braces are
// returned unchanged. Only unquoted literal text participates.
func SplitBraces(word *syntax.Word) []*syntax.Word {
	for i, part := range word.Parts {
		lit, ok := part.(*syntax.Lit)
		if !ok {
			continue
		}
		variants := braceExpandText(lit.Value)
		if len(variants) <= 1 {
			continue
		}
		var out []*syntax.Word
		for _, variant := range variants {
			parts := make([]syntax.WordPart, 0, len(word.Parts))
			parts = append(parts, word.Parts[:i]...)
			if variant != "" {
				parts = append(parts, &syntax.Lit{Value: variant})
			}
			parts = append(parts, word.Parts[i+1:]...)
			out = append(out, SplitBraces(&syntax.Word{Parts: parts})...)
		}
		return out
	}
	return []*syntax.Word{word}
}

// braceExpandText expands brace groups in plain text, leftmost first.
func braceExpandText(s string) []string {
	for open := 0; open < len(s); open++ {
		if s[open] != '{' {
			continue
		}
		alts, close := braceGroup(s, open)
		if alts == nil {
			continue
		}
		prefix, suffix := s[:open], s[close+1:]
		var out []string
		for _, alt := range alts {
			for _, rest := range braceExpandText(alt + suffix) {
				if len(out) >= maxBraceItems {
					return out
				}
				out = append(out, prefix+rest)
			}
		}
		return out
	}
	return []string{s}
}

// braceGroup parses one {...} group at open, returning its
// alternatives and the index of the closing brace, or nil when the
// group is not expandable.
func braceGroup(s string, open int) ([]string, int) {
	depth := 1
	var commas []int
	close := -1
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				close = i
			}
		case ',':
			if depth == 1 {
				commas = append(commas, i)
			}
		}
		if close >= 0 {
			break
		}
	}
	if close < 0 {
		return nil, -1
	}
	inner := s[open+1 : close]

	if len(commas) == 0 {
		if seq := braceSeq(inner); seq != nil {
			return seq, close
		}
		return nil, -1
	}

	var alts []string
	start := open + 1
	for _, comma := range commas {
		alts = append(alts, s[start:comma])
		start = comma + 1
	}
	alts = append(alts, s[start:close])
	return alts, close
}

// braceSeq expands {a..b} and {a..b..step} ranges, both numeric and
// single-letter.
func braceSeq(inner string) []string {
	parts := strings.Split(inner, "..")
	if len(parts) != 2 && len(parts) != 3 {
		return nil
	}
	step := int64(0)
	if len(parts) == 3 {
		n, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil
		}
		step = n
	}

	if from, err1 := strconv.ParseInt(parts[0], 10, 64); err1 == nil {
		to, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err2 != nil {
			return nil
		}
		return numSeq(from, to, step, func(n int64) string {
			return strconv.FormatInt(n, 10)
		})
	}

	if len(parts[0]) == 1 && len(parts[1]) == 1 &&
		isAlphaByte(parts[0][0]) && isAlphaByte(parts[1][0]) {
		return numSeq(int64(parts[0][0]), int64(parts[1][0]), step, func(n int64) string {
			return string(rune(n))
		})
	}
	return nil
}

func isAlphaByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func numSeq(from, to, step int64, format func(int64) string) []string {
	if step == 0 {
		step = 1
	}
	if step < 0 {
		step = -step
	}
	var out []string
	if from <= to {
		for n := from; n <= to && len(out) < maxBraceItems; n += step {
			out = append(out, format(n))
		}
	} else {
		for n := from; n >= to && len(out) < maxBraceItems; n -= step {
			out = append(out, format(n))
		}
	}
	return out
}
