package expand

import (
	"sort"
	"strings"
)

// Match reports whether name matches the glob pattern. The pattern
// understands '*', '?', bracket sets with POSIX classes, and
// backslash escapes. Matching is byte oriented.
func Match(pattern, name string) bool {
	return matchHere(pattern, name)
}

func matchHere(p, s string) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			p = p[1:]
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchHere(p, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		case '[':
			end := findSetEnd(p, 0)
			if end < 0 {
				// Unterminated set matches a literal bracket.
				if len(s) == 0 || s[0] != '[' {
					return false
				}
				p, s = p[1:], s[1:]
				continue
			}
			if len(s) == 0 || !matchSet(p[:end+1], s[0]) {
				return false
			}
			p, s = p[end+1:], s[1:]
		case '\\':
			if len(p) == 1 {
				return len(s) == 1 && s[0] == '\\'
			}
			if len(s) == 0 || s[0] != p[1] {
				return false
			}
			p, s = p[2:], s[1:]
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}

// findSetEnd locates the ']' closing the bracket set starting at
// p[start], or -1.
func findSetEnd(p string, start int) int {
	i := start + 1
	if i < len(p) && (p[i] == '!' || p[i] == '^') {
		i++
	}
	if i < len(p) && p[i] == ']' {
		// A leading ']' is literal.
		i++
	}
	for i < len(p) {
		switch {
		case p[i] == '[' && i+1 < len(p) && p[i+1] == ':':
			end := strings.Index(p[i:], ":]")
			if end < 0 {
				return -1
			}
			i += end + 2
		case p[i] == ']':
			return i
		default:
			i++
		}
	}
	return -1
}

var posixClasses = map[string]func(byte) bool{
	"alpha": func(c byte) bool {
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	},
	"digit": func(c byte) bool { return c >= '0' && c <= '9' },
	"alnum": func(c byte) bool {
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	},
	"upper": func(c byte) bool { return c >= 'A' && c <= 'Z' },
	"lower": func(c byte) bool { return c >= 'a' && c <= 'z' },
	"space": func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
	},
	"blank": func(c byte) bool { return c == ' ' || c == '\t' },
	"punct": func(c byte) bool {
		return c > ' ' && c < 0x7f && !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
	},
	"xdigit": func(c byte) bool {
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	},
}

// matchSet matches one byte against a bracket expression including its
// brackets.
func matchSet(set string, c byte) bool {
	inner := set[1 : len(set)-1]
	negate := false
	if len(inner) > 0 && (inner[0] == '!' || inner[0] == '^') {
		negate = true
		inner = inner[1:]
	}
	matched := false
	for i := 0; i < len(inner); {
		if inner[i] == '[' && i+1 < len(inner) && inner[i+1] == ':' {
			end := strings.Index(inner[i:], ":]")
			if end >= 0 {
				class := inner[i+2 : i+end]
				if fn, ok := posixClasses[class]; ok && fn(c) {
					matched = true
				}
				i += end + 2
				continue
			}
		}
		if i+2 < len(inner) && inner[i+1] == '-' && inner[i+2] != ']' {
			if c >= inner[i] && c <= inner[i+2] {
				matched = true
			}
			i += 3
			continue
		}
		if inner[i] == c {
			matched = true
		}
		i++
	}
	if negate {
		return !matched
	}
	return matched
}

// escapeGlob backslash-escapes glob metacharacters so quoted text
// matches literally.
func escapeGlob(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func hasGlobMeta(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// setToRegexp converts a glob bracket set (brackets included) to its
// regexp spelling.
func setToRegexp(set string) string {
	inner := set[1 : len(set)-1]
	if len(inner) > 0 && inner[0] == '!' {
		inner = "^" + inner[1:]
	}
	return "[" + inner + "]"
}

// globFields runs pathname expansion over built fields: fields with
// unquoted metacharacters are matched against the filesystem, the
// rest are taken literally after quote removal.
func globFields(cfg *Config, fields [][]span) ([]string, error) {
	var out []string
	for _, field := range fields {
		var pattern, literal strings.Builder
		globby := false
		for _, sp := range field {
			literal.WriteString(sp.text)
			if sp.quoted {
				pattern.WriteString(escapeGlob(sp.text))
			} else {
				pattern.WriteString(sp.text)
				if hasGlobMeta(sp.text) {
					globby = true
				}
			}
		}
		if !globby || cfg.ReadDir == nil {
			out = append(out, literal.String())
			continue
		}
		matches := globWalk(cfg, pattern.String())
		switch {
		case len(matches) > 0:
			out = append(out, matches...)
		case cfg.FailGlob:
			return nil, errf(ErrGlob, "no match: %s", literal.String())
		case cfg.NullGlob:
			// Expands to nothing.
		default:
			out = append(out, literal.String())
		}
	}
	return out, nil
}

// globWalk expands a glob pattern against the filesystem, one path
// segment at a time.
func globWalk(cfg *Config, pattern string) []string {
	absolute := strings.HasPrefix(pattern, "/")
	pattern = strings.Trim(pattern, "/")
	segs := strings.Split(pattern, "/")

	startDir := cfg.Cwd
	prefix := ""
	if absolute {
		startDir = "/"
		prefix = "/"
	}

	var results []string
	var walk func(dir, out string, segs []string)
	walk = func(dir, out string, segs []string) {
		seg := segs[0]
		rest := segs[1:]
		entries := cfg.ReadDir(dir)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, entry := range entries {
			if !segMatch(seg, entry.Name) {
				continue
			}
			childOut := out + entry.Name
			childDir := strings.TrimSuffix(dir, "/") + "/" + entry.Name
			if len(rest) == 0 {
				results = append(results, prefix+childOut)
				continue
			}
			if entry.IsDir {
				walk(childDir, childOut+"/", rest)
			}
		}
	}
	if pattern == "" {
		return nil
	}
	walk(startDir, "", segs)
	return results
}

// segMatch matches one path segment; dotfiles only match patterns
// that name the leading dot literally.
func segMatch(seg, name string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(seg, ".") {
		return false
	}
	return Match(seg, name)
}
