// Package expand resolves words into fields: brace expansion, tilde
// expansion, parameter/command/arithmetic substitution, IFS field
// splitting, pathname globbing and quote removal, in that order.
//
// The package has no state of its own; everything it needs from the
// shell is injected through Config callbacks, so it can serve the
// interpreter, tests and tools alike.
package expand

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/sandsh/core/syntax"
)

// ErrorKind classifies expansion failures.
type ErrorKind int

const (
	ErrBadSubst ErrorKind = iota
	ErrUnset
	ErrArith
	ErrGlob
)

// Error is an expansion failure; the executor lowers it to a
// diagnostic and a non-zero exit code.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// GlobEntry is one directory entry visible to the glob walker.
type GlobEntry struct {
	Name  string
	IsDir bool
}

// Config supplies the environment a word is expanded in.
type Config struct {
	// GetVar returns the scalar projection of a variable.
	GetVar func(name string) (string, bool)
	// SetVar stores a scalar; used by ${x:=d} and arithmetic
	// assignment.
	SetVar func(name, value string)
	// GetArray returns all elements of an array variable in order.
	GetArray func(name string) ([]string, bool)
	// GetElem returns one array element; the index is the literal
	// subscript text.
	GetElem func(name, index string) (string, bool)
	// GetKeys returns the subscripts of an array for ${!a[@]}.
	GetKeys func(name string) []string
	// NamesMatching returns variable names with the prefix, for
	// ${!prefix*}.
	NamesMatching func(prefix string) []string
	// Special resolves special parameters such as ?, $, #, 0 and -.
	Special func(name string) (string, bool)
	// Positional holds $1..$N.
	Positional []string
	// CmdSubst runs a command substitution and returns its captured
	// stdout.
	CmdSubst func(script *syntax.Script) (string, error)
	// ProcSubst materializes a process substitution and returns the
	// path that stands in for it.
	ProcSubst func(output bool, script *syntax.Script) (string, error)
	// HomeDir resolves ~user; user is empty for a bare tilde.
	HomeDir func(user string) (string, bool)
	// ReadDir lists a directory for pathname expansion.
	ReadDir func(dir string) []GlobEntry
	// Cwd anchors relative glob patterns.
	Cwd string

	// IFS is the field separator set; an empty string disables
	// splitting.
	IFS string

	NoUnset  bool // set -u
	NullGlob bool // shopt -s nullglob
	FailGlob bool // shopt -s failglob
}

// span is a run of expanded text; quoted spans are exempt from
// globbing.
type span struct {
	text   string
	quoted bool
}

// fieldBuilder accumulates spans into fields, applying IFS splitting
// to expansion results as they arrive.
type fieldBuilder struct {
	cfg     *Config
	fields  [][]span
	cur     []span
	started bool
}

func (b *fieldBuilder) add(text string, quoted bool) {
	b.cur = append(b.cur, span{text: text, quoted: quoted})
	b.started = true
}

// addSplittable adds expansion output subject to field splitting.
func (b *fieldBuilder) addSplittable(text string) {
	ifs := b.cfg.IFS
	if ifs == "" {
		if text != "" {
			b.add(text, false)
		}
		return
	}
	parts, leadingSep, trailingSep := splitIFS(text, ifs)
	if leadingSep {
		b.finish()
	}
	for i, part := range parts {
		if i > 0 {
			b.finish()
		}
		b.add(part, false)
	}
	if trailingSep {
		b.finish()
	}
}

// addFields injects pre-split fields, as "$@" does: the first joins
// the current field, later ones start fresh.
func (b *fieldBuilder) addFields(vals []string, quoted bool) {
	for i, val := range vals {
		if i > 0 {
			b.finish()
		}
		b.add(val, quoted)
	}
}

// finish closes the current field if one was started.
func (b *fieldBuilder) finish() {
	if !b.started {
		return
	}
	b.fields = append(b.fields, b.cur)
	b.cur = nil
	b.started = false
}

// splitIFS splits expansion output on the IFS set. Runs of IFS
// whitespace collapse into one separator; every other IFS byte is a
// separator of its own, so adjacent ones delimit empty fields.
func splitIFS(s, ifs string) (parts []string, leadingSep, trailingSep bool) {
	isIFS := func(c byte) bool { return strings.IndexByte(ifs, c) >= 0 }
	isWS := func(c byte) bool {
		return (c == ' ' || c == '\t' || c == '\n') && isIFS(c)
	}

	i := 0
	for i < len(s) && isWS(s[i]) {
		i++
	}
	leadingSep = i > 0

	start := i
	for i < len(s) {
		if !isIFS(s[i]) {
			i++
			continue
		}
		parts = append(parts, s[start:i])
		if isWS(s[i]) {
			for i < len(s) && isWS(s[i]) {
				i++
			}
			if i < len(s) && isIFS(s[i]) && !isWS(s[i]) {
				i++
				for i < len(s) && isWS(s[i]) {
					i++
				}
			}
		} else {
			i++
			for i < len(s) && isWS(s[i]) {
				i++
			}
		}
		start = i
	}
	switch {
	case start < len(s):
		parts = append(parts, s[start:])
	case len(s) > 0:
		trailingSep = true
	}
	return parts, leadingSep, trailingSep
}

// Fields expands words into argument fields: braces, tilde,
// substitutions, splitting, globbing and quote removal.
func Fields(cfg *Config, words ...*syntax.Word) ([]string, error) {
	var out []string
	for _, word := range words {
		for _, braced := range SplitBraces(word) {
			builder := &fieldBuilder{cfg: cfg}
			if err := expandParts(cfg, builder, braced.Parts, false); err != nil {
				return nil, err
			}
			builder.finish()
			fields, err := globFields(cfg, builder.fields)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		}
	}
	return out, nil
}

// Literal expands a single word to one string: no field splitting, no
// globbing. Used for redirection targets, case words and assignment
// values.
func Literal(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	builder := &fieldBuilder{cfg: cfg}
	if err := expandParts(cfg, builder, word.Parts, true); err != nil {
		return "", err
	}
	builder.finish()
	var sb strings.Builder
	for i, field := range builder.fields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for _, sp := range field {
			sb.WriteString(sp.text)
		}
	}
	return sb.String(), nil
}

// Pattern expands a word into a glob pattern: quoted text has its
// metacharacters escaped so only unquoted parts match specially.
func Pattern(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	builder := &fieldBuilder{cfg: cfg}
	if err := expandParts(cfg, builder, word.Parts, true); err != nil {
		return "", err
	}
	builder.finish()
	var sb strings.Builder
	for _, field := range builder.fields {
		for _, sp := range field {
			if sp.quoted {
				sb.WriteString(escapeGlob(sp.text))
			} else {
				sb.WriteString(sp.text)
			}
		}
	}
	return sb.String(), nil
}

// expandParts walks word parts; noSplit suppresses field splitting.
func expandParts(cfg *Config, b *fieldBuilder, parts []syntax.WordPart, noSplit bool) error {
	for _, part := range parts {
		if err := expandPart(cfg, b, part, noSplit, false); err != nil {
			return err
		}
	}
	return nil
}

func expandPart(cfg *Config, b *fieldBuilder, part syntax.WordPart, noSplit, inQuotes bool) error {
	switch x := part.(type) {
	case *syntax.Lit:
		b.add(x.Value, false)
	case *syntax.SglQuoted:
		b.add(x.Value, true)
	case *syntax.DblQuoted:
		// Contents are quoted: never split, never globbed. An empty
		// "" still produces a field.
		b.started = true
		for _, inner := range x.Parts {
			if err := expandPart(cfg, b, inner, true, true); err != nil {
				return err
			}
		}
	case *syntax.TildeExp:
		if home, ok := cfg.HomeDir(x.User); ok {
			b.add(home, true)
		} else {
			b.add("~"+x.User, false)
		}
	case *syntax.ParamExp:
		return expandParam(cfg, b, x, noSplit, inQuotes)
	case *syntax.CmdSubst:
		out, err := cfg.CmdSubst(x.Script)
		if err != nil {
			return err
		}
		out = strings.TrimRight(out, "\n")
		if noSplit {
			b.add(out, inQuotes)
		} else {
			b.addSplittable(out)
		}
	case *syntax.ArithExp:
		n, err := Arith(cfg, x.Expr)
		if err != nil {
			return err
		}
		b.add(fmt.Sprintf("%d", n), inQuotes)
	case *syntax.ProcSubst:
		path, err := cfg.ProcSubst(x.Output, x.Script)
		if err != nil {
			return err
		}
		b.add(path, true)
	default:
		return errf(ErrBadSubst, "cannot expand %T", part)
	}
	return nil
}
