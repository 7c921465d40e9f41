package expand

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/josephlewis42/sandsh/core/syntax"
)

// expandParam evaluates one parameter expansion into the field
// builder.
func expandParam(cfg *Config, b *fieldBuilder, pe *syntax.ParamExp, noSplit, inQuotes bool) error {
	emit := func(val string) {
		if noSplit {
			b.add(val, inQuotes)
		} else {
			b.addSplittable(val)
		}
	}
	emitList := func(vals []string, star bool) {
		switch {
		case inQuotes && !star:
			// "$@" keeps one field per element even inside quotes.
			b.addFields(vals, true)
		case inQuotes && star:
			b.add(strings.Join(vals, cfg.starSep()), true)
		default:
			for i, val := range vals {
				if i > 0 {
					b.finish()
				}
				if noSplit {
					b.add(val, false)
				} else {
					b.addSplittable(val)
				}
			}
		}
	}

	// ${!prefix*} and ${!prefix@}: names of set variables.
	if pe.NamesPrefix != 0 {
		var names []string
		if cfg.NamesMatching != nil {
			names = cfg.NamesMatching(pe.Name)
		}
		emitList(names, pe.NamesPrefix == '*')
		return nil
	}

	idx := ""
	if pe.Index != nil {
		var err error
		idx, err = Literal(cfg, pe.Index)
		if err != nil {
			return err
		}
	}

	// ${!a[@]}: array keys.
	if pe.Indirect && (idx == "@" || idx == "*") {
		var keys []string
		if cfg.GetKeys != nil {
			keys = cfg.GetKeys(pe.Name)
		}
		emitList(keys, idx == "*")
		return nil
	}

	// ${#...}: length forms.
	if pe.Length {
		emit(strconv.Itoa(cfg.paramLength(pe.Name, idx)))
		return nil
	}

	// Whole-list forms: $@, $*, ${a[@]}, ${a[*]}.
	if list, star, ok := cfg.listParam(pe.Name, idx); ok {
		emitList(list, star)
		return nil
	}

	name := pe.Name
	if pe.Indirect {
		target, _, err := cfg.scalarParam(name, idx)
		if err != nil {
			return err
		}
		name = target
		idx = ""
	}

	val, set, err := cfg.scalarParam(name, idx)
	if err != nil {
		return err
	}

	if pe.Exp != nil {
		return applyExpOp(cfg, b, pe, name, val, set, emit)
	}

	if !set && cfg.NoUnset {
		return errf(ErrUnset, "%s: unbound variable", name)
	}

	switch {
	case pe.Slice != nil:
		sliced, err := applySlice(cfg, pe.Slice, val)
		if err != nil {
			return err
		}
		emit(sliced)
	case pe.Repl != nil:
		replaced, err := applyReplace(cfg, pe.Repl, val)
		if err != nil {
			return err
		}
		emit(replaced)
	default:
		emit(val)
	}
	return nil
}

func (cfg *Config) starSep() string {
	if cfg.IFS == "" {
		return ""
	}
	return cfg.IFS[:1]
}

// listParam recognizes the whole-list parameter forms and returns the
// elements plus whether joining ('*') semantics apply.
func (cfg *Config) listParam(name, idx string) (vals []string, star, ok bool) {
	switch {
	case name == "@" || name == "*":
		return cfg.Positional, name == "*", true
	case idx == "@" || idx == "*":
		if cfg.GetArray != nil {
			vals, _ = cfg.GetArray(name)
		}
		return vals, idx == "*", true
	}
	return nil, false, false
}

func (cfg *Config) paramLength(name, idx string) int {
	if list, _, ok := cfg.listParam(name, idx); ok {
		return len(list)
	}
	val, _, _ := cfg.scalarParam(name, idx)
	return utf8.RuneCountInString(val)
}

// scalarParam resolves a single-valued parameter reference.
func (cfg *Config) scalarParam(name, idx string) (string, bool, error) {
	if idx != "" {
		if cfg.GetElem == nil {
			return "", false, nil
		}
		val, ok := cfg.GetElem(name, idx)
		return val, ok, nil
	}
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		n := 0
		for i := 0; i < len(name); i++ {
			n = n*10 + int(name[i]-'0')
		}
		if n == 0 {
			return cfg.specialParam("0")
		}
		if n <= len(cfg.Positional) {
			return cfg.Positional[n-1], true, nil
		}
		return "", false, nil
	}
	if len(name) == 1 && !syntax.IsName(name) {
		return cfg.specialParam(name)
	}
	if cfg.GetVar == nil {
		return "", false, nil
	}
	val, ok := cfg.GetVar(name)
	return val, ok, nil
}

func (cfg *Config) specialParam(name string) (string, bool, error) {
	switch name {
	case "#":
		return strconv.Itoa(len(cfg.Positional)), true, nil
	case "@", "*":
		return strings.Join(cfg.Positional, " "), true, nil
	}
	if cfg.Special != nil {
		if val, ok := cfg.Special(name); ok {
			return val, true, nil
		}
	}
	return "", false, nil
}

// applyExpOp handles the ${x OP word} operator family.
func applyExpOp(cfg *Config, b *fieldBuilder, pe *syntax.ParamExp, name, val string, set bool, emit func(string)) error {
	op := pe.Exp.Op
	null := val == ""

	useWord := func() (string, error) {
		return Literal(cfg, pe.Exp.Word)
	}

	switch op {
	case syntax.DefaultUnset, syntax.DefaultUnsetOrNull:
		if !set || (op == syntax.DefaultUnsetOrNull && null) {
			word, err := useWord()
			if err != nil {
				return err
			}
			emit(word)
			return nil
		}
		emit(val)
		return nil

	case syntax.AssignUnset, syntax.AssignUnsetOrNull:
		if !set || (op == syntax.AssignUnsetOrNull && null) {
			word, err := useWord()
			if err != nil {
				return err
			}
			if cfg.SetVar != nil {
				cfg.SetVar(name, word)
			}
			emit(word)
			return nil
		}
		emit(val)
		return nil

	case syntax.ErrorUnset, syntax.ErrorUnsetOrNull:
		if !set || (op == syntax.ErrorUnsetOrNull && null) {
			msg, err := useWord()
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "parameter null or not set"
			}
			return errf(ErrUnset, "%s: %s", name, msg)
		}
		emit(val)
		return nil

	case syntax.AlternateSet, syntax.AlternateSetOrNull:
		if set && !(op == syntax.AlternateSetOrNull && null) {
			word, err := useWord()
			if err != nil {
				return err
			}
			emit(word)
		} else {
			emit("")
		}
		return nil
	}

	if !set && cfg.NoUnset {
		return errf(ErrUnset, "%s: unbound variable", name)
	}

	pat, err := Pattern(cfg, pe.Exp.Word)
	if err != nil {
		return err
	}

	switch op {
	case syntax.RemSmallPrefix, syntax.RemLargePrefix:
		emit(trimPattern(val, pat, true, op == syntax.RemLargePrefix))
	case syntax.RemSmallSuffix, syntax.RemLargeSuffix:
		emit(trimPattern(val, pat, false, op == syntax.RemLargeSuffix))
	case syntax.UpperFirst, syntax.UpperAll, syntax.LowerFirst, syntax.LowerAll:
		emit(convertCase(val, pat, op))
	default:
		return errf(ErrBadSubst, "%s: bad substitution", name)
	}
	return nil
}

// trimPattern removes a glob-matched prefix or suffix from val.
func trimPattern(val, pat string, prefix, longest bool) string {
	runes := []rune(val)
	if prefix {
		if longest {
			for end := len(runes); end >= 0; end-- {
				if Match(pat, string(runes[:end])) {
					return string(runes[end:])
				}
			}
		} else {
			for end := 0; end <= len(runes); end++ {
				if Match(pat, string(runes[:end])) {
					return string(runes[end:])
				}
			}
		}
		return val
	}
	if longest {
		for start := 0; start <= len(runes); start++ {
			if Match(pat, string(runes[start:])) {
				return string(runes[:start])
			}
		}
	} else {
		for start := len(runes); start >= 0; start-- {
			if Match(pat, string(runes[start:])) {
				return string(runes[:start])
			}
		}
	}
	return val
}

// convertCase implements ${x^}, ${x^^}, ${x,} and ${x,,}. The pattern
// selects which characters convert; empty matches every character.
func convertCase(val, pat string, op syntax.ParamOp) string {
	matches := func(r rune) bool {
		if pat == "" {
			return true
		}
		return Match(pat, string(r))
	}
	upper := op == syntax.UpperFirst || op == syntax.UpperAll
	all := op == syntax.UpperAll || op == syntax.LowerAll

	runes := []rune(val)
	for i, r := range runes {
		if !all && i > 0 {
			break
		}
		if !matches(r) {
			continue
		}
		if upper {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}

func applySlice(cfg *Config, slice *syntax.Slice, val string) (string, error) {
	runes := []rune(val)
	off64, err := Arith(cfg, slice.Offset)
	if err != nil {
		return "", err
	}
	off := int(off64)
	if off < 0 {
		off += len(runes)
	}
	if off < 0 {
		off = 0
	}
	if off > len(runes) {
		return "", nil
	}

	end := len(runes)
	if slice.Length != "" {
		len64, err := Arith(cfg, slice.Length)
		if err != nil {
			return "", err
		}
		if len64 < 0 {
			end = len(runes) + int(len64)
		} else {
			end = off + int(len64)
		}
		if end > len(runes) {
			end = len(runes)
		}
		if end < off {
			end = off
		}
	}
	return string(runes[off:end]), nil
}

func applyReplace(cfg *Config, repl *syntax.Replace, val string) (string, error) {
	pat, err := Pattern(cfg, repl.Pattern)
	if err != nil {
		return "", err
	}
	with, err := Literal(cfg, repl.With)
	if err != nil {
		return "", err
	}

	re, err2 := globToRegexp(pat, repl.Prefix, repl.Suffix)
	if err2 != nil {
		return "", errf(ErrBadSubst, "bad pattern %q", pat)
	}
	if repl.All {
		return re.ReplaceAllLiteralString(val, with), nil
	}
	replaced := false
	return re.ReplaceAllStringFunc(val, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return with
	}), nil
}

// globToRegexp compiles a glob pattern into an equivalent regular
// expression, optionally anchored.
func globToRegexp(pat string, prefix, suffix bool) (*regexp.Regexp, error) {
	var sb strings.Builder
	if prefix {
		sb.WriteString("^")
	}
	for i := 0; i < len(pat); i++ {
		switch c := pat[i]; c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			end := findSetEnd(pat, i)
			if end < 0 {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			sb.WriteString(setToRegexp(pat[i : end+1]))
			i = end
		case '\\':
			if i+1 < len(pat) {
				i++
				sb.WriteString(regexp.QuoteMeta(string(pat[i])))
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if suffix {
		sb.WriteString("$")
	}
	return regexp.Compile(sb.String())
}

