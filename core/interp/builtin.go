package interp

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/expand"
	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/vfs"
)

// builtinFunc is a shell builtin: it runs inside the shell process
// and may unwind control flow through the returned error.
type builtinFunc func(r *Runner, name string, args []string) (int, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		":":        builtinTrue,
		"true":     builtinTrue,
		"false":    builtinFalse,
		"cd":       builtinCd,
		"pwd":      builtinPwd,
		"export":   builtinExport,
		"unset":    builtinUnset,
		"readonly": builtinReadonly,
		"declare":  builtinDeclare,
		"typeset":  builtinDeclare,
		"local":    builtinLocal,
		"set":      builtinSet,
		"shopt":    builtinShopt,
		"shift":    builtinShift,
		"eval":     builtinEval,
		"source":   builtinSource,
		".":        builtinSource,
		"exit":     builtinExit,
		"return":   builtinReturn,
		"break":    builtinBreak,
		"continue": builtinContinue,
		"test":     builtinTest,
		"[":        builtinTest,
		"read":     builtinRead,
		"type":     builtinType,
		"umask":    builtinUmask,
		"wait":     builtinWait,
		"exec":     builtinExec,
		"let":      builtinLet,
	}
}

// IsBuiltin reports whether name is handled inside the shell itself.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinTrue(r *Runner, name string, args []string) (int, error) {
	return 0, nil
}

func builtinFalse(r *Runner, name string, args []string) (int, error) {
	return 1, nil
}

func builtinCd(r *Runner, name string, args []string) (int, error) {
	var dest string
	switch {
	case len(args) == 0:
		dest, _ = r.getVarString("HOME")
	case args[0] == "-":
		dest, _ = r.getVarString("OLDPWD")
		if dest == "" {
			r.diag(name, "OLDPWD not set")
			return 1, nil
		}
		fmt.Fprintln(r.stdout, dest)
	case len(args) > 1:
		r.diag(name, "too many arguments")
		return 1, nil
	default:
		dest = args[0]
	}

	resolved := vfs.Resolve(r.cwd, dest)
	fi, err := r.fs.Stat(resolved)
	switch {
	case err != nil:
		r.diag(name, "%s: %s", dest, vfs.KindOf(err))
		return 1, nil
	case !fi.IsDir():
		r.diag(name, "%s: %s", dest, vfs.KindNotADirectory)
		return 1, nil
	}
	if canonical, err := r.fs.Realpath(resolved); err == nil {
		resolved = canonical
	}
	r.setScalar("OLDPWD", r.cwd)
	r.cwd = resolved
	r.setScalar("PWD", resolved)
	return 0, nil
}

func builtinPwd(r *Runner, name string, args []string) (int, error) {
	fmt.Fprintln(r.stdout, r.cwd)
	return 0, nil
}

func builtinExport(r *Runner, name string, args []string) (int, error) {
	unexport := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-n":
			unexport = true
		case "-p", "--":
		default:
			r.diag(name, "%s: invalid option", args[0])
			return ExitUsage, nil
		}
		args = args[1:]
	}
	if len(args) == 0 {
		for _, kv := range r.ExportedEnv() {
			fmt.Fprintf(r.stdout, "declare -x %s\n", kv)
		}
		return 0, nil
	}
	for _, arg := range args {
		key, value, hasValue := cutAssign(arg)
		if !syntax.IsName(key) {
			r.diag(name, "%s: not a valid identifier", key)
			return 1, nil
		}
		v, ok := r.lookupVar(key)
		if !ok {
			v = &Variable{}
		}
		nv := v.clone()
		if hasValue {
			nv.Str = value
			nv.Kind = Scalar
			nv.List, nv.Map = nil, nil
		}
		nv.Exported = !unexport
		r.setVar(key, nv)
	}
	return 0, nil
}

func cutAssign(arg string) (key, value string, hasValue bool) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:], true
	}
	return arg, "", false
}

func builtinUnset(r *Runner, name string, args []string) (int, error) {
	unsetFunc := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-f":
			unsetFunc = true
		case "-v", "--":
		default:
			r.diag(name, "%s: invalid option", args[0])
			return ExitUsage, nil
		}
		args = args[1:]
	}
	for _, arg := range args {
		if unsetFunc {
			delete(r.funcs, arg)
			continue
		}
		r.unsetVar(arg)
	}
	return 0, nil
}

func builtinReadonly(r *Runner, name string, args []string) (int, error) {
	for _, arg := range args {
		key, value, hasValue := cutAssign(arg)
		v, ok := r.lookupVar(key)
		if !ok {
			v = &Variable{}
		}
		nv := v.clone()
		if hasValue {
			nv.Str = value
		}
		nv.ReadOnly = true
		r.setVar(key, nv)
	}
	return 0, nil
}

func builtinDeclare(r *Runner, name string, args []string) (int, error) {
	return declare(r, name, args, name == "local")
}

func builtinLocal(r *Runner, name string, args []string) (int, error) {
	if len(r.scopes) == 0 {
		r.diag(name, "can only be used in a function")
		return 1, nil
	}
	return declare(r, name, args, true)
}

func declare(r *Runner, name string, args []string, local bool) (int, error) {
	kind := Scalar
	export := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-a":
			kind = Indexed
		case "-A":
			kind = Assoc
		case "-x":
			export = true
		case "-r", "-i", "--", "-p":
			// Attributes with no storage consequence here.
		default:
			r.diag(name, "%s: invalid option", args[0])
			return ExitUsage, nil
		}
		args = args[1:]
	}

	for _, arg := range args {
		key, value, hasValue := cutAssign(arg)
		if !syntax.IsName(key) {
			r.diag(name, "%s: not a valid identifier", key)
			return 1, nil
		}
		v := &Variable{Kind: kind, Exported: export}
		switch kind {
		case Assoc:
			v.Map = make(map[string]string)
			if hasValue {
				v.Map["0"] = value
			}
		case Indexed:
			if hasValue {
				v.List = []string{value}
			}
		default:
			v.Str = value
		}
		if !hasValue {
			// Re-declaring an existing variable keeps its value.
			if old, ok := r.lookupVar(key); ok && old.Kind == kind {
				v = old.clone()
				v.Exported = v.Exported || export
			}
		}
		if local {
			r.declareLocal(key, v)
		} else {
			r.setVar(key, v)
		}
	}
	return 0, nil
}

func builtinSet(r *Runner, name string, args []string) (int, error) {
	if len(args) == 0 {
		for _, name := range sortedVarNames(r) {
			v, _ := r.lookupVar(name)
			fmt.Fprintf(r.stdout, "%s=%s\n", name, v.scalar())
		}
		return 0, nil
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-e":
			r.opts.errExit = true
		case "+e":
			r.opts.errExit = false
		case "-u":
			r.opts.noUnset = true
		case "+u":
			r.opts.noUnset = false
		case "-x":
			r.opts.xtrace = true
		case "+x":
			r.opts.xtrace = false
		case "-C":
			r.opts.noClobber = true
		case "+C":
			r.opts.noClobber = false
		case "-o", "+o":
			if i+1 >= len(args) {
				r.diag(name, "%s: option name required", arg)
				return ExitUsage, nil
			}
			i++
			if code := r.setNamedOpt(args[i], arg == "-o"); code != 0 {
				r.diag(name, "%s: invalid option name", args[i])
				return code, nil
			}
		case "--":
			r.positional = append([]string(nil), args[i+1:]...)
			return 0, nil
		default:
			r.positional = append([]string(nil), args[i:]...)
			return 0, nil
		}
	}
	return 0, nil
}

func (r *Runner) setNamedOpt(opt string, on bool) int {
	switch opt {
	case "errexit":
		r.opts.errExit = on
	case "nounset":
		r.opts.noUnset = on
	case "pipefail":
		r.opts.pipeFail = on
	case "noclobber":
		r.opts.noClobber = on
	case "xtrace":
		r.opts.xtrace = on
	default:
		return ExitUsage
	}
	return 0
}

func builtinShopt(r *Runner, name string, args []string) (int, error) {
	on := true
	switch {
	case len(args) > 0 && args[0] == "-s":
		args = args[1:]
	case len(args) > 0 && args[0] == "-u":
		on = false
		args = args[1:]
	}
	for _, opt := range args {
		switch opt {
		case "nullglob":
			r.opts.nullGlob = on
		case "failglob":
			r.opts.failGlob = on
		case "lastpipe":
			// Accepted but inert: every pipeline stage runs in a
			// snapshot, including the last.
		default:
			r.diag(name, "%s: invalid shell option name", opt)
			return 1, nil
		}
	}
	return 0, nil
}

func builtinShift(r *Runner, name string, args []string) (int, error) {
	n := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 0 {
			r.diag(name, "%s: shift count out of range", args[0])
			return 1, nil
		}
		n = parsed
	}
	if n > len(r.positional) {
		return 1, nil
	}
	r.positional = r.positional[n:]
	return 0, nil
}

func builtinEval(r *Runner, name string, args []string) (int, error) {
	src := strings.Join(args, " ")
	if strings.TrimSpace(src) == "" {
		return 0, nil
	}
	script, err := syntax.Parse(src, name)
	if err != nil {
		r.diag(name, "%v", err)
		return ExitUsage, nil
	}
	if err := r.stmts(script.Stmts); err != nil {
		return r.lastExit, err
	}
	return r.lastExit, nil
}

func builtinSource(r *Runner, name string, args []string) (int, error) {
	if len(args) == 0 {
		r.diag(name, "filename argument required")
		return ExitUsage, nil
	}
	data, err := r.fs.ReadFile(vfs.Resolve(r.cwd, args[0]))
	if err != nil {
		r.diag(name, "%s: %s", args[0], vfs.KindOf(err))
		return 1, nil
	}
	script, perr := syntax.Parse(string(data), args[0])
	if perr != nil {
		r.diag(name, "%v", perr)
		return ExitUsage, nil
	}
	savedPositional := r.positional
	if len(args) > 1 {
		r.positional = args[1:]
	}
	err2 := r.stmts(script.Stmts)
	r.positional = savedPositional
	if e, ok := err2.(returnErr); ok {
		return e.code, nil
	}
	return r.lastExit, err2
}

func builtinExit(r *Runner, name string, args []string) (int, error) {
	code := r.lastExit
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			r.diag(name, "%s: numeric argument required", args[0])
			return ExitUsage, exitErr{code: ExitUsage}
		}
		code = parsed & 0xff
	}
	return code, exitErr{code: code}
}

func builtinReturn(r *Runner, name string, args []string) (int, error) {
	code := r.lastExit
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			r.diag(name, "%s: numeric argument required", args[0])
			return ExitUsage, nil
		}
		code = parsed & 0xff
	}
	return code, returnErr{code: code}
}

func builtinBreak(r *Runner, name string, args []string) (int, error) {
	n, code := loopCount(r, name, args)
	if code != 0 {
		return code, nil
	}
	return 0, breakErr{n: n}
}

func builtinContinue(r *Runner, name string, args []string) (int, error) {
	n, code := loopCount(r, name, args)
	if code != 0 {
		return code, nil
	}
	return 0, continueErr{n: n}
}

func loopCount(r *Runner, name string, args []string) (int, int) {
	if len(args) == 0 {
		return 1, 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		r.diag(name, "%s: loop count out of range", args[0])
		return 0, ExitUsage
	}
	return n, 0
}

func builtinRead(r *Runner, name string, args []string) (int, error) {
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-r", "--":
			// Backslashes are always literal here.
		default:
			r.diag(name, "%s: invalid option", args[0])
			return ExitUsage, nil
		}
		args = args[1:]
	}

	reader := bufio.NewReader(r.stdin)
	line, err := reader.ReadString('\n')
	eof := err != nil && line == ""
	line = strings.TrimSuffix(line, "\n")
	// Hand unconsumed bytes back to the next reader.
	var rest bytes.Buffer
	if _, copyErr := rest.ReadFrom(reader); copyErr == nil && rest.Len() > 0 {
		r.stdin = bytes.NewReader(rest.Bytes())
	} else {
		r.stdin = strings.NewReader("")
	}

	if len(args) == 0 {
		args = []string{"REPLY"}
	}
	fields := strings.FieldsFunc(line, func(c rune) bool {
		return strings.ContainsRune(r.ifs(), c)
	})
	for i, varName := range args {
		switch {
		case i == len(args)-1 && i < len(fields):
			r.setScalar(varName, strings.Join(fields[i:], " "))
		case i < len(fields):
			r.setScalar(varName, fields[i])
		default:
			r.setScalar(varName, "")
		}
	}
	if eof {
		return 1, nil
	}
	return 0, nil
}

func builtinType(r *Runner, name string, args []string) (int, error) {
	exit := 0
	for _, arg := range args {
		switch {
		case r.funcs[arg] != nil:
			fmt.Fprintf(r.stdout, "%s is a function\n", arg)
		case IsBuiltin(arg):
			fmt.Fprintf(r.stdout, "%s is a shell builtin\n", arg)
		default:
			if r.lookup != nil {
				if _, ok := r.lookup(arg); ok {
					fmt.Fprintf(r.stdout, "%s is /usr/bin/%s\n", arg, arg)
					continue
				}
			}
			r.diag(name, "%s: not found", arg)
			exit = 1
		}
	}
	return exit, nil
}

func builtinUmask(r *Runner, name string, args []string) (int, error) {
	if len(args) == 0 {
		fmt.Fprintf(r.stdout, "%04o\n", r.umask)
		return 0, nil
	}
	parsed, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		r.diag(name, "%s: octal number out of range", args[0])
		return 1, nil
	}
	r.umask = fs.FileMode(parsed)
	return 0, nil
}

func builtinWait(r *Runner, name string, args []string) (int, error) {
	// Background jobs complete synchronously, so there is never
	// anything to wait for.
	return 0, nil
}

func builtinExec(r *Runner, name string, args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	// exec replaces the shell: run the command, then leave with its
	// exit code.
	if err := r.call(args[0], args[1:], nil); err != nil {
		return r.lastExit, err
	}
	return r.lastExit, exitErr{code: r.lastExit}
}

func builtinLet(r *Runner, name string, args []string) (int, error) {
	if len(args) == 0 {
		r.diag(name, "expression expected")
		return 1, nil
	}
	var n int64
	for _, arg := range args {
		var err error
		n, err = expand.Arith(r.expandCfg(), arg)
		if err != nil {
			r.diag(name, "%v", err)
			return 1, nil
		}
	}
	if n != 0 {
		return 0, nil
	}
	return 1, nil
}

func sortedVarNames(r *Runner) []string {
	all := r.allVars()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
