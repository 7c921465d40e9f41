// Package interp executes parsed shell scripts against a virtual
// filesystem. One Runner serves one script at a time; subshells,
// pipeline stages and command substitutions run on snapshot copies
// whose state changes never escape.
package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/josephlewis42/sandsh/core/expand"
	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/vfs"
	"github.com/josephlewis42/sandsh/core/vos"
)

// Exit codes for conditions the shell itself reports.
const (
	ExitUsage       = 2   // syntax and expansion misuse
	ExitNotFound    = 127 // command not found
	ExitCancelled   = 130 // cooperative cancellation
	maxCallDepth = 512
	defaultIFS   = " \t\n"
	shellName    = "sandsh"
)

// Lookup resolves a command name to its registered handler.
type Lookup func(name string) (vos.ProcessFunc, bool)

// Options are the constructor knobs for a Runner.
type Options struct {
	FS     vfs.FS
	Cwd    string
	Env    []string // initial exported variables, "key=value"
	PID    int
	Clock  func() time.Time
	Rand   func() int
	Lookup Lookup
	Fetch  func(url string) ([]byte, error)
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// shopt style flags.
type shellOpts struct {
	errExit   bool // set -e
	noUnset   bool // set -u
	pipeFail  bool // set -o pipefail
	noClobber bool // set -C / set -o noclobber
	nullGlob  bool // shopt -s nullglob
	failGlob  bool // shopt -s failglob
	xtrace    bool // set -x
}

// VarKind distinguishes scalar, indexed-array and associative-array
// variables.
type VarKind int

const (
	Scalar VarKind = iota
	Indexed
	Assoc
)

// Variable is one shell variable.
type Variable struct {
	Kind     VarKind
	Str      string
	List     []string
	Map      map[string]string
	Exported bool
	ReadOnly bool
}

// scalar returns the variable's single-value projection.
func (v *Variable) scalar() string {
	switch v.Kind {
	case Indexed:
		if len(v.List) > 0 {
			return v.List[0]
		}
		return ""
	case Assoc:
		// Element "0" mirrors bash's behavior of treating the plain
		// name as subscript zero.
		return v.Map["0"]
	default:
		return v.Str
	}
}

func (v *Variable) clone() *Variable {
	out := *v
	if v.List != nil {
		out.List = append([]string(nil), v.List...)
	}
	if v.Map != nil {
		out.Map = make(map[string]string, len(v.Map))
		for k, val := range v.Map {
			out.Map[k] = val
		}
	}
	return &out
}

// Runner interprets scripts. It is not safe for concurrent use; one
// script executes at a time.
type Runner struct {
	fs     vfs.FS
	cwd    string
	pid    int
	clock  func() time.Time
	randFn func() int
	lookup Lookup
	fetch  func(url string) ([]byte, error)
	ctx    context.Context

	start time.Time

	vars       map[string]*Variable
	scopes     []map[string]*Variable // function-local frames
	funcs      map[string]*syntax.FuncDecl
	positional []string
	opts       shellOpts

	lastExit  int
	callDepth int
	condDepth int // inside if/while guards or ! where errexit is inert
	umask     iofs.FileMode

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// process substitution scratch file counter
	procSubSeq int
}

// NewRunner builds a Runner over the given filesystem and registry.
func NewRunner(opts Options) *Runner {
	if opts.Cwd == "" {
		opts.Cwd = "/"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		rng := rand.New(rand.NewSource(1))
		opts.Rand = func() int { return rng.Intn(32768) }
	}
	if opts.PID == 0 {
		opts.PID = 1
	}
	r := &Runner{
		fs:     opts.FS,
		cwd:    opts.Cwd,
		pid:    opts.PID,
		clock:  opts.Clock,
		randFn: opts.Rand,
		lookup: opts.Lookup,
		fetch:  opts.Fetch,
		ctx:    context.Background(),
		vars:   make(map[string]*Variable),
		funcs:  make(map[string]*syntax.FuncDecl),
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		umask:  0o022,
	}
	r.start = r.clock()
	if r.stdin == nil {
		r.stdin = strings.NewReader("")
	}
	if r.stdout == nil {
		r.stdout = io.Discard
	}
	if r.stderr == nil {
		r.stderr = io.Discard
	}
	for _, kv := range opts.Env {
		split := strings.SplitN(kv, "=", 2)
		val := ""
		if len(split) > 1 {
			val = split[1]
		}
		r.vars[split[0]] = &Variable{Str: val, Exported: true}
	}
	return r
}

// control flow sentinels

type breakErr struct{ n int }
type continueErr struct{ n int }
type returnErr struct{ code int }
type exitErr struct{ code int }

func (breakErr) Error() string    { return "break" }
func (continueErr) Error() string { return "continue" }
func (returnErr) Error() string   { return "return" }
func (exitErr) Error() string     { return "exit" }

// Run executes a script and returns its exit code.
func (r *Runner) Run(ctx context.Context, script *syntax.Script) int {
	if ctx != nil {
		r.ctx = ctx
	}
	err := r.stmts(script.Stmts)
	switch e := err.(type) {
	case nil:
	case exitErr:
		r.lastExit = e.code
	case returnErr:
		r.lastExit = e.code
	case breakErr, continueErr:
		// Loop controls outside a loop degrade to no-ops.
	}
	return r.lastExit
}

// LastExit returns the exit code of the most recent command.
func (r *Runner) LastExit() int { return r.lastExit }

// Cwd returns the working directory.
func (r *Runner) Cwd() string { return r.cwd }

// ExportedEnv returns the exported variables as "key=value" pairs,
// sorted by name.
func (r *Runner) ExportedEnv() []string {
	var out []string
	for name, v := range r.vars {
		if v.Exported {
			out = append(out, name+"="+v.scalar())
		}
	}
	sort.Strings(out)
	return out
}

func (r *Runner) cancelled() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

// diag prints one diagnostic line to stderr, prefixed by the
// originating command when available.
func (r *Runner) diag(prefix, format string, args ...interface{}) {
	if prefix != "" {
		fmt.Fprintf(r.stderr, "%s: ", prefix)
	}
	fmt.Fprintf(r.stderr, format, args...)
	fmt.Fprintln(r.stderr)
}

// subshell clones the runner for a child context: variables are
// copied, the filesystem and registry are shared, and I/O is
// inherited until redirected.
func (r *Runner) subshell() *Runner {
	sub := &Runner{
		fs:         r.fs,
		cwd:        r.cwd,
		pid:        r.pid,
		clock:      r.clock,
		randFn:     r.randFn,
		lookup:     r.lookup,
		fetch:      r.fetch,
		ctx:        r.ctx,
		start:      r.start,
		vars:       make(map[string]*Variable, len(r.vars)),
		funcs:      make(map[string]*syntax.FuncDecl, len(r.funcs)),
		positional: append([]string(nil), r.positional...),
		opts:       r.opts,
		lastExit:   r.lastExit,
		callDepth:  r.callDepth,
		umask:      r.umask,
		stdin:      r.stdin,
		stdout:     r.stdout,
		stderr:     r.stderr,
	}
	for name, v := range r.allVars() {
		sub.vars[name] = v.clone()
	}
	for name, fn := range r.funcs {
		sub.funcs[name] = fn
	}
	return sub
}

// allVars flattens local scopes over globals.
func (r *Runner) allVars() map[string]*Variable {
	if len(r.scopes) == 0 {
		return r.vars
	}
	out := make(map[string]*Variable, len(r.vars))
	for name, v := range r.vars {
		out[name] = v
	}
	for _, scope := range r.scopes {
		for name, v := range scope {
			out[name] = v
		}
	}
	return out
}

// lookupVar finds a variable honoring dynamic scope.
func (r *Runner) lookupVar(name string) (*Variable, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if v, ok := r.scopes[i][name]; ok {
			return v, true
		}
	}
	v, ok := r.vars[name]
	return v, ok
}

// setVar writes a variable: an existing binding is updated in place
// (dynamic scope), otherwise a new global is created.
func (r *Runner) setVar(name string, v *Variable) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if old, ok := r.scopes[i][name]; ok {
			v.Exported = v.Exported || old.Exported
			r.scopes[i][name] = v
			return
		}
	}
	if old, ok := r.vars[name]; ok {
		v.Exported = v.Exported || old.Exported
	}
	r.vars[name] = v
}

// declareLocal creates a binding in the innermost function scope.
func (r *Runner) declareLocal(name string, v *Variable) {
	if len(r.scopes) == 0 {
		r.vars[name] = v
		return
	}
	r.scopes[len(r.scopes)-1][name] = v
}

func (r *Runner) setScalar(name, value string) {
	if v, ok := r.lookupVar(name); ok {
		nv := v.clone()
		switch nv.Kind {
		case Indexed:
			if len(nv.List) == 0 {
				nv.List = []string{value}
			} else {
				nv.List[0] = value
			}
		case Assoc:
			nv.Map["0"] = value
		default:
			nv.Str = value
		}
		r.setVar(name, nv)
		return
	}
	r.setVar(name, &Variable{Str: value})
}

func (r *Runner) unsetVar(name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			delete(r.scopes[i], name)
			return
		}
	}
	delete(r.vars, name)
}

// getVarString resolves a variable's scalar projection, including the
// dynamic SECONDS and RANDOM values.
func (r *Runner) getVarString(name string) (string, bool) {
	if v, ok := r.lookupVar(name); ok {
		return v.scalar(), true
	}
	switch name {
	case "RANDOM":
		return strconv.Itoa(r.randFn()), true
	case "SECONDS":
		return strconv.Itoa(int(r.clock().Sub(r.start) / time.Second)), true
	case "IFS":
		return defaultIFS, true
	case "PWD":
		return r.cwd, true
	case "HOME":
		return "/root", true
	}
	return "", false
}

func (r *Runner) ifs() string {
	if v, ok := r.lookupVar("IFS"); ok {
		return v.scalar()
	}
	return defaultIFS
}

// setElem assigns one array element, converting the variable to an
// array when needed.
func (r *Runner) setElem(name, index, value string) error {
	v, ok := r.lookupVar(name)
	if !ok {
		v = &Variable{Kind: Indexed}
	}
	nv := v.clone()
	switch nv.Kind {
	case Assoc:
		if nv.Map == nil {
			nv.Map = make(map[string]string)
		}
		nv.Map[index] = value
	default:
		idx64, err := expand.Arith(r.expandCfg(), index)
		if err != nil {
			return err
		}
		idx := int(idx64)
		if idx < 0 {
			return fmt.Errorf("%s: bad array subscript", name)
		}
		if nv.Kind == Scalar {
			if nv.Str != "" {
				nv.List = []string{nv.Str}
			}
			nv.Kind = Indexed
			nv.Str = ""
		}
		for len(nv.List) <= idx {
			nv.List = append(nv.List, "")
		}
		nv.List[idx] = value
	}
	r.setVar(name, nv)
	return nil
}

// expandCfg builds the expansion environment for the current state.
func (r *Runner) expandCfg() *expand.Config {
	return &expand.Config{
		GetVar: r.getVarString,
		SetVar: func(name, value string) { r.setScalar(name, value) },
		GetArray: func(name string) ([]string, bool) {
			v, ok := r.lookupVar(name)
			if !ok {
				return nil, false
			}
			switch v.Kind {
			case Indexed:
				return v.List, true
			case Assoc:
				keys := sortedKeys(v.Map)
				out := make([]string, 0, len(keys))
				for _, k := range keys {
					out = append(out, v.Map[k])
				}
				return out, true
			default:
				return []string{v.Str}, true
			}
		},
		GetElem: func(name, index string) (string, bool) {
			v, ok := r.lookupVar(name)
			if !ok {
				return "", false
			}
			switch v.Kind {
			case Assoc:
				val, ok := v.Map[index]
				return val, ok
			case Indexed:
				idx64, err := expand.Arith(r.expandCfg(), index)
				if err != nil {
					return "", false
				}
				idx := int(idx64)
				if idx < 0 {
					idx += len(v.List)
				}
				if idx < 0 || idx >= len(v.List) {
					return "", false
				}
				return v.List[idx], true
			default:
				if index == "0" {
					return v.Str, true
				}
				return "", false
			}
		},
		GetKeys: func(name string) []string {
			v, ok := r.lookupVar(name)
			if !ok {
				return nil
			}
			switch v.Kind {
			case Assoc:
				return sortedKeys(v.Map)
			case Indexed:
				keys := make([]string, len(v.List))
				for i := range v.List {
					keys[i] = strconv.Itoa(i)
				}
				return keys
			default:
				return []string{"0"}
			}
		},
		NamesMatching: func(prefix string) []string {
			var names []string
			for name := range r.allVars() {
				if strings.HasPrefix(name, prefix) {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			return names
		},
		Special:    r.specialParam,
		Positional: r.positional,
		CmdSubst:   r.cmdSubst,
		ProcSubst:  r.procSubst,
		HomeDir:    r.homeDir,
		ReadDir: func(dir string) []expand.GlobEntry {
			infos, err := r.fs.ReadDir(vfs.Resolve(r.cwd, dir))
			if err != nil {
				return nil
			}
			out := make([]expand.GlobEntry, 0, len(infos))
			for _, fi := range infos {
				out = append(out, expand.GlobEntry{Name: fi.Name(), IsDir: fi.IsDir()})
			}
			return out
		},
		Cwd:      r.cwd,
		IFS:      r.ifs(),
		NoUnset:  r.opts.noUnset,
		NullGlob: r.opts.nullGlob,
		FailGlob: r.opts.failGlob,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Runner) specialParam(name string) (string, bool) {
	switch name {
	case "?":
		return strconv.Itoa(r.lastExit), true
	case "$":
		return strconv.Itoa(r.pid), true
	case "!":
		// No asynchronous jobs; the last "background" job is always
		// done and reported as the shell itself.
		return strconv.Itoa(r.pid), true
	case "0":
		return shellName, true
	case "-":
		flags := ""
		if r.opts.errExit {
			flags += "e"
		}
		if r.opts.noUnset {
			flags += "u"
		}
		if r.opts.xtrace {
			flags += "x"
		}
		if r.opts.noClobber {
			flags += "C"
		}
		return flags, true
	}
	return "", false
}

func (r *Runner) homeDir(user string) (string, bool) {
	if user == "" {
		if home, ok := r.getVarString("HOME"); ok && home != "" {
			return home, true
		}
		return "/root", true
	}
	if user == "root" {
		return "/root", true
	}
	return "/home/" + user, true
}

// cmdSubst runs a command substitution in a snapshot and returns its
// captured stdout.
func (r *Runner) cmdSubst(script *syntax.Script) (string, error) {
	sub := r.subshell()
	var out bytes.Buffer
	sub.stdout = &out
	sub.Run(r.ctx, script)
	r.lastExit = sub.lastExit
	return out.String(), nil
}

// procSubst materializes process substitution through a scratch file
// on the shared filesystem.
func (r *Runner) procSubst(output bool, script *syntax.Script) (string, error) {
	r.procSubSeq++
	path := fmt.Sprintf("/tmp/.psub.%d.%d", r.pid, r.procSubSeq)
	if output {
		// The consumer writes into the file; nothing to run yet.
		if err := r.fs.WriteFile(path, nil, 0600); err != nil {
			return "", err
		}
		return path, nil
	}
	sub := r.subshell()
	var out bytes.Buffer
	sub.stdout = &out
	sub.Run(r.ctx, script)
	if err := r.fs.WriteFile(path, out.Bytes(), 0600); err != nil {
		return "", err
	}
	return path, nil
}

// Fields expands words with the runner's current state.
func (r *Runner) Fields(words ...*syntax.Word) ([]string, error) {
	return expand.Fields(r.expandCfg(), words...)
}

func (r *Runner) literal(word *syntax.Word) (string, error) {
	return expand.Literal(r.expandCfg(), word)
}
