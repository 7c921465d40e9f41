package interp

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/vos"
)

func (r *Runner) simple(cmd *syntax.SimpleCommand) error {
	var fields []string
	if cmd.Name != nil {
		words := append([]*syntax.Word{cmd.Name}, cmd.Args...)
		expanded, err := r.Fields(words...)
		if err != nil {
			return r.expandFail(err)
		}
		fields = expanded
	}

	if len(fields) == 0 {
		// Assignments alone apply to the current scope.
		for _, assign := range cmd.Assigns {
			if err := r.applyAssign(assign, false); err != nil {
				return r.expandFail(err)
			}
		}
		return r.withRedirs(cmd.Redirs, func() error {
			r.lastExit = 0
			return nil
		})
	}

	return r.withRedirs(cmd.Redirs, func() error {
		return r.call(fields[0], fields[1:], cmd.Assigns)
	})
}

// applyAssign evaluates one assignment. When export is set the
// resulting variable is marked exported.
func (r *Runner) applyAssign(assign *syntax.Assign, export bool) error {
	value, err := r.literal(assign.Value)
	if err != nil {
		return err
	}

	if assign.Index != nil {
		index, err := r.literal(assign.Index)
		if err != nil {
			return err
		}
		if assign.Append {
			if old, ok := r.expandCfg().GetElem(assign.Name, index); ok {
				value = old + value
			}
		}
		return r.setElem(assign.Name, index, value)
	}

	if assign.Append {
		if old, ok := r.getVarString(assign.Name); ok {
			value = old + value
		}
	}
	r.setScalar(assign.Name, value)
	if export {
		if v, ok := r.lookupVar(assign.Name); ok {
			nv := v.clone()
			nv.Exported = true
			r.setVar(assign.Name, nv)
		}
	}
	return nil
}

// call resolves a command name: function, then builtin, then the
// registry. Prefix assignments are visible only for the duration of
// the call.
func (r *Runner) call(name string, args []string, assigns []*syntax.Assign) error {
	saved := make(map[string]*Variable, len(assigns))
	for _, assign := range assigns {
		if old, ok := r.lookupVar(assign.Name); ok {
			saved[assign.Name] = old
		} else {
			saved[assign.Name] = nil
		}
		if err := r.applyAssign(assign, true); err != nil {
			return r.expandFail(err)
		}
	}
	defer func() {
		for name, old := range saved {
			// Drop the temporary binding outright so restoring does
			// not inherit its export attribute.
			r.unsetVar(name)
			if old != nil {
				r.setVar(name, old)
			}
		}
	}()

	if fn, ok := r.funcs[name]; ok {
		return r.callFunc(fn, args)
	}
	if builtin, ok := builtins[name]; ok {
		code, err := builtin(r, name, args)
		r.lastExit = code
		return err
	}
	if r.lookup != nil {
		if proc, ok := r.lookup(name); ok {
			r.lastExit = r.runProcess(proc, name, args)
			return nil
		}
	}
	r.diag(shellName, "%s: command not found", name)
	r.lastExit = ExitNotFound
	return nil
}

func (r *Runner) callFunc(fn *syntax.FuncDecl, args []string) error {
	if r.callDepth >= maxCallDepth {
		r.diag(shellName, "%s: maximum function nesting exceeded", fn.Name)
		r.lastExit = 1
		return nil
	}
	r.callDepth++
	r.scopes = append(r.scopes, make(map[string]*Variable))
	savedPositional := r.positional
	r.positional = args

	err := r.command(fn.Body)

	r.positional = savedPositional
	r.scopes = r.scopes[:len(r.scopes)-1]
	r.callDepth--

	if e, ok := err.(returnErr); ok {
		r.lastExit = e.code
		return nil
	}
	return err
}

// runProcess invokes a registered command handler, containing any
// panic it raises.
func (r *Runner) runProcess(proc vos.ProcessFunc, name string, args []string) (code int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.diag(name, "%v", rec)
			code = 1
		}
	}()

	env := vos.NewMapEnvFromList(r.ExportedEnv())
	virtOS := &vos.ProcOS{
		VEnv:     env,
		VIO:      vos.NewVIOAdapter(r.stdin, r.stdout, r.stderr),
		ProcArgs: append([]string{name}, args...),
		PID:      r.pid,
		Dir:      r.cwd,
		Fs:       r.fs,
		Clock:    r.clock,
		Ctx:      r.ctx,
		ExecFn:   r.reenter,
		FetchFn:  r.fetch,
	}
	return proc(virtOS)
}

// reenter runs a script in a snapshot of the current shell; this is
// the exec hook handed to commands like xargs.
func (r *Runner) reenter(script string) (vos.ExecResult, error) {
	parsed, err := syntax.Parse(script, "exec")
	if err != nil {
		return vos.ExecResult{
			Stderr:   fmt.Sprintf("%s: %v\n", shellName, err),
			ExitCode: ExitUsage,
		}, nil
	}
	sub := r.subshell()
	var out, errBuf bytes.Buffer
	sub.stdin = strings.NewReader("")
	sub.stdout = &out
	sub.stderr = &errBuf
	code := sub.Run(r.ctx, parsed)
	return vos.ExecResult{
		Stdout:   out.String(),
		Stderr:   errBuf.String(),
		ExitCode: code,
	}, nil
}
