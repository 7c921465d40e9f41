package interp

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/expand"
	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/vfs"
)

func (r *Runner) stmts(stmts []*syntax.Stmt) error {
	for _, st := range stmts {
		if err := r.stmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) stmt(st *syntax.Stmt) error {
	if st.Background {
		// No true parallelism: the "job" runs to completion here and
		// the statement reports success immediately. Its failures
		// never trip errexit.
		r.condDepth++
		err := r.andOr(st)
		r.condDepth--
		if err != nil {
			return err
		}
		r.lastExit = 0
		return nil
	}
	return r.andOr(st)
}

func (r *Runner) andOr(st *syntax.Stmt) error {
	lastNegated := false
	for i, pl := range st.Pipelines {
		if i > 0 {
			op := st.Ops[i-1]
			if op == syntax.AndOp && r.lastExit != 0 {
				continue
			}
			if op == syntax.OrOp && r.lastExit == 0 {
				continue
			}
		}
		inCond := i < len(st.Pipelines)-1
		if inCond {
			r.condDepth++
		}
		err := r.pipeline(pl)
		if inCond {
			r.condDepth--
		}
		if err != nil {
			return err
		}
		lastNegated = pl.Negated
	}
	if r.opts.errExit && r.lastExit != 0 && r.condDepth == 0 && !lastNegated {
		return exitErr{code: r.lastExit}
	}
	return nil
}

func (r *Runner) pipeline(pl *syntax.Pipeline) error {
	if r.cancelled() {
		r.lastExit = ExitCancelled
		return exitErr{code: ExitCancelled}
	}
	if pl.Negated {
		r.condDepth++
	}
	var err error
	if len(pl.Cmds) == 1 {
		err = r.command(pl.Cmds[0])
		r.setPipestatus([]int{r.lastExit})
	} else {
		err = r.runPipe(pl)
	}
	if pl.Negated {
		r.condDepth--
		if err == nil {
			if r.lastExit == 0 {
				r.lastExit = 1
			} else {
				r.lastExit = 0
			}
		}
	}
	return err
}

// runPipe executes a multi-stage pipeline. Stages run sequentially
// over fully buffered connectors, which is observably identical to
// streaming for deterministic commands. Each stage gets a state
// snapshot; only PIPESTATUS and the exit code escape.
func (r *Runner) runPipe(pl *syntax.Pipeline) error {
	codes := make([]int, 0, len(pl.Cmds))
	input := r.stdin
	for i, cmd := range pl.Cmds {
		if r.cancelled() {
			r.lastExit = ExitCancelled
			return exitErr{code: ExitCancelled}
		}
		last := i == len(pl.Cmds)-1

		sub := r.subshell()
		sub.stdin = input
		var connector *bytes.Buffer
		if last {
			sub.stdout = r.stdout
		} else {
			connector = &bytes.Buffer{}
			sub.stdout = connector
		}
		if !last && pl.MergeStderr[i] {
			sub.stderr = connector
		} else {
			sub.stderr = r.stderr
		}

		err := sub.command(cmd)
		code := sub.lastExit
		switch e := err.(type) {
		case nil:
		case exitErr:
			// exit inside a pipeline stage only leaves the stage.
			code = e.code
		default:
			// Loop controls cannot unwind out of the stage subshell.
		}
		codes = append(codes, code)

		if !last {
			input = bytes.NewReader(connector.Bytes())
		}
	}

	r.setPipestatus(codes)
	exit := codes[len(codes)-1]
	if r.opts.pipeFail {
		for _, code := range codes {
			if code != 0 {
				exit = code
			}
		}
	}
	r.lastExit = exit
	return nil
}

func (r *Runner) setPipestatus(codes []int) {
	list := make([]string, len(codes))
	for i, code := range codes {
		list[i] = strconv.Itoa(code)
	}
	r.vars["PIPESTATUS"] = &Variable{Kind: Indexed, List: list}
}

func (r *Runner) command(cmd syntax.Command) error {
	switch x := cmd.(type) {
	case *syntax.SimpleCommand:
		return r.simple(x)
	case *syntax.IfClause:
		return r.withRedirs(x.Redirs, func() error { return r.ifClause(x) })
	case *syntax.ForClause:
		return r.withRedirs(x.Redirs, func() error { return r.forClause(x) })
	case *syntax.WhileClause:
		return r.withRedirs(x.Redirs, func() error { return r.whileClause(x) })
	case *syntax.CaseClause:
		return r.withRedirs(x.Redirs, func() error { return r.caseClause(x) })
	case *syntax.Subshell:
		return r.withRedirs(x.Redirs, func() error {
			sub := r.subshell()
			err := sub.stmts(x.Body)
			r.lastExit = sub.lastExit
			if e, ok := err.(exitErr); ok {
				r.lastExit = e.code
				err = nil
			}
			return err
		})
	case *syntax.Block:
		return r.withRedirs(x.Redirs, func() error { return r.stmts(x.Body) })
	case *syntax.FuncDecl:
		r.funcs[x.Name] = x
		r.lastExit = 0
		return nil
	case *syntax.ArithCmd:
		return r.withRedirs(x.Redirs, func() error {
			n, err := expand.Arith(r.expandCfg(), x.Expr)
			if err != nil {
				r.diag(shellName, "%v", err)
				r.lastExit = 1
				return nil
			}
			if n != 0 {
				r.lastExit = 0
			} else {
				r.lastExit = 1
			}
			return nil
		})
	case *syntax.TestClause:
		return r.withRedirs(x.Redirs, func() error {
			ok, err := r.evalTest(x.Expr)
			if err != nil {
				r.diag(shellName, "%v", err)
				r.lastExit = ExitUsage
				return nil
			}
			if ok {
				r.lastExit = 0
			} else {
				r.lastExit = 1
			}
			return nil
		})
	default:
		return fmt.Errorf("interp: unknown command node %T", cmd)
	}
}

func (r *Runner) ifClause(x *syntax.IfClause) error {
	run, err := r.guard(x.Cond)
	if err != nil {
		return err
	}
	if run {
		return r.stmts(x.Then)
	}
	for _, elif := range x.Elifs {
		run, err := r.guard(elif.Cond)
		if err != nil {
			return err
		}
		if run {
			return r.stmts(elif.Then)
		}
	}
	if x.Else != nil {
		return r.stmts(x.Else)
	}
	r.lastExit = 0
	return nil
}

// guard runs a condition list; errexit is inert inside it.
func (r *Runner) guard(cond []*syntax.Stmt) (bool, error) {
	r.condDepth++
	err := r.stmts(cond)
	r.condDepth--
	if err != nil {
		return false, err
	}
	return r.lastExit == 0, nil
}

// loopCtl folds break/continue sentinels into loop actions.
type loopAction int

const (
	loopNormal loopAction = iota
	loopBreak
	loopContinue
)

func loopCtl(err error) (loopAction, error) {
	switch e := err.(type) {
	case nil:
		return loopNormal, nil
	case breakErr:
		if e.n > 1 {
			return loopBreak, breakErr{n: e.n - 1}
		}
		return loopBreak, nil
	case continueErr:
		if e.n > 1 {
			return loopBreak, continueErr{n: e.n - 1}
		}
		return loopContinue, nil
	default:
		return loopBreak, err
	}
}

func (r *Runner) forClause(x *syntax.ForClause) error {
	var words []string
	if x.HasIn {
		fields, err := r.Fields(x.Words...)
		if err != nil {
			return r.expandFail(err)
		}
		words = fields
	} else {
		words = append([]string(nil), r.positional...)
	}

	r.lastExit = 0
	for _, word := range words {
		if r.cancelled() {
			r.lastExit = ExitCancelled
			return exitErr{code: ExitCancelled}
		}
		r.setScalar(x.Name, word)
		action, err := loopCtl(r.stmts(x.Body))
		if err != nil {
			return err
		}
		if action == loopBreak {
			break
		}
	}
	return nil
}

func (r *Runner) whileClause(x *syntax.WhileClause) error {
	r.lastExit = 0
	exit := 0
	for {
		if r.cancelled() {
			r.lastExit = ExitCancelled
			return exitErr{code: ExitCancelled}
		}
		run, err := r.guard(x.Cond)
		if err != nil {
			return err
		}
		if run == x.Until {
			break
		}
		action, err := loopCtl(r.stmts(x.Body))
		exit = r.lastExit
		if err != nil {
			return err
		}
		if action == loopBreak {
			break
		}
	}
	r.lastExit = exit
	return nil
}

func (r *Runner) caseClause(x *syntax.CaseClause) error {
	word, err := r.literal(x.Word)
	if err != nil {
		return r.expandFail(err)
	}
	r.lastExit = 0

	fallthroughNext := false
	for _, item := range x.Items {
		matched := fallthroughNext
		fallthroughNext = false
		if !matched {
			for _, patWord := range item.Patterns {
				pat, err := expand.Pattern(r.expandCfg(), patWord)
				if err != nil {
					return r.expandFail(err)
				}
				if expand.Match(pat, word) {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		if err := r.stmts(item.Body); err != nil {
			return err
		}
		switch item.Term {
		case syntax.CaseBreak:
			return nil
		case syntax.CaseFallthrough:
			fallthroughNext = true
		case syntax.CaseResume:
			// Keep matching later patterns.
		}
	}
	return nil
}

// expandFail lowers an expansion error to a diagnostic and exit code.
func (r *Runner) expandFail(err error) error {
	code := 1
	if ee, ok := err.(*expand.Error); ok && ee.Kind == expand.ErrUnset {
		code = ExitUsage
	}
	r.diag(shellName, "%v", err)
	r.lastExit = code
	return nil
}

// withRedirs applies redirections around body, restoring the previous
// streams afterwards. A redirection failure aborts the command with
// exit 1.
func (r *Runner) withRedirs(redirs []*syntax.Redir, body func() error) error {
	if len(redirs) == 0 {
		return body()
	}
	saveIn, saveOut, saveErr := r.stdin, r.stdout, r.stderr
	var closers []io.Closer
	restore := func() {
		for _, c := range closers {
			c.Close()
		}
		r.stdin, r.stdout, r.stderr = saveIn, saveOut, saveErr
	}

	for _, redir := range redirs {
		if err := r.applyRedir(redir, &closers); err != nil {
			restore()
			r.diag(shellName, "%v", err)
			r.lastExit = 1
			return nil
		}
	}
	err := body()
	restore()
	return err
}

func (r *Runner) applyRedir(redir *syntax.Redir, closers *[]io.Closer) error {
	switch redir.Op {
	case syntax.RedirHeredoc, syntax.RedirHeredocStrip:
		body := redir.Heredoc
		if !redir.HeredocQuoted {
			word, err := syntax.ParseHeredocBody(body)
			if err != nil {
				return err
			}
			expanded, err := r.literal(word)
			if err != nil {
				return err
			}
			body = expanded
		}
		r.stdin = strings.NewReader(body)
		return nil

	case syntax.RedirHereString:
		text, err := r.literal(redir.Target)
		if err != nil {
			return err
		}
		r.stdin = strings.NewReader(text + "\n")
		return nil
	}

	target, err := r.literal(redir.Target)
	if err != nil {
		return err
	}

	switch redir.Op {
	case syntax.RedirIn, syntax.RedirReadWrite:
		path := vfs.Resolve(r.cwd, target)
		data, err := r.fs.ReadFile(path)
		if err != nil {
			if redir.Op == syntax.RedirReadWrite && vfs.KindOf(err) == vfs.KindNotFound {
				if err := r.fs.WriteFile(path, nil, 0644); err != nil {
					return err
				}
				data = nil
			} else {
				return err
			}
		}
		r.stdin = bytes.NewReader(data)
		return nil

	case syntax.RedirOut, syntax.RedirAppend, syntax.RedirClobber:
		w, err := r.openTarget(target, redir.Op == syntax.RedirAppend, redir.Op == syntax.RedirClobber)
		if err != nil {
			return err
		}
		*closers = append(*closers, w)
		return r.routeOut(redir.Fd, w)

	case syntax.RedirAll, syntax.RedirAllAppend:
		w, err := r.openTarget(target, redir.Op == syntax.RedirAllAppend, false)
		if err != nil {
			return err
		}
		*closers = append(*closers, w)
		r.stdout = w
		r.stderr = w
		return nil

	case syntax.RedirDupOut:
		if n, err := strconv.Atoi(target); err == nil {
			src, err := r.streamFor(n)
			if err != nil {
				return err
			}
			return r.routeOut(redir.Fd, src)
		}
		if target == "-" {
			return r.routeOut(redir.Fd, io.Discard)
		}
		// ">&file" with no descriptor redirects both streams.
		if redir.Fd < 0 {
			w, err := r.openTarget(target, false, false)
			if err != nil {
				return err
			}
			*closers = append(*closers, w)
			r.stdout = w
			r.stderr = w
			return nil
		}
		return fmt.Errorf("%s: ambiguous redirect", target)

	case syntax.RedirDupIn:
		if target == "-" || target == "0" {
			return nil
		}
		return fmt.Errorf("%s: bad file descriptor", target)
	}
	return fmt.Errorf("unsupported redirection")
}

func (r *Runner) streamFor(fd int) (io.Writer, error) {
	switch fd {
	case 1:
		return r.stdout, nil
	case 2:
		return r.stderr, nil
	}
	return nil, fmt.Errorf("%d: bad file descriptor", fd)
}

func (r *Runner) routeOut(fd int, w io.Writer) error {
	switch fd {
	case -1, 1:
		r.stdout = w
	case 2:
		r.stderr = w
	default:
		return fmt.Errorf("%d: bad file descriptor", fd)
	}
	return nil
}

// openTarget opens a redirection target for writing.
func (r *Runner) openTarget(target string, appendTo, clobber bool) (io.WriteCloser, error) {
	path := vfs.Resolve(r.cwd, target)
	flags := os.O_WRONLY | os.O_CREATE
	if appendTo {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	if r.opts.noClobber && !appendTo && !clobber {
		if exists, _ := r.fs.Exists(path); exists {
			if fi, err := r.fs.Stat(path); err == nil && !fi.IsDir() {
				return nil, fmt.Errorf("%s: cannot overwrite existing file", target)
			}
		}
	}
	fd, err := r.fs.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}
	return fd, nil
}
