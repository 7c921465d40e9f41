package interp

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/josephlewis42/sandsh/core/expand"
	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/vfs"
)

// evalTest evaluates a [[ ]] conditional expression.
func (r *Runner) evalTest(x syntax.TestExpr) (bool, error) {
	switch e := x.(type) {
	case *syntax.TestWord:
		val, err := r.literal(e.X)
		if err != nil {
			return false, err
		}
		return val != "", nil

	case *syntax.TestNot:
		ok, err := r.evalTest(e.X)
		return !ok, err

	case *syntax.TestParen:
		return r.evalTest(e.X)

	case *syntax.TestAnd:
		ok, err := r.evalTest(e.X)
		if err != nil || !ok {
			return false, err
		}
		return r.evalTest(e.Y)

	case *syntax.TestOr:
		ok, err := r.evalTest(e.X)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		return r.evalTest(e.Y)

	case *syntax.TestUnary:
		val, err := r.literal(e.X)
		if err != nil {
			return false, err
		}
		return r.testUnary(e.Op, val)

	case *syntax.TestBinary:
		lhs, err := r.literal(e.X)
		if err != nil {
			return false, err
		}
		switch e.Op {
		case "==", "=", "!=":
			pat, err := expand.Pattern(r.expandCfg(), e.Y)
			if err != nil {
				return false, err
			}
			matched := expand.Match(pat, lhs)
			if e.Op == "!=" {
				return !matched, nil
			}
			return matched, nil
		case "=~":
			pat, err := r.literal(e.Y)
			if err != nil {
				return false, err
			}
			re, reErr := regexp.CompilePOSIX(pat)
			if reErr != nil {
				return false, fmt.Errorf("invalid regex %q", pat)
			}
			return re.MatchString(lhs), nil
		}
		rhs, err := r.literal(e.Y)
		if err != nil {
			return false, err
		}
		return r.testBinary(e.Op, lhs, rhs)

	default:
		return false, fmt.Errorf("unknown conditional %T", x)
	}
}

func (r *Runner) testUnary(op, val string) (bool, error) {
	switch op {
	case "-z":
		return val == "", nil
	case "-n":
		return val != "", nil
	case "-v":
		_, ok := r.getVarString(val)
		return ok, nil
	case "-o":
		switch val {
		case "errexit":
			return r.opts.errExit, nil
		case "nounset":
			return r.opts.noUnset, nil
		case "pipefail":
			return r.opts.pipeFail, nil
		case "noclobber":
			return r.opts.noClobber, nil
		case "xtrace":
			return r.opts.xtrace, nil
		}
		return false, nil
	}

	path := vfs.Resolve(r.cwd, val)
	switch op {
	case "-e", "-a":
		exists, err := r.fs.Exists(path)
		return exists && err == nil, nil
	case "-f":
		fi, err := r.fs.Stat(path)
		return err == nil && fi.Mode().IsRegular(), nil
	case "-d":
		fi, err := r.fs.Stat(path)
		return err == nil && fi.IsDir(), nil
	case "-h", "-L":
		fi, err := r.fs.Lstat(path)
		return err == nil && fi.Mode()&fs.ModeSymlink != 0, nil
	case "-s":
		fi, err := r.fs.Stat(path)
		return err == nil && fi.Size() > 0, nil
	case "-r", "-w":
		exists, err := r.fs.Exists(path)
		return exists && err == nil, nil
	case "-x":
		fi, err := r.fs.Stat(path)
		return err == nil && (fi.IsDir() || fi.Mode()&0111 != 0), nil
	case "-N", "-O", "-G":
		exists, err := r.fs.Exists(path)
		return exists && err == nil, nil
	case "-b", "-c", "-g", "-k", "-p", "-S", "-t", "-u":
		// Device, socket and terminal tests never hold in the
		// sandbox.
		return false, nil
	}
	return false, fmt.Errorf("%s: unary operator expected", op)
}

func (r *Runner) testBinary(op, lhs, rhs string) (bool, error) {
	switch op {
	case "<":
		return lhs < rhs, nil
	case ">":
		return lhs > rhs, nil
	case "-nt", "-ot":
		l, lerr := r.fs.Stat(vfs.Resolve(r.cwd, lhs))
		rh, rerr := r.fs.Stat(vfs.Resolve(r.cwd, rhs))
		if lerr != nil || rerr != nil {
			return false, nil
		}
		if op == "-nt" {
			return l.ModTime().After(rh.ModTime()), nil
		}
		return l.ModTime().Before(rh.ModTime()), nil
	case "-ef":
		l, lerr := r.fs.Realpath(vfs.Resolve(r.cwd, lhs))
		rh, rerr := r.fs.Realpath(vfs.Resolve(r.cwd, rhs))
		return lerr == nil && rerr == nil && l == rh, nil
	}

	// Numeric comparisons accept arithmetic expressions.
	ln, err := expand.Arith(r.expandCfg(), lhs)
	if err != nil {
		return false, err
	}
	rn, err := expand.Arith(r.expandCfg(), rhs)
	if err != nil {
		return false, err
	}
	switch op {
	case "-eq":
		return ln == rn, nil
	case "-ne":
		return ln != rn, nil
	case "-lt":
		return ln < rn, nil
	case "-le":
		return ln <= rn, nil
	case "-gt":
		return ln > rn, nil
	case "-ge":
		return ln >= rn, nil
	}
	return false, fmt.Errorf("%s: binary operator expected", op)
}

// builtinTest implements test and [ over already expanded arguments.
func builtinTest(r *Runner, name string, args []string) (int, error) {
	if name == "[" {
		if len(args) == 0 || args[len(args)-1] != "]" {
			r.diag(name, "missing `]'")
			return ExitUsage, nil
		}
		args = args[:len(args)-1]
	}
	if len(args) == 0 {
		return 1, nil
	}
	p := &testParser{r: r, args: args}
	ok, err := p.or()
	if err != nil || p.pos != len(p.args) {
		r.diag(name, "syntax error in expression")
		return ExitUsage, nil
	}
	if ok {
		return 0, nil
	}
	return 1, nil
}

// testParser evaluates the classic test grammar over argument lists.
type testParser struct {
	r    *Runner
	args []string
	pos  int
}

func (p *testParser) peek() string {
	if p.pos >= len(p.args) {
		return ""
	}
	return p.args[p.pos]
}

func (p *testParser) next() string {
	arg := p.peek()
	p.pos++
	return arg
}

func (p *testParser) or() (bool, error) {
	ok, err := p.and()
	if err != nil {
		return false, err
	}
	for p.peek() == "-o" {
		p.next()
		rhs, err := p.and()
		if err != nil {
			return false, err
		}
		ok = ok || rhs
	}
	return ok, nil
}

func (p *testParser) and() (bool, error) {
	ok, err := p.not()
	if err != nil {
		return false, err
	}
	for p.peek() == "-a" {
		p.next()
		rhs, err := p.not()
		if err != nil {
			return false, err
		}
		ok = ok && rhs
	}
	return ok, nil
}

func (p *testParser) not() (bool, error) {
	if p.peek() == "!" {
		p.next()
		ok, err := p.not()
		return !ok, err
	}
	return p.primary()
}

var testBinaryArgOps = map[string]bool{
	"=": true, "==": true, "!=": true, "<": true, ">": true,
	"-eq": true, "-ne": true, "-lt": true, "-le": true, "-gt": true,
	"-ge": true, "-nt": true, "-ot": true, "-ef": true,
}

func (p *testParser) primary() (bool, error) {
	if p.pos >= len(p.args) {
		return false, fmt.Errorf("argument expected")
	}
	if p.peek() == "(" {
		p.next()
		ok, err := p.or()
		if err != nil {
			return false, err
		}
		if p.next() != ")" {
			return false, fmt.Errorf("expected )")
		}
		return ok, nil
	}

	arg := p.next()
	if strings.HasPrefix(arg, "-") && len(arg) == 2 && p.pos < len(p.args) {
		return p.r.testUnary(arg, p.next())
	}
	if testBinaryArgOps[p.peek()] {
		op := p.next()
		if p.pos >= len(p.args) {
			return false, fmt.Errorf("argument expected after %s", op)
		}
		rhs := p.next()
		switch op {
		case "=", "==":
			return arg == rhs, nil
		case "!=":
			return arg != rhs, nil
		}
		return p.r.testBinary(op, arg, rhs)
	}
	return arg != "", nil
}
