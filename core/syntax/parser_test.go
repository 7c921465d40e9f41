package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) *Script {
	t.Helper()
	script, err := Parse(src, "test.sh")
	require.NoError(t, err, "parse %q", src)
	return script
}

func firstSimple(t *testing.T, script *Script) *SimpleCommand {
	t.Helper()
	require.NotEmpty(t, script.Stmts)
	cmd, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*SimpleCommand)
	require.True(t, ok, "expected simple command, got %T", script.Stmts[0].Pipelines[0].Cmds[0])
	return cmd
}

func TestParseSimpleCommand(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "echo hello world"))
	name, _ := cmd.Name.Lit()
	assert.Equal(t, "echo", name)
	require.Len(t, cmd.Args, 2)
	arg0, _ := cmd.Args[0].Lit()
	arg1, _ := cmd.Args[1].Lit()
	assert.Equal(t, "hello", arg0)
	assert.Equal(t, "world", arg1)
}

func TestParseAssignments(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "X=1 Y=two env"))
	require.Len(t, cmd.Assigns, 2)
	assert.Equal(t, "X", cmd.Assigns[0].Name)
	assert.Equal(t, "Y", cmd.Assigns[1].Name)
	name, _ := cmd.Name.Lit()
	assert.Equal(t, "env", name)
}

func TestParseAssignmentOnly(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "X=1"))
	assert.Nil(t, cmd.Name)
	require.Len(t, cmd.Assigns, 1)
	value, _ := cmd.Assigns[0].Value.Lit()
	assert.Equal(t, "1", value)
}

func TestParseArraySubscriptAssignment(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "m[a]=1"))
	require.Len(t, cmd.Assigns, 1)
	assert.Equal(t, "m", cmd.Assigns[0].Name)
	idx, _ := cmd.Assigns[0].Index.Lit()
	assert.Equal(t, "a", idx)
}

func TestParsePipelineOperators(t *testing.T) {
	script := parseOne(t, "a | b |& c")
	pl := script.Stmts[0].Pipelines[0]
	require.Len(t, pl.Cmds, 3)
	assert.Equal(t, []bool{false, true}, pl.MergeStderr)
}

func TestParseAndOrChain(t *testing.T) {
	script := parseOne(t, "a && b || c")
	st := script.Stmts[0]
	require.Len(t, st.Pipelines, 3)
	assert.Equal(t, []AndOrOp{AndOp, OrOp}, st.Ops)
}

func TestParseNegation(t *testing.T) {
	script := parseOne(t, "! grep x f")
	assert.True(t, script.Stmts[0].Pipelines[0].Negated)
}

func TestParseBackground(t *testing.T) {
	script := parseOne(t, "sleep 5 &")
	assert.True(t, script.Stmts[0].Background)
}

func TestParseRedirections(t *testing.T) {
	cases := []struct {
		src string
		op  RedirOp
		fd  int
	}{
		{"x > f", RedirOut, -1},
		{"x >> f", RedirAppend, -1},
		{"x >| f", RedirClobber, -1},
		{"x < f", RedirIn, -1},
		{"x 2> f", RedirOut, 2},
		{"x 2>&1", RedirDupOut, 2},
		{"x &> f", RedirAll, -1},
		{"x &>> f", RedirAllAppend, -1},
		{"x <<< word", RedirHereString, -1},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			cmd := firstSimple(t, parseOne(t, tc.src))
			require.Len(t, cmd.Redirs, 1)
			assert.Equal(t, tc.op, cmd.Redirs[0].Op)
			assert.Equal(t, tc.fd, cmd.Redirs[0].Fd)
		})
	}
}

func TestParseHeredoc(t *testing.T) {
	script := parseOne(t, "cat <<EOF\nline one\nline two\nEOF\necho done\n")
	cmd := firstSimple(t, script)
	require.Len(t, cmd.Redirs, 1)
	redir := cmd.Redirs[0]
	assert.Equal(t, RedirHeredoc, redir.Op)
	assert.Equal(t, "line one\nline two\n", redir.Heredoc)
	assert.False(t, redir.HeredocQuoted)
	require.Len(t, script.Stmts, 2)
}

func TestParseHeredocQuotedDelimiter(t *testing.T) {
	script := parseOne(t, "cat <<'EOF'\n$not_expanded\nEOF\n")
	redir := firstSimple(t, script).Redirs[0]
	assert.True(t, redir.HeredocQuoted)
	assert.Equal(t, "$not_expanded\n", redir.Heredoc)
}

func TestParseHeredocTabStripping(t *testing.T) {
	script := parseOne(t, "cat <<-EOF\n\tindented\n\tEOF\n")
	redir := firstSimple(t, script).Redirs[0]
	assert.Equal(t, RedirHeredocStrip, redir.Op)
	assert.Equal(t, "indented\n", redir.Heredoc)
}

func TestParseIfElifElse(t *testing.T) {
	script := parseOne(t, "if a; then b; elif c; then d; else e; fi")
	clause, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*IfClause)
	require.True(t, ok)
	assert.Len(t, clause.Cond, 1)
	assert.Len(t, clause.Then, 1)
	assert.Len(t, clause.Elifs, 1)
	assert.Len(t, clause.Else, 1)
}

func TestParseForLoop(t *testing.T) {
	script := parseOne(t, "for i in 1 2 3; do echo $i; done")
	clause, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*ForClause)
	require.True(t, ok)
	assert.Equal(t, "i", clause.Name)
	assert.True(t, clause.HasIn)
	assert.Len(t, clause.Words, 3)
	assert.Len(t, clause.Body, 1)
}

func TestParseWhileUntil(t *testing.T) {
	script := parseOne(t, "while a; do b; done")
	while, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*WhileClause)
	require.True(t, ok)
	assert.False(t, while.Until)

	script = parseOne(t, "until a; do b; done")
	until, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*WhileClause)
	require.True(t, ok)
	assert.True(t, until.Until)
}

func TestParseCase(t *testing.T) {
	script := parseOne(t, `case $x in
	a|b) echo ab ;;
	c) echo c ;&
	d) echo d ;;&
	*) echo other ;;
esac`)
	clause, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*CaseClause)
	require.True(t, ok)
	require.Len(t, clause.Items, 4)
	assert.Len(t, clause.Items[0].Patterns, 2)
	assert.Equal(t, CaseBreak, clause.Items[0].Term)
	assert.Equal(t, CaseFallthrough, clause.Items[1].Term)
	assert.Equal(t, CaseResume, clause.Items[2].Term)
}

func TestParseSubshellAndGroup(t *testing.T) {
	script := parseOne(t, "(a; b)")
	_, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*Subshell)
	assert.True(t, ok)

	script = parseOne(t, "{ a; b; }")
	_, ok = script.Stmts[0].Pipelines[0].Cmds[0].(*Block)
	assert.True(t, ok)
}

func TestParseFunctionForms(t *testing.T) {
	script := parseOne(t, "greet() { echo hi; }")
	fn, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "greet", fn.Name)

	script = parseOne(t, "function greet { echo hi; }")
	fn, ok = script.Stmts[0].Pipelines[0].Cmds[0].(*FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "greet", fn.Name)
}

func TestParseArithCommand(t *testing.T) {
	script := parseOne(t, "(( x > 2 ))")
	arith, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*ArithCmd)
	require.True(t, ok)
	assert.Equal(t, "x > 2", arith.Expr)
}

func TestParseTestClause(t *testing.T) {
	script := parseOne(t, "[[ -f /etc/passwd && $x == a* ]]")
	clause, ok := script.Stmts[0].Pipelines[0].Cmds[0].(*TestClause)
	require.True(t, ok)
	and, ok := clause.Expr.(*TestAnd)
	require.True(t, ok)
	unary, ok := and.X.(*TestUnary)
	require.True(t, ok)
	assert.Equal(t, "-f", unary.Op)
	binary, ok := and.Y.(*TestBinary)
	require.True(t, ok)
	assert.Equal(t, "==", binary.Op)
}

func TestParseWordParts(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, `echo 'single' "double $x" $y $(run) $((1+2)) ~root`))
	require.Len(t, cmd.Args, 6)

	_, ok := cmd.Args[0].Parts[0].(*SglQuoted)
	assert.True(t, ok, "single quoted")
	_, ok = cmd.Args[1].Parts[0].(*DblQuoted)
	assert.True(t, ok, "double quoted")
	_, ok = cmd.Args[2].Parts[0].(*ParamExp)
	assert.True(t, ok, "parameter")
	_, ok = cmd.Args[3].Parts[0].(*CmdSubst)
	assert.True(t, ok, "command substitution")
	arith, ok := cmd.Args[4].Parts[0].(*ArithExp)
	require.True(t, ok, "arithmetic")
	assert.Equal(t, "1+2", arith.Expr)
	tilde, ok := cmd.Args[5].Parts[0].(*TildeExp)
	require.True(t, ok, "tilde")
	assert.Equal(t, "root", tilde.User)
}

func TestParseParamExpOps(t *testing.T) {
	cases := map[string]func(*ParamExp){
		"${x:-d}": func(pe *ParamExp) {
			require.NotNil(t, pe.Exp)
			assert.Equal(t, DefaultUnsetOrNull, pe.Exp.Op)
		},
		"${x:=d}": func(pe *ParamExp) {
			require.NotNil(t, pe.Exp)
			assert.Equal(t, AssignUnsetOrNull, pe.Exp.Op)
		},
		"${x:?msg}": func(pe *ParamExp) {
			require.NotNil(t, pe.Exp)
			assert.Equal(t, ErrorUnsetOrNull, pe.Exp.Op)
		},
		"${#x}": func(pe *ParamExp) {
			assert.True(t, pe.Length)
		},
		"${x##*/}": func(pe *ParamExp) {
			require.NotNil(t, pe.Exp)
			assert.Equal(t, RemLargePrefix, pe.Exp.Op)
		},
		"${x%.txt}": func(pe *ParamExp) {
			require.NotNil(t, pe.Exp)
			assert.Equal(t, RemSmallSuffix, pe.Exp.Op)
		},
		"${x/a/b}": func(pe *ParamExp) {
			require.NotNil(t, pe.Repl)
			assert.False(t, pe.Repl.All)
		},
		"${x//a/b}": func(pe *ParamExp) {
			require.NotNil(t, pe.Repl)
			assert.True(t, pe.Repl.All)
		},
		"${x:1:2}": func(pe *ParamExp) {
			require.NotNil(t, pe.Slice)
			assert.Equal(t, "1", pe.Slice.Offset)
			assert.Equal(t, "2", pe.Slice.Length)
		},
		"${x[3]}": func(pe *ParamExp) {
			require.NotNil(t, pe.Index)
		},
		"${a[@]}": func(pe *ParamExp) {
			require.NotNil(t, pe.Index)
			idx, _ := pe.Index.Lit()
			assert.Equal(t, "@", idx)
		},
		"${!x}": func(pe *ParamExp) {
			assert.True(t, pe.Indirect)
		},
		"${!pre*}": func(pe *ParamExp) {
			assert.Equal(t, byte('*'), pe.NamesPrefix)
		},
		"${x^^}": func(pe *ParamExp) {
			require.NotNil(t, pe.Exp)
			assert.Equal(t, UpperAll, pe.Exp.Op)
		},
	}
	for src, check := range cases {
		t.Run(src, func(t *testing.T) {
			cmd := firstSimple(t, parseOne(t, "echo "+src))
			require.Len(t, cmd.Args, 1)
			pe, ok := cmd.Args[0].Parts[0].(*ParamExp)
			require.True(t, ok, "expected ParamExp, got %T", cmd.Args[0].Parts[0])
			check(pe)
		})
	}
}

func TestParseProcessSubstitution(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "diff <(sort a) >(cat)"))
	require.Len(t, cmd.Args, 2)
	in, ok := cmd.Args[0].Parts[0].(*ProcSubst)
	require.True(t, ok)
	assert.False(t, in.Output)
	out, ok := cmd.Args[1].Parts[0].(*ProcSubst)
	require.True(t, ok)
	assert.True(t, out.Output)
}

func TestParseBackquotes(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "echo `date`"))
	_, ok := cmd.Args[0].Parts[0].(*CmdSubst)
	assert.True(t, ok)
}

func TestParseComments(t *testing.T) {
	script := parseOne(t, "echo one # trailing\n# full line\necho two\n")
	assert.Len(t, script.Stmts, 2)
}

func TestParseLineContinuation(t *testing.T) {
	cmd := firstSimple(t, parseOne(t, "echo one \\\n two"))
	assert.Len(t, cmd.Args, 2)
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"echo 'unterminated",
		`echo "unterminated`,
		"if true; then echo",
		"while true; do echo",
		"case x in",
		"fi",
		"done",
		"cat <<EOF_NOT_CLOSED_ANYWHERE\nbody",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, "bad.sh")
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.NotZero(t, pe.Line)
		})
	}
}

func TestParseErrorHasPosition(t *testing.T) {
	_, err := Parse("echo ok\necho 'oops", "script.sh")
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, "script.sh", pe.Filename)
	assert.Equal(t, 2, pe.Line)
}
