package interp_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/sandsh/commands"
	"github.com/josephlewis42/sandsh/core/interp"
	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/vfs"
)

type runResult struct {
	stdout string
	stderr string
	code   int
}

func run(t *testing.T, files map[string]string, script string) runResult {
	t.Helper()
	fs := vfs.NewMemFS(func() time.Time {
		return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
	})
	seed := make(map[string]*vfs.MapFile, len(files))
	for path, contents := range files {
		seed[path] = &vfs.MapFile{Data: []byte(contents)}
	}
	require.NoError(t, fs.Seed(seed))
	require.NoError(t, fs.Mkdir("/tmp", true, 0777))

	parsed, err := syntax.Parse(script, "test.sh")
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	registry := commands.Default()
	runner := interp.NewRunner(interp.Options{
		FS:     fs,
		Cwd:    "/",
		PID:    1,
		Lookup: registry.Lookup,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	code := runner.Run(context.Background(), parsed)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func TestSimpleEcho(t *testing.T) {
	got := run(t, nil, "echo hello world")
	assert.Equal(t, "hello world\n", got.stdout)
	assert.Equal(t, 0, got.code)
}

func TestVariableAssignmentAndExpansion(t *testing.T) {
	got := run(t, nil, "X=abc; echo $X ${X}def")
	assert.Equal(t, "abc abcdef\n", got.stdout)
}

func TestCommandNotFound(t *testing.T) {
	got := run(t, nil, "no_such_command_xyz")
	assert.Equal(t, 127, got.code)
	assert.Contains(t, got.stderr, "command not found")
}

func TestPipelineBuffering(t *testing.T) {
	got := run(t, map[string]string{"/f.txt": "b\na\nc\n"}, "cat /f.txt | sort | head -n 2")
	assert.Equal(t, "a\nb\n", got.stdout)
}

func TestPipelineStderrPassthrough(t *testing.T) {
	got := run(t, nil, "ls /no_such | cat")
	assert.Equal(t, "", got.stdout)
	assert.Contains(t, got.stderr, "No such file")
	assert.Equal(t, 0, got.code)
}

func TestPipelineStderrMerge(t *testing.T) {
	got := run(t, nil, "ls /no_such |& cat")
	assert.Contains(t, got.stdout, "No such file")
	assert.Equal(t, "", got.stderr)
}

func TestPipestatus(t *testing.T) {
	got := run(t, nil, "true | false | true; echo ${PIPESTATUS[0]} ${PIPESTATUS[1]} ${PIPESTATUS[2]}")
	assert.Equal(t, "0 1 0\n", got.stdout)
}

func TestPipefail(t *testing.T) {
	got := run(t, nil, "set -o pipefail; false | true")
	assert.Equal(t, 1, got.code)

	got = run(t, nil, "false | true")
	assert.Equal(t, 0, got.code)
}

func TestNegation(t *testing.T) {
	assert.Equal(t, 1, run(t, nil, "! true").code)
	assert.Equal(t, 0, run(t, nil, "! false").code)
}

func TestAndOrOperators(t *testing.T) {
	got := run(t, nil, "true && echo yes || echo no")
	assert.Equal(t, "yes\n", got.stdout)
	got = run(t, nil, "false && echo yes || echo no")
	assert.Equal(t, "no\n", got.stdout)
}

func TestSubshellIsolation(t *testing.T) {
	got := run(t, nil, "X=outer; (X=inner; echo $X); echo $X")
	assert.Equal(t, "inner\nouter\n", got.stdout)
}

func TestPipelineStateIsolation(t *testing.T) {
	got := run(t, nil, "X=start; echo hi | X=changed cat; echo $X")
	assert.Equal(t, "hi\nstart\n", got.stdout)
}

func TestCommandSubstitutionIsolation(t *testing.T) {
	got := run(t, nil, "X=outer; Y=$(X=inner; echo $X); echo $Y $X")
	assert.Equal(t, "inner outer\n", got.stdout)
}

func TestIfElse(t *testing.T) {
	got := run(t, nil, "if true; then echo t; else echo f; fi")
	assert.Equal(t, "t\n", got.stdout)
	got = run(t, nil, "if false; then echo t; elif true; then echo e; else echo f; fi")
	assert.Equal(t, "e\n", got.stdout)
	got = run(t, nil, "if false; then echo t; fi")
	assert.Equal(t, 0, got.code)
}

func TestForLoop(t *testing.T) {
	got := run(t, nil, "for i in 3 1 2; do echo $i; done")
	assert.Equal(t, "3\n1\n2\n", got.stdout)
}

func TestForLoopPipedToSort(t *testing.T) {
	got := run(t, nil, "for i in 3 1 2; do echo $i; done | sort")
	assert.Equal(t, "1\n2\n3\n", got.stdout)
}

func TestWhileLoop(t *testing.T) {
	got := run(t, nil, "i=0; while (( i < 3 )); do echo $i; i=$((i+1)); done")
	assert.Equal(t, "0\n1\n2\n", got.stdout)
}

func TestUntilLoop(t *testing.T) {
	got := run(t, nil, "i=0; until (( i >= 3 )); do echo $i; i=$((i+1)); done")
	assert.Equal(t, "0\n1\n2\n", got.stdout)
}

func TestBreakContinue(t *testing.T) {
	got := run(t, nil, "for i in 1 2 3 4; do if [[ $i == 3 ]]; then break; fi; echo $i; done")
	assert.Equal(t, "1\n2\n", got.stdout)

	got = run(t, nil, "for i in 1 2 3; do if [[ $i == 2 ]]; then continue; fi; echo $i; done")
	assert.Equal(t, "1\n3\n", got.stdout)

	got = run(t, nil, "for i in 1 2; do for j in a b; do break 2; done; echo inner; done; echo done")
	assert.Equal(t, "done\n", got.stdout)
}

func TestCaseMatching(t *testing.T) {
	script := `case $1 in
	a*) echo glob ;;
	literal) echo lit ;;
	*) echo default ;;
esac`
	got := run(t, nil, "set -- abc; "+script)
	assert.Equal(t, "glob\n", got.stdout)
	got = run(t, nil, "set -- literal; "+script)
	assert.Equal(t, "lit\n", got.stdout)
	got = run(t, nil, "set -- zzz; "+script)
	assert.Equal(t, "default\n", got.stdout)
}

func TestCaseFallthrough(t *testing.T) {
	got := run(t, nil, "case a in\na) echo one ;&\nb) echo two ;;\nc) echo three ;;\nesac")
	assert.Equal(t, "one\ntwo\n", got.stdout)
}

func TestCaseResumeMatching(t *testing.T) {
	got := run(t, nil, "case abc in\na*) echo first ;;&\n*c) echo second ;;\nzz) echo no ;;\nesac")
	assert.Equal(t, "first\nsecond\n", got.stdout)
}

func TestFunctions(t *testing.T) {
	got := run(t, nil, "greet() { echo hello $1; }; greet world")
	assert.Equal(t, "hello world\n", got.stdout)
}

func TestFunctionReturnCode(t *testing.T) {
	got := run(t, nil, "f() { return 3; }; f; echo $?")
	assert.Equal(t, "3\n", got.stdout)
}

func TestFunctionLocalScope(t *testing.T) {
	got := run(t, nil, "x=global; f() { local x=local; echo $x; }; f; echo $x")
	assert.Equal(t, "local\nglobal\n", got.stdout)
}

func TestFunctionDynamicScope(t *testing.T) {
	got := run(t, nil, "f() { echo $v; }; g() { local v=dynamic; f; }; g")
	assert.Equal(t, "dynamic\n", got.stdout)
}

func TestArithmeticCommand(t *testing.T) {
	assert.Equal(t, 0, run(t, nil, "(( 1 + 1 ))").code)
	assert.Equal(t, 1, run(t, nil, "(( 0 ))").code)
}

func TestConditionalCommand(t *testing.T) {
	files := map[string]string{"/etc/passwd": "root:x:0:0\n"}
	assert.Equal(t, 0, run(t, files, "[[ -f /etc/passwd ]]").code)
	assert.Equal(t, 1, run(t, files, "[[ -d /etc/passwd ]]").code)
	assert.Equal(t, 0, run(t, files, "[[ abc == a* ]]").code)
	assert.Equal(t, 0, run(t, files, "[[ abc =~ ^a.c$ ]]").code)
	assert.Equal(t, 1, run(t, files, "[[ -z abc ]]").code)
	assert.Equal(t, 0, run(t, files, "[[ 3 -lt 10 ]]").code)
	assert.Equal(t, 0, run(t, files, "[[ -f /etc/passwd && 2 -gt 1 ]]").code)
}

func TestTestBuiltin(t *testing.T) {
	assert.Equal(t, 0, run(t, nil, "[ abc = abc ]").code)
	assert.Equal(t, 1, run(t, nil, "[ abc = def ]").code)
	assert.Equal(t, 0, run(t, nil, "test 5 -gt 3").code)
	assert.Equal(t, 0, run(t, nil, "[ -n x -a 1 -lt 2 ]").code)
}

func TestRedirections(t *testing.T) {
	got := run(t, nil, "echo -n X > /f; cat /f")
	assert.Equal(t, "X", got.stdout)

	got = run(t, nil, "echo one > /f; echo two >> /f; cat /f")
	assert.Equal(t, "one\ntwo\n", got.stdout)

	got = run(t, map[string]string{"/in.txt": "from file\n"}, "cat < /in.txt")
	assert.Equal(t, "from file\n", got.stdout)

	got = run(t, nil, "ls /nope 2> /err; cat /err")
	assert.Contains(t, got.stdout, "No such file")
	assert.Equal(t, "", got.stderr)

	got = run(t, nil, "ls /nope 2>&1 | cat")
	assert.Contains(t, got.stdout, "No such file")

	got = run(t, nil, "ls /nope &> /all; cat /all")
	assert.Contains(t, got.stdout, "No such file")
}

func TestNoclobber(t *testing.T) {
	got := run(t, nil, "set -C; echo a > /f; echo b > /f; echo $?; cat /f")
	assert.Contains(t, got.stderr, "cannot overwrite")
	assert.Contains(t, got.stdout, "a\n")

	got = run(t, nil, "set -C; echo a > /f; echo b >| /f; cat /f")
	assert.Equal(t, "b\n", got.stdout)
}

func TestHeredoc(t *testing.T) {
	got := run(t, nil, "X=world\ncat <<EOF\nhello $X\nEOF")
	assert.Equal(t, "hello world\n", got.stdout)

	got = run(t, nil, "X=world\ncat <<'EOF'\nhello $X\nEOF")
	assert.Equal(t, "hello $X\n", got.stdout)

	got = run(t, nil, "cat <<-EOF\n\tstripped\n\tEOF")
	assert.Equal(t, "stripped\n", got.stdout)
}

func TestHereString(t *testing.T) {
	got := run(t, nil, "cat <<< hello")
	assert.Equal(t, "hello\n", got.stdout)
}

func TestErrexit(t *testing.T) {
	got := run(t, nil, "set -e; false; echo unreachable")
	assert.Equal(t, 1, got.code)
	assert.Equal(t, "", got.stdout)

	// Guards and negations stay inert.
	got = run(t, nil, "set -e; if false; then echo t; fi; echo after")
	assert.Equal(t, "after\n", got.stdout)
	got = run(t, nil, "set -e; false || true; echo after")
	assert.Equal(t, "after\n", got.stdout)
	got = run(t, nil, "set -e; ! false; echo after")
	assert.Equal(t, "after\n", got.stdout)
}

func TestNounset(t *testing.T) {
	got := run(t, nil, "set -u; echo $missing")
	assert.Equal(t, 2, got.code)
	assert.Contains(t, got.stderr, "unbound variable")

	got = run(t, nil, "echo ${missing}ok")
	assert.Equal(t, "ok\n", got.stdout)
}

func TestExitCodeParam(t *testing.T) {
	got := run(t, nil, "false; echo $?; true; echo $?")
	assert.Equal(t, "1\n0\n", got.stdout)
}

func TestPidParam(t *testing.T) {
	got := run(t, nil, "echo $$")
	assert.Equal(t, "1\n", got.stdout)
}

func TestExitBuiltin(t *testing.T) {
	got := run(t, nil, "echo before; exit 7; echo after")
	assert.Equal(t, "before\n", got.stdout)
	assert.Equal(t, 7, got.code)
}

func TestExitInsidePipelineStage(t *testing.T) {
	got := run(t, nil, "exit 3 | true; echo survived $?")
	assert.Equal(t, "survived 0\n", got.stdout)
}

func TestShiftAndPositional(t *testing.T) {
	got := run(t, nil, "set -- a b c; echo $1 $#; shift; echo $1 $#")
	assert.Equal(t, "a 3\nb 2\n", got.stdout)
}

func TestDeclareAssocArray(t *testing.T) {
	got := run(t, nil, "declare -A m; m[a]=1; m[b]=2; echo ${m[a]} ${m[b]}")
	assert.Equal(t, "1 2\n", got.stdout)
}

func TestIndexedArray(t *testing.T) {
	got := run(t, nil, "a[0]=zero; a[2]=two; echo ${a[0]} ${a[2]} ${#a[@]}")
	assert.Equal(t, "zero two 3\n", got.stdout)

	got = run(t, nil, "a[0]=x; a[1]=y; echo ${a[@]}")
	assert.Equal(t, "x y\n", got.stdout)
}

func TestBackgroundRunsToCompletion(t *testing.T) {
	got := run(t, nil, "echo bg > /f &\ncat /f")
	assert.Equal(t, 0, got.code)
	assert.Equal(t, "bg\n", got.stdout)
}

func TestEvalBuiltin(t *testing.T) {
	got := run(t, nil, `cmd="echo evald"; eval $cmd`)
	assert.Equal(t, "evald\n", got.stdout)
}

func TestSourceBuiltin(t *testing.T) {
	files := map[string]string{"/lib.sh": "libfn() { echo from lib; }\nLIBVAR=set\n"}
	got := run(t, files, "source /lib.sh; libfn; echo $LIBVAR")
	assert.Equal(t, "from lib\nset\n", got.stdout)
}

func TestCdAndPwd(t *testing.T) {
	files := map[string]string{"/home/user/f.txt": "x"}
	got := run(t, files, "cd /home/user; pwd; echo $PWD")
	assert.Equal(t, "/home/user\n/home/user\n", got.stdout)

	got = run(t, files, "cd /no/such/dir")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, "No such file")
}

func TestReadBuiltin(t *testing.T) {
	got := run(t, nil, "echo 'a b c' | { read x y; echo \"x=$x y=$y\"; }")
	assert.Equal(t, "x=a y=b c\n", got.stdout)
}

func TestCommandSubstitutionWc(t *testing.T) {
	got := run(t, nil, `echo "count: $(echo -e 'a\nb\nc' | wc -l)"`)
	assert.Equal(t, "count: 3\n", got.stdout)
}

func TestGrepExitCodes(t *testing.T) {
	got := run(t, nil, "echo hello | grep nomatch")
	assert.Equal(t, "", got.stdout)
	assert.Equal(t, 1, got.code)

	got = run(t, map[string]string{"/data/f.txt": "hello\n"}, "cat /data/f.txt | grep hello")
	assert.Equal(t, "hello\n", got.stdout)
	assert.Equal(t, 0, got.code)
}

func TestGlobbingInCommands(t *testing.T) {
	files := map[string]string{
		"/work/a.txt": "", "/work/b.txt": "", "/work/c.log": "",
	}
	got := run(t, files, "cd /work; echo *.txt")
	assert.Equal(t, "a.txt b.txt\n", got.stdout)

	got = run(t, files, "cd /work; echo *.nope")
	assert.Equal(t, "*.nope\n", got.stdout)

	got = run(t, files, "cd /work; shopt -s nullglob; echo *.nope done")
	assert.Equal(t, "done\n", got.stdout)

	got = run(t, files, "cd /work; shopt -s failglob; echo *.nope")
	assert.Equal(t, 1, got.code)
}

func TestXargsReentersShell(t *testing.T) {
	got := run(t, nil, "echo 'a b c' | xargs -n 1 echo item")
	assert.Equal(t, "item a\nitem b\nitem c\n", got.stdout)
}

func TestProcessSubstitutionInput(t *testing.T) {
	got := run(t, nil, "cat <(echo generated)")
	assert.Equal(t, "generated\n", got.stdout)
}

func TestCancellation(t *testing.T) {
	fs := vfs.NewMemFS(nil)
	parsed, err := syntax.Parse("echo one; echo two", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	registry := commands.Default()
	runner := interp.NewRunner(interp.Options{
		FS:     fs,
		Lookup: registry.Lookup,
		Stdout: &stdout,
	})
	code := runner.Run(ctx, parsed)
	assert.Equal(t, interp.ExitCancelled, code)
}

func TestTypeBuiltin(t *testing.T) {
	got := run(t, nil, "type cd; type cat; f() { :; }; type f")
	assert.Contains(t, got.stdout, "cd is a shell builtin")
	assert.Contains(t, got.stdout, "cat is /usr/bin/cat")
	assert.Contains(t, got.stdout, "f is a function")
}

func TestExportVisibility(t *testing.T) {
	got := run(t, nil, "export SEEN=yes; HIDDEN=no; env | grep -c SEEN; env | grep -c HIDDEN")
	assert.Equal(t, "1\n0\n", got.stdout)
}
