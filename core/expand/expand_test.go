package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/sandsh/core/syntax"
)

// testConfig builds a Config over plain maps.
func testConfig(vars map[string]string) *Config {
	return &Config{
		GetVar: func(name string) (string, bool) {
			val, ok := vars[name]
			return val, ok
		},
		SetVar: func(name, value string) { vars[name] = value },
		HomeDir: func(user string) (string, bool) {
			if user == "" {
				return "/root", true
			}
			return "/home/" + user, true
		},
		IFS: " \t\n",
	}
}

func fieldsOf(t *testing.T, cfg *Config, src string) []string {
	t.Helper()
	script, err := syntax.Parse("x "+src, "expand-test")
	require.NoError(t, err)
	cmd := script.Stmts[0].Pipelines[0].Cmds[0].(*syntax.SimpleCommand)
	fields, err := Fields(cfg, cmd.Args...)
	require.NoError(t, err)
	return fields
}

func TestFieldSplitting(t *testing.T) {
	cfg := testConfig(map[string]string{
		"spaced": "one two  three",
		"empty":  "",
	})

	assert.Equal(t, []string{"one", "two", "three"}, fieldsOf(t, cfg, "$spaced"))
	assert.Equal(t, []string{"one two  three"}, fieldsOf(t, cfg, `"$spaced"`))
	// An unquoted empty expansion vanishes; a quoted one stays.
	assert.Empty(t, fieldsOf(t, cfg, "$empty"))
	assert.Equal(t, []string{""}, fieldsOf(t, cfg, `"$empty"`))
	// Adjacent text glues to the first and last fields.
	assert.Equal(t, []string{"Aone", "two", "threeB"}, fieldsOf(t, cfg, "A${spaced}B"))
}

func TestFieldSplittingCustomIFS(t *testing.T) {
	cfg := testConfig(map[string]string{"csv": "a:b::c"})
	cfg.IFS = ":"
	assert.Equal(t, []string{"a", "b", "", "c"}, fieldsOf(t, cfg, "$csv"))
}

func TestPositionalExpansion(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Positional = []string{"one", "two words", "three"}

	assert.Equal(t, []string{"one", "two", "words", "three"}, fieldsOf(t, cfg, "$@"))
	// "$@" preserves the original fields.
	assert.Equal(t, []string{"one", "two words", "three"}, fieldsOf(t, cfg, `"$@"`))
	// "$*" joins on the first IFS byte.
	assert.Equal(t, []string{"one two words three"}, fieldsOf(t, cfg, `"$*"`))
}

func TestDefaultAndAlternateOps(t *testing.T) {
	vars := map[string]string{"set": "value", "null": ""}
	cfg := testConfig(vars)

	assert.Equal(t, []string{"value"}, fieldsOf(t, cfg, "${set:-fallback}"))
	assert.Equal(t, []string{"fallback"}, fieldsOf(t, cfg, "${unset:-fallback}"))
	assert.Equal(t, []string{"fallback"}, fieldsOf(t, cfg, "${null:-fallback}"))
	assert.Empty(t, fieldsOf(t, cfg, "${null-fallback}"))

	assert.Equal(t, []string{"alt"}, fieldsOf(t, cfg, "${set:+alt}"))
	assert.Empty(t, fieldsOf(t, cfg, "${unset:+alt}"))

	// := assigns.
	assert.Equal(t, []string{"assigned"}, fieldsOf(t, cfg, "${newly:=assigned}"))
	assert.Equal(t, "assigned", vars["newly"])
}

func TestErrorOp(t *testing.T) {
	cfg := testConfig(nil)
	script, err := syntax.Parse("x ${gone:?is required}", "")
	require.NoError(t, err)
	cmd := script.Stmts[0].Pipelines[0].Cmds[0].(*syntax.SimpleCommand)
	_, err = Fields(cfg, cmd.Args...)
	require.Error(t, err)
	ee, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrUnset, ee.Kind)
	assert.Contains(t, ee.Msg, "is required")
}

func TestNoUnset(t *testing.T) {
	cfg := testConfig(nil)
	cfg.NoUnset = true

	script, err := syntax.Parse("x $missing", "")
	require.NoError(t, err)
	cmd := script.Stmts[0].Pipelines[0].Cmds[0].(*syntax.SimpleCommand)
	_, err = Fields(cfg, cmd.Args...)
	require.Error(t, err)
	assert.Equal(t, ErrUnset, err.(*Error).Kind)

	// ${missing:-d} is still fine.
	assert.Equal(t, []string{"d"}, fieldsOf(t, cfg, "${missing:-d}"))
}

func TestPatternOps(t *testing.T) {
	cfg := testConfig(map[string]string{
		"path": "/usr/local/bin/tool.txt",
		"word": "ababab",
	})

	assert.Equal(t, []string{"tool.txt"}, fieldsOf(t, cfg, "${path##*/}"))
	assert.Equal(t, []string{"local/bin/tool.txt"}, fieldsOf(t, cfg, "${path#*/*/}"))
	assert.Equal(t, []string{"/usr/local/bin/tool"}, fieldsOf(t, cfg, "${path%.txt}"))
	assert.Equal(t, []string{"/usr"}, fieldsOf(t, cfg, "${path%%/local*}"))

	assert.Equal(t, []string{"Xbab"}, fieldsOf(t, cfg, "${word/abab/X}"))
	assert.Equal(t, []string{"XXX"}, fieldsOf(t, cfg, "${word//ab/X}"))
	assert.Equal(t, []string{"Xabab"}, fieldsOf(t, cfg, "${word/#ab/X}"))
	assert.Equal(t, []string{"ababX"}, fieldsOf(t, cfg, "${word/%ab/X}"))
}

func TestSliceAndLength(t *testing.T) {
	cfg := testConfig(map[string]string{"s": "abcdefg"})

	assert.Equal(t, []string{"7"}, fieldsOf(t, cfg, "${#s}"))
	assert.Equal(t, []string{"cde"}, fieldsOf(t, cfg, "${s:2:3}"))
	assert.Equal(t, []string{"efg"}, fieldsOf(t, cfg, "${s:4}"))
	assert.Equal(t, []string{"fg"}, fieldsOf(t, cfg, "${s: -2}"))
}

func TestCaseConversion(t *testing.T) {
	cfg := testConfig(map[string]string{"w": "hello World"})

	assert.Equal(t, []string{"Hello", "World"}, fieldsOf(t, cfg, "${w^}"))
	assert.Equal(t, []string{"HELLO", "WORLD"}, fieldsOf(t, cfg, "${w^^}"))
	assert.Equal(t, []string{"hello", "world"}, fieldsOf(t, cfg, "${w,,}"))
}

func TestIndirection(t *testing.T) {
	cfg := testConfig(map[string]string{"ptr": "target", "target": "hit"})
	assert.Equal(t, []string{"hit"}, fieldsOf(t, cfg, "${!ptr}"))
}

func TestTildeExpansion(t *testing.T) {
	cfg := testConfig(nil)
	assert.Equal(t, []string{"/root"}, fieldsOf(t, cfg, "~"))
	assert.Equal(t, []string{"/home/alice/src"}, fieldsOf(t, cfg, "~alice/src"))
}

func TestCommandSubstitution(t *testing.T) {
	cfg := testConfig(nil)
	cfg.CmdSubst = func(script *syntax.Script) (string, error) {
		return "sub out\n\n", nil
	}
	// Trailing newlines trim; the rest splits.
	assert.Equal(t, []string{"sub", "out"}, fieldsOf(t, cfg, "$(anything)"))
	assert.Equal(t, []string{"sub out"}, fieldsOf(t, cfg, `"$(anything)"`))
}

func TestLiteralJoins(t *testing.T) {
	cfg := testConfig(map[string]string{"v": "a b"})
	script, err := syntax.Parse("x $v", "")
	require.NoError(t, err)
	cmd := script.Stmts[0].Pipelines[0].Cmds[0].(*syntax.SimpleCommand)
	out, err := Literal(cfg, cmd.Args[0])
	require.NoError(t, err)
	assert.Equal(t, "a b", out)
}

func TestBraceExpansionFields(t *testing.T) {
	cfg := testConfig(nil)
	assert.Equal(t, []string{"ab", "ac"}, fieldsOf(t, cfg, "a{b,c}"))
	assert.Equal(t, []string{"a1x", "a2x", "b1x", "b2x"}, fieldsOf(t, cfg, "{a,b}{1,2}x"))
	assert.Equal(t, []string{"1", "2", "3"}, fieldsOf(t, cfg, "{1..3}"))
	assert.Equal(t, []string{"5", "3", "1"}, fieldsOf(t, cfg, "{5..1..2}"))
	assert.Equal(t, []string{"a", "b", "c"}, fieldsOf(t, cfg, "{a..c}"))
	// Single-element and unmatched braces stay literal.
	assert.Equal(t, []string{"{a}"}, fieldsOf(t, cfg, "{a}"))
	assert.Equal(t, []string{"{a,b"}, fieldsOf(t, cfg, "{a,b"))
	// Nested groups.
	assert.Equal(t, []string{"xa", "xb1", "xb2"}, fieldsOf(t, cfg, "x{a,b{1,2}}"))
	// Quoted braces do not expand.
	assert.Equal(t, []string{"{a,b}"}, fieldsOf(t, cfg, "'{a,b}'"))
}
