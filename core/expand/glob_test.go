package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/sandsh/core/syntax"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"?", "a", true},
		{"?", "", false},
		{"a*c", "abc", true},
		{"a*c", "ac", true},
		{"a*c", "abd", false},
		{"*.txt", "note.txt", true},
		{"*.txt", "note.txt.bak", false},
		{"[abc]", "b", true},
		{"[abc]", "d", false},
		{"[!abc]", "d", true},
		{"[a-z]", "m", true},
		{"[a-z]", "M", false},
		{"[[:digit:]]", "5", true},
		{"[[:digit:]]", "x", false},
		{"[[:alpha:]]*", "word", true},
		{`\*`, "*", true},
		{`\*`, "x", false},
		{"a?c*", "abcdef", true},
	}
	for _, tc := range cases {
		t.Run(tc.pattern+"/"+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Match(tc.pattern, tc.name))
		})
	}
}

// Any literal name matches a pattern built by escaping it.
func TestMatchEscapedLiteral(t *testing.T) {
	for _, name := range []string{"plain", "we[ir]d*name?", `back\slash`, "dots..."} {
		assert.True(t, Match(escapeGlob(name), name), "literal %q", name)
	}
}

type dirTree map[string][]GlobEntry

func globConfig(tree dirTree) *Config {
	return &Config{
		ReadDir: func(dir string) []GlobEntry { return tree[dir] },
		Cwd:     "/work",
		IFS:     " \t\n",
	}
}

func globWords(t *testing.T, cfg *Config, src string) []string {
	t.Helper()
	script, err := syntax.Parse("x "+src, "")
	require.NoError(t, err)
	cmd := script.Stmts[0].Pipelines[0].Cmds[0].(*syntax.SimpleCommand)
	fields, err := Fields(cfg, cmd.Args...)
	require.NoError(t, err)
	return fields
}

func testTree() dirTree {
	return dirTree{
		"/work": {
			{Name: "alpha.txt"},
			{Name: "beta.txt"},
			{Name: "gamma.log"},
			{Name: ".hidden"},
			{Name: "sub", IsDir: true},
		},
		"/work/sub": {
			{Name: "inner.txt"},
		},
		"/": {
			{Name: "work", IsDir: true},
		},
	}
}

func TestGlobRelative(t *testing.T) {
	cfg := globConfig(testTree())
	assert.Equal(t, []string{"alpha.txt", "beta.txt"}, globWords(t, cfg, "*.txt"))
	assert.Equal(t, []string{"sub/inner.txt"}, globWords(t, cfg, "sub/*.txt"))
}

func TestGlobAbsolute(t *testing.T) {
	cfg := globConfig(testTree())
	assert.Equal(t, []string{"/work/gamma.log"}, globWords(t, cfg, "/work/*.log"))
}

func TestGlobHiddenFiles(t *testing.T) {
	cfg := globConfig(testTree())
	got := globWords(t, cfg, "*")
	assert.NotContains(t, got, ".hidden")
	assert.Contains(t, globWords(t, cfg, ".*"), ".hidden")
}

func TestGlobNoMatchModes(t *testing.T) {
	cfg := globConfig(testTree())

	// Default: the literal pattern survives.
	assert.Equal(t, []string{"*.nope"}, globWords(t, cfg, "*.nope"))

	cfg.NullGlob = true
	assert.Empty(t, globWords(t, cfg, "*.nope"))

	cfg.NullGlob = false
	cfg.FailGlob = true
	script, err := syntax.Parse("x *.nope", "")
	require.NoError(t, err)
	cmd := script.Stmts[0].Pipelines[0].Cmds[0].(*syntax.SimpleCommand)
	_, err = Fields(cfg, cmd.Args...)
	require.Error(t, err)
	assert.Equal(t, ErrGlob, err.(*Error).Kind)
}

func TestGlobQuotedMetaStaysLiteral(t *testing.T) {
	cfg := globConfig(testTree())
	assert.Equal(t, []string{"*.txt"}, globWords(t, cfg, `'*.txt'`))
	assert.Equal(t, []string{"*.txt"}, globWords(t, cfg, `"*.txt"`))
}
