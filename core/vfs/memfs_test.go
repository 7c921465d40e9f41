package vfs

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClock() time.Time {
	return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
}

func seeded(t *testing.T, files map[string]*MapFile) *MemFS {
	t.Helper()
	fs := NewMemFS(testClock)
	require.NoError(t, fs.Seed(files))
	return fs
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := NewMemFS(testClock)
	data := []byte("hello\x00world\xff")
	require.NoError(t, fs.WriteFile("/dir/f.bin", data, 0644))

	got, err := fs.ReadFile("/dir/f.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSeedCreatesParents(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/a/b/c.txt": {Data: []byte("deep")},
	})

	fi, err := fs.Stat("/a/b")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	got, err := fs.ReadFile("/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "deep", string(got))
}

func TestLazyProvider(t *testing.T) {
	calls := 0
	fs := seeded(t, map[string]*MapFile{
		"/lazy.txt": {Provider: func() ([]byte, error) {
			calls++
			return []byte("materialized"), nil
		}},
	})

	// Visible before the first read.
	exists, err := fs.Exists("/lazy.txt")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 0, calls)

	got, err := fs.ReadFile("/lazy.txt")
	require.NoError(t, err)
	assert.Equal(t, "materialized", string(got))
	assert.Equal(t, 1, calls)

	// Cached: the provider runs once.
	_, err = fs.ReadFile("/lazy.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestLazyProviderErrors(t *testing.T) {
	boom := errors.New("backing store offline")
	fs := seeded(t, map[string]*MapFile{
		"/bad.txt": {Provider: func() ([]byte, error) { return nil, boom }},
	})

	_, err := fs.ReadFile("/bad.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestWriteDisownsProvider(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/f.txt": {Provider: func() ([]byte, error) {
			t.Fatal("provider must not run after an overwrite")
			return nil, nil
		}},
	})

	require.NoError(t, fs.WriteFile("/f.txt", []byte("owned"), 0644))
	got, err := fs.ReadFile("/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "owned", string(got))
}

func TestNulByteRejectedEverywhere(t *testing.T) {
	fs := NewMemFS(testClock)
	bad := "/has\x00nul"

	_, err := fs.ReadFile(bad)
	assert.Equal(t, KindInvalidPath, KindOf(err))
	assert.Equal(t, KindInvalidPath, KindOf(fs.WriteFile(bad, nil, 0644)))
	assert.Equal(t, KindInvalidPath, KindOf(fs.Mkdir(bad, true, 0755)))
	assert.Equal(t, KindInvalidPath, KindOf(fs.Remove(bad, false, false)))
	_, err = fs.Stat(bad)
	assert.Equal(t, KindInvalidPath, KindOf(err))
	_, err = fs.ReadDir(bad)
	assert.Equal(t, KindInvalidPath, KindOf(err))
}

func TestErrorKinds(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/dir/f.txt": {Data: []byte("x")},
	})

	_, err := fs.ReadFile("/missing")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = fs.ReadFile("/dir")
	assert.Equal(t, KindIsADirectory, KindOf(err))

	_, err = fs.ReadDir("/dir/f.txt")
	assert.Equal(t, KindNotADirectory, KindOf(err))

	err = fs.Mkdir("/dir", false, 0755)
	assert.Equal(t, KindExists, KindOf(err))

	err = fs.Remove("/dir", false, false)
	assert.Equal(t, KindIsADirectory, KindOf(err))
}

func TestRemoveForce(t *testing.T) {
	fs := NewMemFS(testClock)
	assert.Error(t, fs.Remove("/nope", false, false))
	assert.NoError(t, fs.Remove("/nope", false, true))
}

func TestSymlinkResolution(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/data/real.txt": {Data: []byte("via link")},
	})
	require.NoError(t, fs.Symlink("/data/real.txt", "/link.txt"))

	got, err := fs.ReadFile("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, "via link", string(got))

	target, err := fs.Readlink("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, "/data/real.txt", target)

	fi, err := fs.Lstat("/link.txt")
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink)

	real, err := fs.Realpath("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, "/data/real.txt", real)
}

func TestSymlinkRelativeTarget(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/data/real.txt": {Data: []byte("rel")},
	})
	require.NoError(t, fs.Symlink("real.txt", "/data/alias.txt"))

	got, err := fs.ReadFile("/data/alias.txt")
	require.NoError(t, err)
	assert.Equal(t, "rel", string(got))
}

func TestSymlinkLoop(t *testing.T) {
	fs := NewMemFS(testClock)
	require.NoError(t, fs.Symlink("/b", "/a"))
	require.NoError(t, fs.Symlink("/a", "/b"))

	_, err := fs.ReadFile("/a")
	assert.Error(t, err)
}

func TestCopyRecursive(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/src/a.txt":     {Data: []byte("a")},
		"/src/sub/b.txt": {Data: []byte("b")},
	})

	require.NoError(t, fs.Copy("/src", "/dst", true))

	got, err := fs.ReadFile("/dst/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
	got, err = fs.ReadFile("/dst/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	// Directories refuse plain copies.
	err = fs.Copy("/src", "/other", false)
	assert.Equal(t, KindIsADirectory, KindOf(err))
}

func TestCopyPrunesSymlinkLoops(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/tree/file.txt": {Data: []byte("x")},
	})
	require.NoError(t, fs.Symlink("/tree", "/tree/loop"))

	require.NoError(t, fs.Copy("/tree", "/copy", true))
	got, err := fs.ReadFile("/copy/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestRenameIntoDirectory(t *testing.T) {
	fs := seeded(t, map[string]*MapFile{
		"/f.txt": {Data: []byte("move me")},
		"/dir":   {Mode: os.ModeDir | 0755},
	})

	require.NoError(t, fs.Rename("/f.txt", "/dir"))
	got, err := fs.ReadFile("/dir/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "move me", string(got))
}

func TestAppendFile(t *testing.T) {
	fs := NewMemFS(testClock)
	require.NoError(t, fs.WriteFile("/log", []byte("one\n"), 0644))
	require.NoError(t, fs.AppendFile("/log", []byte("two\n")))

	got, err := fs.ReadFile("/log")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(got))
}
