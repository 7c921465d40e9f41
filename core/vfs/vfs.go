package vfs

import (
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"
)

// FS is the filesystem contract the shell executes against. All paths
// are absolute; callers are expected to resolve relative paths against
// their working directory first (see Resolve).
//
// Implementations reject paths containing NUL bytes from every
// operation.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	AppendFile(name string, data []byte) error
	Exists(name string) (bool, error)
	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.FileInfo, error)
	Mkdir(name string, parents bool, perm fs.FileMode) error
	Remove(name string, recursive, force bool) error
	Rename(oldname, newname string) error
	Copy(src, dst string, recursive bool) error
	Symlink(target, link string) error
	Readlink(link string) (string, error)
	Realpath(name string) (string, error)
	Chmod(name string, mode fs.FileMode) error
	Chtimes(name string, atime, mtime time.Time) error
	Open(name string) (afero.File, error)
	OpenFile(name string, flag int, perm fs.FileMode) (afero.File, error)
}

// Provider produces the contents of a file on first read. Entries
// backed by a provider materialize lazily and the result is cached;
// writing to the entry replaces it with an owned buffer.
type Provider func() ([]byte, error)

// MapFile describes a single entry used to seed a filesystem. Exactly
// one of Data or Provider should be set.
type MapFile struct {
	Data     []byte
	Provider Provider
	Mode     fs.FileMode
}
