package vfs

import (
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"
)

// RootedFS confines every operation of a wrapped FS to a subtree.
// Escapes through ".." or symlinks are rejected: the canonical form of
// each operand must stay within the declared root.
type RootedFS struct {
	base FS
	root string
}

var _ FS = (*RootedFS)(nil)

// NewRootedFS wraps base so only paths under root are reachable.
func NewRootedFS(base FS, root string) *RootedFS {
	return &RootedFS{base: base, root: path.Clean(root)}
}

// check canonicalizes name against the base filesystem and verifies it
// stays inside the root. Paths that do not exist yet are checked
// against the canonical form of their deepest existing ancestor.
func (r *RootedFS) check(name string) (string, error) {
	if err := CheckPath(name); err != nil {
		return "", err
	}
	canonical, err := r.base.Realpath(name)
	if err != nil {
		if KindOf(err) != KindNotFound {
			return "", err
		}
		canonical = path.Clean(name)
	}
	if !IsPathWithinRoot(canonical, r.root) {
		return "", &PathError{Op: "resolve", Path: name, Kind: KindPermissionDenied, Err: os.ErrPermission}
	}
	return name, nil
}

func (r *RootedFS) ReadFile(name string) ([]byte, error) {
	if _, err := r.check(name); err != nil {
		return nil, err
	}
	return r.base.ReadFile(name)
}

func (r *RootedFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if _, err := r.check(name); err != nil {
		return err
	}
	return r.base.WriteFile(name, data, perm)
}

func (r *RootedFS) AppendFile(name string, data []byte) error {
	if _, err := r.check(name); err != nil {
		return err
	}
	return r.base.AppendFile(name, data)
}

func (r *RootedFS) Exists(name string) (bool, error) {
	if _, err := r.check(name); err != nil {
		return false, err
	}
	return r.base.Exists(name)
}

func (r *RootedFS) Stat(name string) (os.FileInfo, error) {
	if _, err := r.check(name); err != nil {
		return nil, err
	}
	return r.base.Stat(name)
}

func (r *RootedFS) Lstat(name string) (os.FileInfo, error) {
	if _, err := r.check(name); err != nil {
		return nil, err
	}
	return r.base.Lstat(name)
}

func (r *RootedFS) ReadDir(name string) ([]os.FileInfo, error) {
	if _, err := r.check(name); err != nil {
		return nil, err
	}
	return r.base.ReadDir(name)
}

func (r *RootedFS) Mkdir(name string, parents bool, perm fs.FileMode) error {
	if _, err := r.check(name); err != nil {
		return err
	}
	return r.base.Mkdir(name, parents, perm)
}

func (r *RootedFS) Remove(name string, recursive, force bool) error {
	if _, err := r.check(name); err != nil {
		return err
	}
	return r.base.Remove(name, recursive, force)
}

func (r *RootedFS) Rename(oldname, newname string) error {
	if _, err := r.check(oldname); err != nil {
		return err
	}
	if _, err := r.check(newname); err != nil {
		return err
	}
	return r.base.Rename(oldname, newname)
}

func (r *RootedFS) Copy(src, dst string, recursive bool) error {
	if _, err := r.check(src); err != nil {
		return err
	}
	if _, err := r.check(dst); err != nil {
		return err
	}
	return r.base.Copy(src, dst, recursive)
}

func (r *RootedFS) Symlink(target, link string) error {
	if _, err := r.check(link); err != nil {
		return err
	}
	return r.base.Symlink(target, link)
}

func (r *RootedFS) Readlink(link string) (string, error) {
	if _, err := r.check(link); err != nil {
		return "", err
	}
	return r.base.Readlink(link)
}

func (r *RootedFS) Realpath(name string) (string, error) {
	if _, err := r.check(name); err != nil {
		return "", err
	}
	return r.base.Realpath(name)
}

func (r *RootedFS) Chmod(name string, mode fs.FileMode) error {
	if _, err := r.check(name); err != nil {
		return err
	}
	return r.base.Chmod(name, mode)
}

func (r *RootedFS) Chtimes(name string, atime, mtime time.Time) error {
	if _, err := r.check(name); err != nil {
		return err
	}
	return r.base.Chtimes(name, atime, mtime)
}

func (r *RootedFS) Open(name string) (afero.File, error) {
	if _, err := r.check(name); err != nil {
		return nil, err
	}
	return r.base.Open(name)
}

func (r *RootedFS) OpenFile(name string, flag int, perm fs.FileMode) (afero.File, error) {
	if _, err := r.check(name); err != nil {
		return nil, err
	}
	return r.base.OpenFile(name, flag, perm)
}
