package vfs

import (
	"path"
	"strings"
)

// CheckPath rejects paths that can never name a file. NUL bytes are
// refused by every operation in this package.
func CheckPath(name string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return &PathError{Op: "check", Path: name, Kind: KindInvalidPath, Err: ErrInvalidPath}
	}
	return nil
}

// Resolve normalizes name to an absolute slash-separated path relative
// to cwd.
func Resolve(cwd, name string) string {
	if !path.IsAbs(name) {
		name = path.Join(cwd, name)
	}
	return path.Clean(name)
}

// IsPathWithinRoot reports whether p is root itself or a descendant of
// it. The comparison is on whole path segments so that /sandbox does
// not claim /sandboxes.
func IsPathWithinRoot(p, root string) bool {
	root = path.Clean(root)
	p = path.Clean(p)
	if root == "/" {
		return strings.HasPrefix(p, "/")
	}
	return p == root || strings.HasPrefix(p, root+"/")
}
