package vfs

import (
	"io/fs"
	"os"
	"path"
	"strings"
)

// Resolution gives up after this many symlink hops, mirroring the
// kernel's ELOOP limit.
const maxSymlinkHops = 40

type lstatFunc func(name string) (os.FileInfo, error)
type readlinkFunc func(name string) (string, error)

// resolvePath canonicalizes an absolute path by walking it component
// by component, splicing in symlink targets as they are found.
// Components that do not exist yet are kept verbatim so the result is
// usable as a creation target.
func resolvePath(lstat lstatFunc, readlink readlinkFunc, name string) (string, error) {
	if !path.IsAbs(name) {
		name = "/" + name
	}
	rest := strings.Split(path.Clean(name), "/")
	resolved := "/"
	hops := 0

	for len(rest) > 0 {
		part := rest[0]
		rest = rest[1:]
		switch part {
		case "", ".":
			continue
		case "..":
			resolved = path.Dir(resolved)
			continue
		}

		next := path.Join(resolved, part)
		fi, err := lstat(next)
		if err != nil {
			// The remainder of the path cannot contain links; join it
			// verbatim.
			return path.Join(append([]string{next}, rest...)...), nil
		}
		if fi.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxSymlinkHops {
			return "", &PathError{Op: "resolve", Path: name, Kind: KindInvalidPath, Err: ErrInvalidPath}
		}
		target, err := readlink(next)
		if err != nil {
			return "", NewPathError("resolve", name, err)
		}
		if path.IsAbs(target) {
			resolved = "/"
			rest = append(strings.Split(path.Clean(target), "/"), rest...)
		} else {
			rest = append(strings.Split(target, "/"), rest...)
		}
	}

	return resolved, nil
}
