package vfs

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// TimeSource supplies modification times so tests can run against a
// fixed clock.
type TimeSource func() time.Time

// MemFS is an in-memory FS backed by afero's MemMapFs. Symbolic links
// are backfilled on top of the store the way the honeypot filesystem
// does it: a link is a file whose contents are the target and whose
// mode carries fs.ModeSymlink.
type MemFS struct {
	af  afero.Fs
	now TimeSource

	mu        sync.Mutex
	providers map[string]Provider
}

var _ FS = (*MemFS)(nil)

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS(now TimeSource) *MemFS {
	if now == nil {
		now = time.Now
	}
	return &MemFS{
		af:        afero.NewMemMapFs(),
		now:       now,
		providers: make(map[string]Provider),
	}
}

// Seed populates the filesystem from a path to content mapping,
// creating intermediate directories. Provider-backed entries are
// registered without materializing.
func (m *MemFS) Seed(files map[string]*MapFile) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		file := files[name]
		abs := Resolve("/", name)
		if err := CheckPath(abs); err != nil {
			return err
		}
		mode := file.Mode
		if mode == 0 {
			mode = 0644
		}
		if mode.IsDir() {
			if err := m.Mkdir(abs, true, mode.Perm()); err != nil {
				return err
			}
			continue
		}
		if err := m.af.MkdirAll(path.Dir(abs), 0755); err != nil {
			return NewPathError("mkdir", path.Dir(abs), err)
		}
		if file.Provider != nil {
			// Placeholder entry keeps the file visible to stat and
			// readdir before first read.
			if err := afero.WriteFile(m.af, abs, nil, mode); err != nil {
				return NewPathError("create", abs, err)
			}
			m.mu.Lock()
			m.providers[abs] = file.Provider
			m.mu.Unlock()
			continue
		}
		if err := afero.WriteFile(m.af, abs, file.Data, mode); err != nil {
			return NewPathError("write", abs, err)
		}
	}
	return nil
}

// rawLstat stats the entry without following a final symlink. The
// backing MemMapFs never follows links itself.
func (m *MemFS) rawLstat(name string) (os.FileInfo, error) {
	return m.af.Stat(name)
}

func (m *MemFS) rawReadlink(name string) (string, error) {
	fi, err := m.af.Stat(name)
	if err != nil {
		return "", err
	}
	if fi.Mode()&fs.ModeSymlink == 0 {
		return "", &PathError{Op: "readlink", Path: name, Kind: KindInvalidPath, Err: ErrInvalidPath}
	}
	target, err := afero.ReadFile(m.af, name)
	if err != nil {
		return "", err
	}
	return string(target), nil
}

// resolve canonicalizes name, following symlinks in every component.
// Missing trailing components are allowed so the result can be used to
// create new entries.
func (m *MemFS) resolve(name string) (string, error) {
	if err := CheckPath(name); err != nil {
		return "", err
	}
	return resolvePath(m.rawLstat, m.rawReadlink, name)
}

// materialize runs the lazy provider for name, if any, and caches the
// result as an owned buffer.
func (m *MemFS) materialize(name string) error {
	m.mu.Lock()
	provider, ok := m.providers[name]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	data, err := provider()
	if err != nil {
		return NewPathError("read", name, err)
	}
	fi, statErr := m.rawLstat(name)
	mode := fs.FileMode(0644)
	if statErr == nil {
		mode = fi.Mode()
	}
	if err := afero.WriteFile(m.af, name, data, mode); err != nil {
		return NewPathError("write", name, err)
	}
	m.mu.Lock()
	delete(m.providers, name)
	m.mu.Unlock()
	return nil
}

// disown drops the lazy provider for name; used when a write replaces
// the entry wholesale.
func (m *MemFS) disown(name string) {
	m.mu.Lock()
	delete(m.providers, name)
	m.mu.Unlock()
}

func (m *MemFS) ReadFile(name string) ([]byte, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := m.materialize(resolved); err != nil {
		return nil, err
	}
	fi, err := m.rawLstat(resolved)
	if err != nil {
		return nil, NewPathError("read", name, err)
	}
	if fi.IsDir() {
		return nil, &PathError{Op: "read", Path: name, Kind: KindIsADirectory}
	}
	data, err := afero.ReadFile(m.af, resolved)
	if err != nil {
		return nil, NewPathError("read", name, err)
	}
	return data, nil
}

func (m *MemFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	resolved, err := m.resolve(name)
	if err != nil {
		return err
	}
	if fi, err := m.rawLstat(resolved); err == nil && fi.IsDir() {
		return &PathError{Op: "write", Path: name, Kind: KindIsADirectory}
	}
	m.disown(resolved)
	if err := afero.WriteFile(m.af, resolved, data, perm); err != nil {
		return NewPathError("write", name, err)
	}
	return m.af.Chtimes(resolved, m.now(), m.now())
}

func (m *MemFS) AppendFile(name string, data []byte) error {
	resolved, err := m.resolve(name)
	if err != nil {
		return err
	}
	if err := m.materialize(resolved); err != nil {
		return err
	}
	fd, err := m.af.OpenFile(resolved, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return NewPathError("append", name, err)
	}
	defer fd.Close()
	if _, err := fd.Write(data); err != nil {
		return NewPathError("append", name, err)
	}
	return nil
}

func (m *MemFS) Exists(name string) (bool, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return false, err
	}
	_, statErr := m.rawLstat(resolved)
	switch {
	case statErr == nil:
		return true, nil
	case os.IsNotExist(statErr):
		return false, nil
	default:
		return false, NewPathError("stat", name, statErr)
	}
}

func (m *MemFS) Stat(name string) (os.FileInfo, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := m.materialize(resolved); err != nil {
		return nil, err
	}
	fi, err := m.rawLstat(resolved)
	if err != nil {
		return nil, NewPathError("stat", name, err)
	}
	return fi, nil
}

func (m *MemFS) Lstat(name string) (os.FileInfo, error) {
	if err := CheckPath(name); err != nil {
		return nil, err
	}
	dir, base := path.Split(path.Clean(name))
	resolvedDir, err := m.resolve(dir)
	if err != nil {
		return nil, err
	}
	fi, err := m.rawLstat(path.Join(resolvedDir, base))
	if err != nil {
		return nil, NewPathError("lstat", name, err)
	}
	return fi, nil
}

func (m *MemFS) ReadDir(name string) ([]os.FileInfo, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	fi, err := m.rawLstat(resolved)
	if err != nil {
		return nil, NewPathError("readdir", name, err)
	}
	if !fi.IsDir() {
		return nil, &PathError{Op: "readdir", Path: name, Kind: KindNotADirectory}
	}
	infos, err := afero.ReadDir(m.af, resolved)
	if err != nil {
		return nil, NewPathError("readdir", name, err)
	}
	return infos, nil
}

func (m *MemFS) Mkdir(name string, parents bool, perm fs.FileMode) error {
	resolved, err := m.resolve(name)
	if err != nil {
		return err
	}
	if parents {
		if err := m.af.MkdirAll(resolved, perm); err != nil {
			return NewPathError("mkdir", name, err)
		}
		return nil
	}
	if _, err := m.rawLstat(resolved); err == nil {
		return &PathError{Op: "mkdir", Path: name, Kind: KindExists}
	}
	if err := m.af.Mkdir(resolved, perm); err != nil {
		return NewPathError("mkdir", name, err)
	}
	return nil
}

func (m *MemFS) Remove(name string, recursive, force bool) error {
	resolved, err := m.resolve(name)
	if err != nil {
		return err
	}
	fi, statErr := m.rawLstat(resolved)
	if statErr != nil {
		if force && os.IsNotExist(statErr) {
			return nil
		}
		return NewPathError("remove", name, statErr)
	}
	if fi.IsDir() {
		if !recursive {
			return &PathError{Op: "remove", Path: name, Kind: KindIsADirectory}
		}
		if err := m.af.RemoveAll(resolved); err != nil {
			return NewPathError("remove", name, err)
		}
		return nil
	}
	m.disown(resolved)
	if err := m.af.Remove(resolved); err != nil {
		return NewPathError("remove", name, err)
	}
	return nil
}

func (m *MemFS) Rename(oldname, newname string) error {
	oldResolved, err := m.resolve(oldname)
	if err != nil {
		return err
	}
	newResolved, err := m.resolve(newname)
	if err != nil {
		return err
	}
	if err := m.materialize(oldResolved); err != nil {
		return err
	}
	// Renaming onto an existing directory moves into it.
	if fi, err := m.rawLstat(newResolved); err == nil && fi.IsDir() {
		newResolved = path.Join(newResolved, path.Base(oldResolved))
	}
	if err := m.af.Rename(oldResolved, newResolved); err != nil {
		return NewPathError("rename", oldname, err)
	}
	return nil
}

func (m *MemFS) Copy(src, dst string, recursive bool) error {
	visited := make(map[string]bool)
	return m.copyTree(src, dst, recursive, visited)
}

func (m *MemFS) copyTree(src, dst string, recursive bool, visited map[string]bool) error {
	srcResolved, err := m.resolve(src)
	if err != nil {
		return err
	}
	fi, err := m.Stat(srcResolved)
	if err != nil {
		return err
	}

	if fi.IsDir() {
		if !recursive {
			return &PathError{Op: "copy", Path: src, Kind: KindIsADirectory}
		}
		// Directory loops through symlinks are pruned silently.
		if visited[srcResolved] {
			return nil
		}
		visited[srcResolved] = true

		if fi, err := m.Stat(dst); err == nil && fi.IsDir() {
			dst = path.Join(dst, path.Base(srcResolved))
		}
		if err := m.Mkdir(dst, true, fi.Mode().Perm()); err != nil {
			return err
		}
		entries, err := m.ReadDir(srcResolved)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			from := path.Join(srcResolved, entry.Name())
			to := path.Join(dst, entry.Name())
			if err := m.copyTree(from, to, true, visited); err != nil {
				return err
			}
		}
		return nil
	}

	data, err := m.ReadFile(srcResolved)
	if err != nil {
		return err
	}
	if fi, err := m.Stat(dst); err == nil && fi.IsDir() {
		dst = path.Join(dst, path.Base(srcResolved))
	}
	return m.WriteFile(dst, data, fi.Mode().Perm())
}

func (m *MemFS) Symlink(target, link string) error {
	if err := CheckPath(target); err != nil {
		return err
	}
	resolved, err := m.resolve(link)
	if err != nil {
		return err
	}
	if _, err := m.rawLstat(resolved); err == nil {
		return &PathError{Op: "symlink", Path: link, Kind: KindExists}
	}
	if err := afero.WriteFile(m.af, resolved, []byte(target), 0777); err != nil {
		return NewPathError("symlink", link, err)
	}
	if err := m.af.Chmod(resolved, 0777|fs.ModeSymlink); err != nil {
		return NewPathError("symlink", link, err)
	}
	return nil
}

func (m *MemFS) Readlink(link string) (string, error) {
	if err := CheckPath(link); err != nil {
		return "", err
	}
	dir, base := path.Split(path.Clean(link))
	resolvedDir, err := m.resolve(dir)
	if err != nil {
		return "", err
	}
	target, err := m.rawReadlink(path.Join(resolvedDir, base))
	if err != nil {
		return "", NewPathError("readlink", link, err)
	}
	return target, nil
}

func (m *MemFS) Realpath(name string) (string, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return "", err
	}
	if _, err := m.rawLstat(resolved); err != nil {
		return "", NewPathError("realpath", name, err)
	}
	return resolved, nil
}

func (m *MemFS) Chmod(name string, mode fs.FileMode) error {
	resolved, err := m.resolve(name)
	if err != nil {
		return err
	}
	if err := m.af.Chmod(resolved, mode); err != nil {
		return NewPathError("chmod", name, err)
	}
	return nil
}

func (m *MemFS) Chtimes(name string, atime, mtime time.Time) error {
	resolved, err := m.resolve(name)
	if err != nil {
		return err
	}
	if err := m.af.Chtimes(resolved, atime, mtime); err != nil {
		return NewPathError("chtimes", name, err)
	}
	return nil
}

func (m *MemFS) Open(name string) (afero.File, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := m.materialize(resolved); err != nil {
		return nil, err
	}
	fd, err := m.af.Open(resolved)
	if err != nil {
		return nil, NewPathError("open", name, err)
	}
	return fd, nil
}

func (m *MemFS) OpenFile(name string, flag int, perm fs.FileMode) (afero.File, error) {
	resolved, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 && flag&os.O_TRUNC != 0 {
		m.disown(resolved)
	} else if err := m.materialize(resolved); err != nil {
		return nil, err
	}
	fd, err := m.af.OpenFile(resolved, flag, perm)
	if err != nil {
		return nil, NewPathError("open", name, err)
	}
	return fd, nil
}
