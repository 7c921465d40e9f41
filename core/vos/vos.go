// Package vos provides the virtual OS view handed to command
// implementations: environment, standard streams, a virtual
// filesystem rooted at the process working directory, argument vector
// and a re-entrant hook back into the shell.
package vos

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/josephlewis42/sandsh/core/vfs"
)

// ExecResult is what the re-entrant Exec hook returns.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ProcessFunc is the signature of a registered command.
type ProcessFunc func(virtOS VOS) int

// VOS is the virtual OS a command runs against.
type VOS interface {
	VEnv
	VIO

	// Args holds the argument vector, including the command name as
	// Args()[0].
	Args() []string
	// Getpid returns the PID surrogate of the shell.
	Getpid() int
	// Getwd returns the working directory.
	Getwd() string
	// Resolve normalizes a possibly relative path against the working
	// directory.
	Resolve(name string) string
	// Now is the injected clock.
	Now() time.Time
	// Context carries the cancellation signal for long-running
	// commands.
	Context() context.Context
	// Exec re-enters the shell with the process environment; used by
	// commands like xargs.
	Exec(script string) (ExecResult, error)
	// Fetch retrieves a URL through the host-provided hook; it errors
	// when the sandbox has no network binding.
	Fetch(url string) ([]byte, error)

	// Filesystem operations, resolved against the working directory.
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

// ProcOS is the concrete VOS built by the interpreter for each
// command invocation.
type ProcOS struct {
	VEnv
	VIO

	ProcArgs []string
	PID      int
	Dir      string
	Fs       vfs.FS
	Clock    func() time.Time
	Ctx      context.Context
	ExecFn   func(script string) (ExecResult, error)
	FetchFn  func(url string) ([]byte, error)
}

var _ VOS = (*ProcOS)(nil)

func (p *ProcOS) Args() []string { return p.ProcArgs }

func (p *ProcOS) Getpid() int { return p.PID }

func (p *ProcOS) Getwd() string { return p.Dir }

func (p *ProcOS) Resolve(name string) string {
	return vfs.Resolve(p.Dir, name)
}

func (p *ProcOS) Now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

func (p *ProcOS) Context() context.Context {
	if p.Ctx == nil {
		return context.Background()
	}
	return p.Ctx
}

func (p *ProcOS) Exec(script string) (ExecResult, error) {
	if p.ExecFn == nil {
		return ExecResult{ExitCode: 127}, nil
	}
	return p.ExecFn(script)
}

func (p *ProcOS) Fetch(url string) ([]byte, error) {
	if p.FetchFn == nil {
		return nil, errors.New("network is unreachable")
	}
	return p.FetchFn(url)
}

func (p *ProcOS) ReadFile(name string) ([]byte, error) {
	return p.Fs.ReadFile(p.Resolve(name))
}

func (p *ProcOS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return p.Fs.WriteFile(p.Resolve(name), data, perm)
}

func (p *ProcOS) AppendFile(name string, data []byte) error {
	return p.Fs.AppendFile(p.Resolve(name), data)
}

func (p *ProcOS) Exists(name string) (bool, error) {
	return p.Fs.Exists(p.Resolve(name))
}

func (p *ProcOS) Stat(name string) (os.FileInfo, error) {
	return p.Fs.Stat(p.Resolve(name))
}

func (p *ProcOS) Lstat(name string) (os.FileInfo, error) {
	return p.Fs.Lstat(p.Resolve(name))
}

func (p *ProcOS) ReadDir(name string) ([]os.FileInfo, error) {
	return p.Fs.ReadDir(p.Resolve(name))
}

func (p *ProcOS) Mkdir(name string, parents bool, perm fs.FileMode) error {
	return p.Fs.Mkdir(p.Resolve(name), parents, perm)
}

func (p *ProcOS) Remove(name string, recursive, force bool) error {
	return p.Fs.Remove(p.Resolve(name), recursive, force)
}

func (p *ProcOS) Rename(oldname, newname string) error {
	return p.Fs.Rename(p.Resolve(oldname), p.Resolve(newname))
}

func (p *ProcOS) Copy(src, dst string, recursive bool) error {
	return p.Fs.Copy(p.Resolve(src), p.Resolve(dst), recursive)
}

func (p *ProcOS) Symlink(target, link string) error {
	return p.Fs.Symlink(target, p.Resolve(link))
}

func (p *ProcOS) Readlink(link string) (string, error) {
	return p.Fs.Readlink(p.Resolve(link))
}

func (p *ProcOS) Realpath(name string) (string, error) {
	return p.Fs.Realpath(p.Resolve(name))
}

func (p *ProcOS) Chmod(name string, mode fs.FileMode) error {
	return p.Fs.Chmod(p.Resolve(name), mode)
}

func (p *ProcOS) Chtimes(name string, atime, mtime time.Time) error {
	return p.Fs.Chtimes(p.Resolve(name), atime, mtime)
}

func (p *ProcOS) Open(name string) (afero.File, error) {
	return p.Fs.Open(p.Resolve(name))
}

func (p *ProcOS) OpenFile(name string, flag int, perm fs.FileMode) (afero.File, error) {
	return p.Fs.OpenFile(p.Resolve(name), flag, perm)
}
