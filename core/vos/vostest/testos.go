// Package vostest builds deterministic virtual OS instances for
// command tests: fixed clock, fixed pid, seeded in-memory filesystem.
package vostest

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/josephlewis42/sandsh/core/vfs"
	"github.com/josephlewis42/sandsh/core/vos"
)

// Clock is the reference timestamp every test OS reports.
func Clock() time.Time {
	// Go's reference time with a different value in each position.
	return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
}

// NewDeterministicOS builds a process view over a fresh seeded
// filesystem.
func NewDeterministicOS(argv []string, files map[string]string) (*vos.ProcOS, *vfs.MemFS, error) {
	fs := vfs.NewMemFS(Clock)
	seed := make(map[string]*vfs.MapFile, len(files))
	for path, contents := range files {
		seed[path] = &vfs.MapFile{Data: []byte(contents)}
	}
	if err := fs.Seed(seed); err != nil {
		return nil, nil, err
	}

	return &vos.ProcOS{
		VEnv:     vos.NewMapEnv(),
		VIO:      vos.NewNullIO(),
		ProcArgs: argv,
		PID:      1,
		Dir:      "/",
		Fs:       fs,
		Clock:    Clock,
	}, fs, nil
}

// Cmd is similar to exec.Cmd for registered commands.
type Cmd struct {
	// Process is the command under test.
	Process vos.ProcessFunc
	// Argv holds the arguments, including the command name as
	// Argv[0].
	Argv []string
	// Files seeds the filesystem.
	Files map[string]string
	// Env gives the environment in "key=value" form.
	Env []string
	// Stdin is the process input; empty when nil.
	Stdin io.Reader

	Stdout io.Writer
	Stderr io.Writer

	ExitStatus int

	// Setup runs against the OS before the process starts.
	Setup func(virtOS vos.VOS) error
}

// Command builds a Cmd the way exec.Command does.
func Command(process vos.ProcessFunc, name string, arg ...string) *Cmd {
	return &Cmd{
		Process: process,
		Argv:    append([]string{name}, arg...),
	}
}

// CombinedOutput runs the command and returns stdout and stderr
// together.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf
	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Output runs the command and returns only stdout.
func (c *Cmd) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	if c.Stderr == nil {
		c.Stderr = io.Discard
	}
	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run() error {
	virtOS, _, err := NewDeterministicOS(c.Argv, c.Files)
	if err != nil {
		return err
	}
	virtOS.VEnv = vos.NewMapEnvFromList(c.Env)

	stdin := c.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	virtOS.VIO = vos.NewVIOAdapter(stdin, c.Stdout, c.Stderr)

	if c.Setup != nil {
		if err := c.Setup(virtOS); err != nil {
			return err
		}
	}

	c.ExitStatus = c.Process(virtOS)
	return nil
}
