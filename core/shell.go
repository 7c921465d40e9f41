// Package core wires the parser, expander, interpreter and command
// registry into the Shell type embedders use to run scripts against a
// virtual filesystem.
package core

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/josephlewis42/sandsh/commands"
	"github.com/josephlewis42/sandsh/core/interp"
	"github.com/josephlewis42/sandsh/core/syntax"
	"github.com/josephlewis42/sandsh/core/transform"
	"github.com/josephlewis42/sandsh/core/vfs"
	"github.com/josephlewis42/sandsh/core/vos"
)

// FileSpec seeds one filesystem entry: raw contents or a lazy
// provider invoked on first read.
type FileSpec struct {
	Contents string
	Bytes    []byte
	Provider vfs.Provider
}

// Options configure a Shell.
type Options struct {
	// Files maps absolute paths to initial contents; intermediate
	// directories are created implicitly.
	Files map[string]FileSpec
	// Cwd is the starting working directory, default "/".
	Cwd string
	// Env holds the initial exported variables.
	Env map[string]string
	// FS overrides the seeded in-memory filesystem.
	FS vfs.FS
	// PID is the surrogate reported by $$, default 1.
	PID int
	// Now injects the clock, for -mtime style logic and $SECONDS.
	Now func() time.Time
	// Rand injects the $RANDOM source.
	Rand func() int
	// Fetch binds curl/wget-style commands to a network; nil leaves
	// them failing.
	Fetch func(url string) ([]byte, error)
}

// Result is the outcome of one Exec call. Stdout and Stderr are
// UTF-8, decoded with replacement.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Env      map[string]string
	Metadata transform.Metadata
}

// Shell is a sandboxed script interpreter. One Shell serves one Exec
// at a time; filesystem and environment persist between calls.
type Shell struct {
	fs       vfs.FS
	cwd      string
	env      []string
	pid      int
	clock    func() time.Time
	randFn   func() int
	fetch    func(url string) ([]byte, error)
	registry *commands.Registry
	plugins  *transform.Pipeline

	// carried across Exec calls
	lastEnv []string
}

// New builds a shell from options.
func New(opts Options) (*Shell, error) {
	fs := opts.FS
	if fs == nil {
		mem := vfs.NewMemFS(opts.Now)
		files := make(map[string]*vfs.MapFile, len(opts.Files))
		for path, spec := range opts.Files {
			file := &vfs.MapFile{Provider: spec.Provider, Data: spec.Bytes}
			if spec.Contents != "" {
				file.Data = []byte(spec.Contents)
			}
			files[path] = file
		}
		if err := mem.Seed(files); err != nil {
			return nil, err
		}
		// A writable scratch area is part of the base image.
		if err := mem.Mkdir("/tmp", true, 0777); err != nil {
			return nil, err
		}
		fs = mem
	}

	cwd := opts.Cwd
	if cwd == "" {
		cwd = "/"
	}
	var env []string
	for key, value := range opts.Env {
		env = append(env, key+"="+value)
	}
	sort.Strings(env)

	return &Shell{
		fs:       fs,
		cwd:      cwd,
		env:      env,
		pid:      opts.PID,
		clock:    opts.Now,
		randFn:   opts.Rand,
		fetch:    opts.Fetch,
		registry: commands.Default(),
		plugins:  transform.NewPipeline(),
		lastEnv:  env,
	}, nil
}

// RegisterCommand installs or overrides a command for this shell.
func (s *Shell) RegisterCommand(name string, cmd vos.ProcessFunc) {
	s.registry.Register(name, cmd)
}

// RegisterTransformPlugin installs an AST transform applied before
// every subsequent Exec.
func (s *Shell) RegisterTransformPlugin(plugin transform.Plugin) {
	s.plugins.Use(plugin)
}

// Transform parses, transforms and re-serializes a script without
// executing it.
func (s *Shell) Transform(script string) (*transform.Result, error) {
	return s.plugins.Transform(script, "")
}

// Exec runs a script to completion and captures its output. Parse
// errors surface as exit 2 with the diagnostic on stderr.
func (s *Shell) Exec(ctx context.Context, script string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	parsed, err := syntax.Parse(script, "")
	if err != nil {
		return &Result{
			Stderr:   fmt.Sprintf("%s: %v\n", shellName, err),
			ExitCode: interp.ExitUsage,
			Env:      envMap(s.lastEnv),
		}, nil
	}

	var meta transform.Metadata
	if s.plugins.Len() > 0 {
		transformed, md, err := s.plugins.Apply(parsed)
		if err != nil {
			return nil, err
		}
		parsed = transformed
		meta = md
	}

	var stdout, stderr bytes.Buffer
	runner := interp.NewRunner(interp.Options{
		FS:     s.fs,
		Cwd:    s.cwd,
		Env:    s.lastEnv,
		PID:    s.pid,
		Clock:  s.clock,
		Rand:   s.randFn,
		Fetch:  s.fetch,
		Lookup: s.registry.Lookup,
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	})

	exitCode := runner.Run(ctx, parsed)
	if ctx.Err() != nil {
		exitCode = interp.ExitCancelled
	}

	// Directory changes and exported variables persist across Exec
	// calls on the same shell.
	s.cwd = runner.Cwd()
	s.lastEnv = runner.ExportedEnv()

	return &Result{
		Stdout:   decodeUTF8(stdout.Bytes()),
		Stderr:   decodeUTF8(stderr.Bytes()),
		ExitCode: exitCode,
		Env:      envMap(s.lastEnv),
		Metadata: meta,
	}, nil
}

// FS exposes the shell's filesystem, mainly for embedders and tests.
func (s *Shell) FS() vfs.FS {
	return s.fs
}

const shellName = "sandsh"

func envMap(env []string) map[string]string {
	out := make(map[string]string, len(env))
	for _, kv := range env {
		split := strings.SplitN(kv, "=", 2)
		value := ""
		if len(split) > 1 {
			value = split[1]
		}
		out[split[0]] = value
	}
	return out
}

// decodeUTF8 replaces invalid sequences so callers always receive
// valid strings.
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
