// Package commands holds the registered command set the shell
// dispatches to when a name is neither a function nor a builtin.
// Commands are pure operations over a vos.VOS; they never touch the
// host.
package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/josephlewis42/sandsh/core/vfs"
	"github.com/josephlewis42/sandsh/core/vos"
)

// Registry maps command names to handlers.
type Registry struct {
	cmds map[string]vos.ProcessFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]vos.ProcessFunc)}
}

// Register installs or overrides a command.
func (r *Registry) Register(name string, cmd vos.ProcessFunc) {
	r.cmds[name] = cmd
}

// Lookup resolves a command by name.
func (r *Registry) Lookup(name string) (vos.ProcessFunc, bool) {
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// Names lists the registered command names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone copies the registry so per-shell overrides stay local.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for name, cmd := range r.cmds {
		out.cmds[name] = cmd
	}
	return out
}

var defaultRegistry = NewRegistry()

// Default returns a copy of the built-in command set.
func Default() *Registry {
	return defaultRegistry.Clone()
}

// addCmd registers a command in the package default set.
func addCmd(name string, cmd vos.ProcessFunc) {
	defaultRegistry.Register(name, cmd)
}

// SimpleCommand standardizes flag parsing and help output across
// command implementations.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// NeverBail runs the callback even when flag parsing fails.
	NeverBail bool

	flags    *getopt.Set
	showHelp *bool
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}
	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses flags and, on success, calls the callback. A --help flag
// is installed automatically and short-circuits with exit 0.
func (s *SimpleCommand) Run(virtOS vos.VOS, callback func() int) int {
	opts := s.Flags()
	if s.showHelp == nil {
		s.showHelp = opts.BoolLong("help", 0, "show this help and exit")
	}

	err := opts.Getopt(virtOS.Args(), nil)
	if err != nil && !s.NeverBail {
		fmt.Fprintf(virtOS.Stderr(), "error: %s\n\n", err)
		s.PrintHelp(virtOS.Stderr())
		return 1
	}

	if *s.showHelp {
		s.PrintHelp(virtOS.Stdout())
		return 0
	}

	return callback()
}

// diag writes one "<cmd>: ..." diagnostic line to stderr.
func diag(virtOS vos.VOS, format string, args ...interface{}) {
	fmt.Fprintf(virtOS.Stderr(), "%s: ", virtOS.Args()[0])
	fmt.Fprintf(virtOS.Stderr(), format, args...)
	fmt.Fprintln(virtOS.Stderr())
}

// fsErr formats a filesystem failure like the real tools do.
func fsErr(virtOS vos.VOS, path string, err error) {
	diag(virtOS, "%s: %s", path, vfs.KindOf(err))
}

// forEachInput reads the named files, or stdin when the list is empty
// or names "-". The callback receives each input's contents; per-file
// read failures are reported and turn into a non-zero exit.
func forEachInput(virtOS vos.VOS, paths []string, fn func(name string, data []byte)) int {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	exit := 0
	for _, path := range paths {
		if path == "-" {
			data, err := io.ReadAll(virtOS.Stdin())
			if err != nil {
				diag(virtOS, "stdin: %v", err)
				exit = 1
				continue
			}
			fn("-", data)
			continue
		}
		data, err := virtOS.ReadFile(path)
		if err != nil {
			fsErr(virtOS, path, err)
			exit = 1
			continue
		}
		fn(path, data)
	}
	return exit
}

// splitLines splits input into lines without a trailing empty
// element.
func splitLines(data []byte) []string {
	text := string(data)
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
