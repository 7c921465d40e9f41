package commands

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/josephlewis42/sandsh/core/expand"
	"github.com/josephlewis42/sandsh/core/vos"
)

// Find implements a subset of find: -name, -type and -maxdepth.
// Traversal is bounded by a visited set keyed on canonical paths so
// symlink loops prune silently.
func Find(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]

	var roots []string
	namePat := ""
	typeFilter := ""
	maxDepth := -1

	i := 0
	for ; i < len(args) && !strings.HasPrefix(args[i], "-"); i++ {
		roots = append(roots, args[i])
	}
	for ; i < len(args); i++ {
		switch args[i] {
		case "-name":
			if i+1 >= len(args) {
				diag(virtOS, "missing argument to `-name'")
				return 1
			}
			i++
			namePat = args[i]
		case "-type":
			if i+1 >= len(args) {
				diag(virtOS, "missing argument to `-type'")
				return 1
			}
			i++
			typeFilter = args[i]
		case "-maxdepth":
			if i+1 >= len(args) {
				diag(virtOS, "missing argument to `-maxdepth'")
				return 1
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				diag(virtOS, "invalid argument to `-maxdepth': %s", args[i])
				return 1
			}
			maxDepth = n
		case "--help":
			fmt.Fprintln(virtOS.Stdout(), "usage: find [PATH...] [-name PATTERN] [-type d|f] [-maxdepth N]")
			return 0
		default:
			diag(virtOS, "unknown predicate %q", args[i])
			return 1
		}
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	match := func(display string, isDir bool) bool {
		if typeFilter == "d" && !isDir {
			return false
		}
		if typeFilter == "f" && isDir {
			return false
		}
		if namePat != "" && !expand.Match(namePat, path.Base(display)) {
			return false
		}
		return true
	}

	exit := 0
	visited := make(map[string]bool)
	var walk func(display string, depth int)
	walk = func(display string, depth int) {
		fi, err := virtOS.Stat(display)
		if err != nil {
			fsErr(virtOS, display, err)
			exit = 1
			return
		}
		if match(display, fi.IsDir()) {
			fmt.Fprintln(virtOS.Stdout(), display)
		}
		if !fi.IsDir() || (maxDepth >= 0 && depth >= maxDepth) {
			return
		}
		canonical, err := virtOS.Realpath(display)
		if err == nil {
			if visited[canonical] {
				return
			}
			visited[canonical] = true
		}
		entries, err := virtOS.ReadDir(display)
		if err != nil {
			fsErr(virtOS, display, err)
			exit = 1
			return
		}
		for _, entry := range entries {
			walk(path.Join(display, entry.Name()), depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return exit
}

var _ vos.ProcessFunc = Find

func init() {
	addCmd("find", Find)
}
