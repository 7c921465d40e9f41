package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/josephlewis42/sandsh/core/vos"
)

var colorDir = color.New(color.FgBlue, color.Bold)

// Ls implements the UNIX ls command.
func Ls(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "ls [OPTION]... [FILE]...",
		Short: "List information about files.",
	}
	opt := cmd.Flags()
	all := opt.Bool('a', "do not ignore entries starting with .")
	long := opt.Bool('l', "use a long listing format")
	dirSelf := opt.Bool('d', "list directories themselves, not their contents")
	colorWhen := opt.EnumLong("color", 0, []string{"always", "auto", "never"}, "never",
		"colorize the output (always|auto|never)")

	return cmd.Run(virtOS, func() int {
		paths := opt.Args()
		if len(paths) == 0 {
			paths = []string{"."}
		}
		colorize := *colorWhen == "always"
		exit := 0

		printEntry := func(fi os.FileInfo, name string) {
			if colorize && fi.IsDir() {
				name = colorDir.Sprint(name)
			}
			if *long {
				fmt.Fprintf(virtOS.Stdout(), "%s\t%d\t%s\t%s\n",
					fi.Mode(), fi.Size(), fi.ModTime().Format("Jan _2 15:04"), name)
				return
			}
			fmt.Fprintln(virtOS.Stdout(), name)
		}

		showHeaders := len(paths) > 1
		for i, path := range paths {
			fi, err := virtOS.Stat(path)
			if err != nil {
				fsErr(virtOS, path, err)
				exit = 1
				continue
			}
			if !fi.IsDir() || *dirSelf {
				printEntry(fi, path)
				continue
			}

			entries, err := virtOS.ReadDir(path)
			if err != nil {
				fsErr(virtOS, path, err)
				exit = 1
				continue
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Name() < entries[j].Name()
			})

			if showHeaders {
				if i > 0 {
					fmt.Fprintln(virtOS.Stdout())
				}
				fmt.Fprintf(virtOS.Stdout(), "%s:\n", path)
			}
			tw := tabwriter.NewWriter(virtOS.Stdout(), 4, 4, 1, ' ', 0)
			for _, entry := range entries {
				if !*all && strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				if *long {
					name := entry.Name()
					if colorize && entry.IsDir() {
						name = colorDir.Sprint(name)
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
						entry.Mode(), entry.Size(), entry.ModTime().Format("Jan _2 15:04"), name)
					continue
				}
				name := entry.Name()
				if colorize && entry.IsDir() {
					name = colorDir.Sprint(name)
				}
				fmt.Fprintln(virtOS.Stdout(), name)
			}
			tw.Flush()
		}
		return exit
	})
}

var _ vos.ProcessFunc = Ls

func init() {
	addCmd("ls", Ls)
}
