package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var promptColor = color.New(color.FgGreen, color.Bold)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shell against the sandbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile()
		if err != nil {
			return err
		}
		shell, err := newShell(profile)
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt: promptColor.Sprint("sandsh$ "),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		exitCode := 0
		for {
			line, err := rl.Readline()
			switch {
			case err == io.EOF:
				os.Exit(exitCode)
			case err == readline.ErrInterrupt:
				continue
			case err != nil:
				return err
			case len(line) == 0:
				continue
			}

			result, execErr := shell.Exec(cmd.Context(), line)
			if execErr != nil {
				fmt.Fprintln(os.Stderr, execErr)
				continue
			}
			fmt.Fprint(os.Stdout, result.Stdout)
			fmt.Fprint(os.Stderr, result.Stderr)
			exitCode = result.ExitCode
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
