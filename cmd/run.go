package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/sandsh/core"
	"github.com/josephlewis42/sandsh/core/config"
)

var scriptText string

var runCmd = &cobra.Command{
	Use:   "run [SCRIPT]",
	Short: "Execute a script in the sandbox and print its output",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile()
		if err != nil {
			return err
		}

		src := scriptText
		if src == "" {
			if len(args) == 0 {
				return fmt.Errorf("either a script file or -c is required")
			}
			data, err := ioutil.ReadFile(args[0])
			if err != nil {
				return err
			}
			src = string(data)
		}

		shell, err := newShell(profile)
		if err != nil {
			return err
		}
		result, err := shell.Exec(cmd.Context(), src)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, result.Stdout)
		fmt.Fprint(os.Stderr, result.Stderr)
		os.Exit(result.ExitCode)
		return nil
	},
}

func newShell(profile *config.Profile) (*core.Shell, error) {
	files := make(map[string]core.FileSpec, len(profile.Files))
	for path, contents := range profile.Files {
		files[path] = core.FileSpec{Contents: contents}
	}
	return core.New(core.Options{
		Files: files,
		Cwd:   profile.Cwd,
		Env:   profile.Env,
		PID:   profile.PID,
	})
}

func init() {
	runCmd.Flags().StringVarP(&scriptText, "command", "c", "", "run this script text instead of a file")
	rootCmd.AddCommand(runCmd)
}
