package cmd

import (
	"io/ioutil"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/sandsh/core/config"
)

var cfgPath string

func loadProfile() (*config.Profile, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	data, err := ioutil.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	return config.Load(data)
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sandsh",
	Short: "Sandboxed shell emulator",
	Long:  `An in-process bash emulator over a virtual filesystem.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "profile", "", "sandbox profile path")
}
