package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Which reports where registered commands would resolve.
func Which(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "which COMMAND...",
		Short: "Locate a command.",
	}
	return cmd.Run(virtOS, func() int {
		exit := 0
		for _, name := range cmd.Flags().Args() {
			if _, ok := defaultRegistry.Lookup(name); ok {
				fmt.Fprintf(virtOS.Stdout(), "/usr/bin/%s\n", name)
				continue
			}
			exit = 1
		}
		return exit
	})
}

var _ vos.ProcessFunc = Which

func init() {
	addCmd("which", Which)
}
