package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Sleep pauses for the given number of seconds, honoring
// cancellation.
func Sleep(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "sleep NUMBER[SUFFIX]",
		Short: "Delay for a specified amount of time.",
	}
	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			diag(virtOS, "missing operand")
			return 1
		}
		seconds, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "s"), 64)
		if err != nil {
			diag(virtOS, "invalid time interval %q", args[0])
			return 1
		}
		timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
		defer timer.Stop()
		select {
		case <-timer.C:
			return 0
		case <-virtOS.Context().Done():
			return 130
		}
	})
}

var _ vos.ProcessFunc = Sleep

func init() {
	addCmd("sleep", Sleep)
}
