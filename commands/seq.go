package commands

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Seq implements the UNIX seq command.
func Seq(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "seq [FIRST [INCREMENT]] LAST",
		Short: "Print a sequence of numbers.",
	}
	return cmd.Run(virtOS, func() int {
		args := cmd.Flags().Args()
		first, step, last := int64(1), int64(1), int64(0)
		var err error
		switch len(args) {
		case 1:
			last, err = strconv.ParseInt(args[0], 10, 64)
		case 2:
			if first, err = strconv.ParseInt(args[0], 10, 64); err == nil {
				last, err = strconv.ParseInt(args[1], 10, 64)
			}
		case 3:
			if first, err = strconv.ParseInt(args[0], 10, 64); err == nil {
				if step, err = strconv.ParseInt(args[1], 10, 64); err == nil {
					last, err = strconv.ParseInt(args[2], 10, 64)
				}
			}
		default:
			diag(virtOS, "missing operand")
			return 1
		}
		if err != nil || step == 0 {
			diag(virtOS, "invalid argument")
			return 1
		}
		if step > 0 {
			for n := first; n <= last; n += step {
				fmt.Fprintln(virtOS.Stdout(), n)
			}
		} else {
			for n := first; n >= last; n += step {
				fmt.Fprintln(virtOS.Stdout(), n)
			}
		}
		return 0
	})
}

var _ vos.ProcessFunc = Seq

func init() {
	addCmd("seq", Seq)
}
