package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/sandsh/core/vos"
)

var dateFormats = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%b", "Jan",
	"%a", "Mon",
	"%e", "_2",
	"%Z", "MST",
	"%s", "", // handled separately
)

// Date prints the injected clock's current time.
func Date(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "date [+FORMAT]",
		Short: "Print the system date and time.",
	}
	return cmd.Run(virtOS, func() int {
		now := virtOS.Now()
		args := cmd.Flags().Args()
		if len(args) > 0 && strings.HasPrefix(args[0], "+") {
			format := args[0][1:]
			if format == "%s" {
				fmt.Fprintln(virtOS.Stdout(), now.Unix())
				return 0
			}
			fmt.Fprintln(virtOS.Stdout(), now.Format(dateFormats.Replace(format)))
			return 0
		}
		fmt.Fprintln(virtOS.Stdout(), now.Format("Mon Jan _2 15:04:05 MST 2006"))
		return 0
	})
}

var _ vos.ProcessFunc = Date

func init() {
	addCmd("date", Date)
}
