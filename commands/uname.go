package commands

import (
	"fmt"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Uname reports fixed system identification strings.
func Uname(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "uname [OPTION]...",
		Short: "Print system information.",
	}
	opt := cmd.Flags()
	all := opt.Bool('a', "print all information")
	kernel := opt.Bool('s', "print the kernel name")
	machine := opt.Bool('m', "print the machine hardware name")
	release := opt.Bool('r', "print the kernel release")

	return cmd.Run(virtOS, func() int {
		const (
			kernelName    = "Linux"
			kernelRelease = "5.10.0-sandbox"
			hardware      = "x86_64"
		)
		host, _ := virtOS.LookupEnv("HOSTNAME")
		if host == "" {
			host = "sandbox"
		}
		switch {
		case *all:
			fmt.Fprintf(virtOS.Stdout(), "%s %s %s %s GNU/Linux\n",
				kernelName, host, kernelRelease, hardware)
		case *machine:
			fmt.Fprintln(virtOS.Stdout(), hardware)
		case *release:
			fmt.Fprintln(virtOS.Stdout(), kernelRelease)
		case *kernel:
			fmt.Fprintln(virtOS.Stdout(), kernelName)
		default:
			fmt.Fprintln(virtOS.Stdout(), kernelName)
		}
		return 0
	})
}

// Hostname prints the configured host name.
func Hostname(virtOS vos.VOS) int {
	host, _ := virtOS.LookupEnv("HOSTNAME")
	if host == "" {
		host = "sandbox"
	}
	fmt.Fprintln(virtOS.Stdout(), host)
	return 0
}

// Whoami prints the effective user.
func Whoami(virtOS vos.VOS) int {
	user, _ := virtOS.LookupEnv("USER")
	if user == "" {
		user = "root"
	}
	fmt.Fprintln(virtOS.Stdout(), user)
	return 0
}

var _ vos.ProcessFunc = Uname
var _ vos.ProcessFunc = Hostname
var _ vos.ProcessFunc = Whoami

func init() {
	addCmd("uname", Uname)
	addCmd("hostname", Hostname)
	addCmd("whoami", Whoami)
}
