package commands

import (
	"path"

	"github.com/josephlewis42/sandsh/core/vos"
)

// Curl fetches a URL through the shell's injected fetch hook and
// writes the body to stdout or a file.
func Curl(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "curl [OPTION]... URL",
		Short: "Transfer a URL.",
	}
	opt := cmd.Flags()
	output := opt.String('o', "", "write output to FILE instead of stdout")
	silent := opt.Bool('s', "silent mode")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			diag(virtOS, "no URL specified")
			return 2
		}
		data, err := virtOS.Fetch(args[0])
		if err != nil {
			if !*silent {
				diag(virtOS, "(6) Could not resolve host: %s", args[0])
			}
			return 6
		}
		if *output != "" {
			if werr := virtOS.WriteFile(*output, data, 0644); werr != nil {
				fsErr(virtOS, *output, werr)
				return 1
			}
			return 0
		}
		virtOS.Stdout().Write(data)
		return 0
	})
}

// Wget fetches a URL to a file named after the URL's last path
// segment.
func Wget(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "wget [OPTION]... URL",
		Short: "Non-interactive network downloader.",
	}
	opt := cmd.Flags()
	output := opt.String('O', "", "write document to FILE")

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			diag(virtOS, "missing URL")
			return 1
		}
		data, err := virtOS.Fetch(args[0])
		if err != nil {
			diag(virtOS, "unable to resolve host address %q", args[0])
			return 4
		}
		dest := *output
		if dest == "" {
			dest = path.Base(args[0])
			if dest == "/" || dest == "." {
				dest = "index.html"
			}
		}
		if dest == "-" {
			virtOS.Stdout().Write(data)
			return 0
		}
		if werr := virtOS.WriteFile(dest, data, 0644); werr != nil {
			fsErr(virtOS, dest, werr)
			return 1
		}
		return 0
	})
}

var _ vos.ProcessFunc = Curl
var _ vos.ProcessFunc = Wget

func init() {
	addCmd("curl", Curl)
	addCmd("wget", Wget)
}
