package main

import (
	"fmt"
	"os"

	cli "github.com/spf13/pflag"

	"voxagent/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocket, "Control socket of a running voxagent")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: voxagent-ctl [flags] [trigger|reset]\n\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	cmd := ipc.CmdTrigger
	switch cli.NArg() {
	case 0:
	case 1:
		cmd = cli.Arg(0)
	default:
		cli.Usage()
		os.Exit(2)
	}

	if cmd != ipc.CmdTrigger && cmd != ipc.CmdReset {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		cli.Usage()
		os.Exit(2)
	}

	if err := ipc.Send(*socket, cmd); err != nil {
		fmt.Fprintln(os.Stderr, "voxagent not reachable:", err)
		os.Exit(1)
	}
}
