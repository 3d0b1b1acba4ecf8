package main

import (
	"fmt"
	"os"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "chexbridge"
	app.Usage = "move CHEX from EOS to Ethereum through the manual bridge"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "configfile",
			Usage: "path to the configuration file",
		},
		cli.StringFlag{
			Name:  "datadir",
			Usage: "directory for the session, journal and metrics files",
		},
		cli.StringFlag{
			Name: "debuglevel",
			Usage: "logging level for all subsystems or " +
				"SUBSYS=LEVEL pairs",
		},
		cli.StringFlag{
			Name:  "nodeurl",
			Usage: "EOS chain API endpoint",
		},
		cli.StringFlag{
			Name:  "account",
			Usage: "EOS account to log in as",
		},
		cli.StringFlag{
			Name:  "eth.rpc",
			Usage: "JSON-RPC endpoint of the Ethereum wallet",
		},
		cli.StringFlag{
			Name:  "eth.address",
			Usage: "Ethereum address to credit, if no wallet endpoint",
		},
		cli.DurationFlag{
			Name:  "submittimeout",
			Usage: "maximum time to wait for the chain to accept a transfer",
		},
		cli.BoolFlag{
			Name:  "nometrics",
			Usage: "do not write the metrics textfile",
		},
		cli.BoolFlag{
			Name:  "skipchaincheck",
			Usage: "do not verify the chain id and token at start",
		},
	}
	app.Commands = []cli.Command{
		loginCommand,
		logoutCommand,
		statusCommand,
		transferCommand,
		historyCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	switch bridge.KindOf(err) {
	// Already shown through the notifier.
	case bridge.KindUserInputInvalid, bridge.KindPreconditionUnmet,
		bridge.KindSubmissionFailure:

	default:
		fmt.Fprintf(os.Stderr, "[%s] %v\n", bridge.AppName, err)
	}
	os.Exit(1)
}
