package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/client"
	"github.com/chexbridge/manual-chex-bridge/db"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"github.com/chexbridge/manual-chex-bridge/session"
	"github.com/urfave/cli"
)

var loginCommand = cli.Command{
	Name:  "login",
	Usage: "log in with the EOS wallet and remember the session",
	Action: func(ctx *cli.Context) error {
		return withClient(ctx, func(runCtx context.Context,
			c *client.Client) error {

			if err := c.Login(runCtx); err != nil {
				return err
			}
			printState(c)

			return nil
		})
	},
}

var logoutCommand = cli.Command{
	Name:  "logout",
	Usage: "forget the remembered EOS session",
	Action: func(ctx *cli.Context) error {
		return withClient(ctx, func(_ context.Context,
			c *client.Client) error {

			if err := c.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")

			return nil
		})
	},
}

var statusCommand = cli.Command{
	Name:    "status",
	Aliases: []string{"balance"},
	Usage:   "show the EOS session, CHEX balance and bridge window",
	Action: func(ctx *cli.Context) error {
		return withClient(ctx, func(runCtx context.Context,
			c *client.Client) error {

			if err := c.ConnectDestination(runCtx); err != nil &&
				!errors.Is(err, session.ErrNoDestinationProvider) {

				fmt.Fprintf(os.Stderr, "destination: %v\n", err)
			}
			printState(c)

			return nil
		})
	},
}

var transferCommand = cli.Command{
	Name:      "transfer",
	Usage:     "send CHEX to the bridge custodian",
	ArgsUsage: "amount",
	Description: `
	Sends a whole number of CHEX to the bridge custodian, with the
	Ethereum address as memo. The custodian credits the address
	manually. Only one transfer per EOS account is honored.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "amount",
			Usage: "whole CHEX to send, at least 10000",
		},
	},
	Action: func(ctx *cli.Context) error {
		raw := ctx.String("amount")
		if raw == "" {
			raw = ctx.Args().First()
		}
		amount, err := policy.ParseAmount(raw)
		if err != nil {
			return err
		}

		return withClient(ctx, func(runCtx context.Context,
			c *client.Client) error {

			if err := c.ConnectDestination(runCtx); err != nil &&
				!errors.Is(err, session.ErrNoDestinationProvider) {

				return err
			}

			result, err := c.Transfer(runCtx, amount)
			if err != nil {
				return err
			}

			fmt.Printf("sent %s to %s\nmemo: %s\ntransaction: %s\n",
				result.Action.Quantity, result.Action.To,
				result.Action.Memo, result.Receipt.TransactionID)

			return nil
		})
	},
}

var historyCommand = cli.Command{
	Name:  "history",
	Usage: "list journaled transfers",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "limit",
			Usage: "maximum number of transfers, 0 for all",
			Value: 20,
		},
		cli.BoolFlag{
			Name:  "all",
			Usage: "list transfers of every account",
		},
	},
	Action: func(ctx *cli.Context) error {
		return withClient(ctx, func(runCtx context.Context,
			c *client.Client) error {

			actor := c.State().Actor
			if ctx.Bool("all") {
				actor = ""
			}

			records, err := c.History(runCtx, actor, ctx.Int("limit"))
			if errors.Is(err, db.ErrNoTransfers) {
				fmt.Println("no transfers")
				return nil
			}
			if err != nil {
				return err
			}

			for _, rec := range records {
				printRecord(rec)
			}

			return nil
		})
	},
}

// withClient loads the configuration, starts a client and runs f with a
// context cancelled on interrupt.
func withClient(ctx *cli.Context,
	f func(context.Context, *client.Client) error) error {

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := client.SetupLoggers(os.Stderr, cfg.DebugLevel); err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt)
	defer cancel()

	c, err := client.New(runCtx, cfg, &client.Deps{
		Prompter: newTerminalPrompter(os.Stdin, os.Stderr),
		Notifier: bridge.NotifierFunc(printNotice),
	})
	if err != nil {
		return err
	}

	if err := c.Start(runCtx); err != nil {
		_ = c.Stop()
		return err
	}

	runErr := f(runCtx, c)
	if err := c.Stop(); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}

func loadConfig(ctx *cli.Context) (*client.Config, error) {
	cfg, err := client.LoadConfig(ctx.GlobalString("configfile"))
	if err != nil {
		return nil, err
	}

	if ctx.GlobalIsSet("datadir") {
		cfg.DataDir = ctx.GlobalString("datadir")
	}
	if ctx.GlobalIsSet("debuglevel") {
		cfg.DebugLevel = ctx.GlobalString("debuglevel")
	}
	if ctx.GlobalIsSet("nodeurl") {
		cfg.NodeURL = ctx.GlobalString("nodeurl")
	}
	if ctx.GlobalIsSet("account") {
		cfg.Keosd.Account = ctx.GlobalString("account")
	}
	if ctx.GlobalIsSet("eth.rpc") {
		cfg.Eth.RPC = ctx.GlobalString("eth.rpc")
	}
	if ctx.GlobalIsSet("eth.address") {
		cfg.Eth.Address = ctx.GlobalString("eth.address")
	}
	if ctx.GlobalIsSet("submittimeout") {
		cfg.SubmitTimeout = ctx.GlobalDuration("submittimeout")
	}
	if ctx.GlobalBool("nometrics") {
		cfg.NoMetrics = true
	}
	if ctx.GlobalBool("skipchaincheck") {
		cfg.SkipChainCheck = true
	}

	return cfg, nil
}
