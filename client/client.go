// Package client owns every component of the bridge and wires them
// together. It replaces process globals with one explicit application
// context per run.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chexbridge/manual-chex-bridge/asset"
	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/chain/eosrpc"
	"github.com/chexbridge/manual-chex-bridge/db"
	"github.com/chexbridge/manual-chex-bridge/metrics"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"github.com/chexbridge/manual-chex-bridge/receiving"
	"github.com/chexbridge/manual-chex-bridge/sending"
	"github.com/chexbridge/manual-chex-bridge/session"
	"github.com/chexbridge/manual-chex-bridge/wallet/keosd"
	"github.com/lightningnetwork/lnd/clock"
)

// Deps are the collaborators supplied by the front-end.
type Deps struct {
	// Prompter asks for the source account and wallet password.
	// Required unless Source is set.
	Prompter keosd.Prompter

	// Notifier receives user-visible notices. Optional.
	Notifier bridge.Notifier

	// Clock drives the bridge window. Defaults to the system clock.
	Clock clock.Clock

	// Source overrides the wallet daemon provider.
	Source bridge.SourceProvider

	// Destination overrides the provider built from the eth config.
	Destination bridge.DestinationProvider
}

// Client is the application context of one bridge run.
type Client struct {
	cfg *Config

	// Core components
	chain    *eosrpc.Client
	balances *eosrpc.TokenQuery
	journal  *db.Store
	metrics  *metrics.Metrics

	// Operations
	binder   *session.Binder
	sender   *sending.Sender
	receiver *receiving.Receiver
	deadline policy.DeadlinePolicy
}

// New creates a new client. The configuration must have been validated.
func New(ctx context.Context, cfg *Config, deps *Deps) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if deps == nil {
		deps = &Deps{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	// Chain backend
	chainCfg := eosrpc.DefaultConfig()
	chainCfg.BaseURL = cfg.NodeURL
	chain := eosrpc.NewClient(chainCfg)
	balances := eosrpc.NewTokenQuery(chain, cfg.TokenContract, asset.CHEX)

	// Source wallet
	source := deps.Source
	if source == nil {
		keosdCfg := &keosd.Config{
			NodeURL:    cfg.NodeURL,
			WalletURL:  cfg.Keosd.WalletURL,
			WalletName: cfg.Keosd.WalletName,
			Account:    cfg.Keosd.Account,
			Permission: cfg.Keosd.Permission,
			Prompter:   deps.Prompter,
		}
		source, err = keosd.New(keosdCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init source wallet: %w",
				err)
		}
	}

	// Destination wallet
	var receiver *receiving.Receiver
	destination := deps.Destination
	switch {
	case destination != nil:

	case cfg.Eth.RPC != "":
		receiver, err = receiving.Dial(ctx, &receiving.Config{
			Endpoint:       cfg.Eth.RPC,
			RequestTimeout: receiving.DefaultRequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		destination = receiver

	case cfg.Eth.Address != "":
		destination = receiving.StaticProvider{Address: cfg.Eth.Address}
	}

	// Journal
	journal, err := db.InitDatabase(&db.Config{
		DBPath: cfg.journalPath(),
		Clock:  clk,
	})
	if err != nil {
		if receiver != nil {
			receiver.Close()
		}
		return nil, fmt.Errorf("failed to init journal: %w", err)
	}

	closeAll := func() {
		if receiver != nil {
			receiver.Close()
		}
		journal.Close()
	}

	binder, err := session.NewBinder(&session.Config{
		Source:      source,
		Destination: destination,
		Balances:    balances,
		Store:       session.NewFileStore(cfg.sessionPath()),
		Notifier:    deps.Notifier,
		Symbol:      asset.CHEX,
		Metrics:     m,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to init binder: %w", err)
	}

	deadline := policy.NewDeadlinePolicy(cfg.CutoffTime(), clk)
	sender, err := sending.New(&sending.Config{
		Binder:        binder,
		Amounts:       policy.DefaultAmountPolicy(),
		Deadline:      deadline,
		TokenContract: cfg.TokenContract,
		Custodian:     cfg.Custodian,
		Journal:       journal,
		Notifier:      deps.Notifier,
		Metrics:       m,
		SubmitTimeout: cfg.SubmitTimeout,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to init sender: %w", err)
	}

	return &Client{
		cfg:      cfg,
		chain:    chain,
		balances: balances,
		journal:  journal,
		metrics:  m,
		binder:   binder,
		sender:   sender,
		receiver: receiver,
		deadline: deadline,
	}, nil
}

// Start verifies the chain backend and restores a persisted source
// session, if any.
func (c *Client) Start(ctx context.Context) error {
	if !c.cfg.SkipChainCheck {
		if err := c.chain.VerifyChain(ctx, c.cfg.ChainID); err != nil {
			return fmt.Errorf("failed to verify chain: %w", err)
		}
		if err := c.balances.VerifyToken(ctx); err != nil {
			return fmt.Errorf("failed to verify token: %w", err)
		}
	}

	err := c.binder.RestoreSource(ctx)
	switch {
	case errors.Is(err, bridge.ErrNotRestorable):
		log.Debugf("No session to restore")

	case err != nil:
		// A stale session is not fatal, the user logs in again.
		log.Warnf("Unable to restore session: %v", err)
	}

	return nil
}

// Stop releases all resources and exports metrics.
func (c *Client) Stop() error {
	var errs []error
	if c.receiver != nil {
		c.receiver.Close()
	}
	if c.cfg.MetricsFile != "" {
		if err := c.metrics.WriteTextfile(c.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.journal.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Login runs the source login flow.
func (c *Client) Login(ctx context.Context) error {
	return c.binder.AttachSource(ctx)
}

// Logout detaches the source session and forgets it.
func (c *Client) Logout() error {
	return c.binder.DetachSource()
}

// ConnectDestination binds the destination wallet address.
func (c *Client) ConnectDestination(ctx context.Context) error {
	return c.binder.AttachDestination(ctx)
}

// State returns the current binding for display.
func (c *Client) State() session.State {
	return c.binder.Snapshot()
}

// WindowOpen reports whether the bridge still accepts transfers.
func (c *Client) WindowOpen() bool {
	return c.deadline.IsOpen()
}

// Check returns every reason a transfer of amount is currently invalid.
func (c *Client) Check(amount uint64) []bridge.Reason {
	return c.sender.Check(amount)
}

// Transfer submits a bridge transfer of amount whole tokens.
func (c *Client) Transfer(ctx context.Context,
	amount uint64) (*sending.Result, error) {

	return c.sender.Submit(ctx, amount)
}

// History lists journaled transfers of actor, newest first.
func (c *Client) History(ctx context.Context, actor string,
	limit int) ([]*db.TransferRecord, error) {

	return c.journal.ListTransfers(ctx, actor, limit)
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.cfg
}
