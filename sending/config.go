package sending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/metrics"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"github.com/chexbridge/manual-chex-bridge/session"
)

const (
	// DefaultCustodian is the bridge-custodian account receiving
	// transfers.
	DefaultCustodian = "chexethbridg"

	// DefaultSubmitTimeout bounds a single submission.
	DefaultSubmitTimeout = time.Minute
)

var (
	// ErrBinderRequired is returned when no binder is configured.
	ErrBinderRequired = errors.New("binder is required")

	// ErrContractRequired is returned when no token contract is
	// configured.
	ErrContractRequired = errors.New("token contract is required")

	// ErrCustodianRequired is returned when no custodian is configured.
	ErrCustodianRequired = errors.New("custodian account is required")

	// ErrCutoffRequired is returned when the deadline has no cutoff.
	ErrCutoffRequired = errors.New("deadline cutoff is required")
)

// Binder is the part of session.Binder the sender reads.
type Binder interface {
	Binding() session.Binding
	IsCurrent(epoch uint64) bool
}

// Journal records every action that reached the chain.
type Journal interface {
	RecordTransfer(ctx context.Context, action *bridge.TransferAction,
		receipt *bridge.Receipt, submitErr error) error
}

// Config holds configuration for bridge transfers.
type Config struct {
	// Binder supplies the bound session and destination.
	Binder Binder

	// Amounts is the minimum and formatting policy.
	Amounts policy.AmountPolicy

	// Deadline is the bridge window.
	Deadline policy.DeadlinePolicy

	// TokenContract is the account of the token contract.
	TokenContract string

	// Custodian is the bridge-custodian account.
	Custodian string

	// Journal records submissions. Optional.
	Journal Journal

	// Notifier receives user-visible notices. Optional.
	Notifier bridge.Notifier

	// Metrics records submissions and rejections. Optional.
	Metrics *metrics.Metrics

	// SubmitTimeout bounds a single submission. Zero means no bound
	// beyond the caller's context.
	SubmitTimeout time.Duration
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Binder == nil {
		return ErrBinderRequired
	}
	if c.TokenContract == "" {
		return ErrContractRequired
	}
	if c.Custodian == "" {
		return ErrCustodianRequired
	}
	if c.Deadline.Cutoff.IsZero() {
		return ErrCutoffRequired
	}
	if c.Amounts.Symbol.Code == "" {
		return fmt.Errorf("asset symbol is required")
	}
	return nil
}
