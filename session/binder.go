// Package session binds the two independently authenticated halves of a
// bridge transfer: the source-chain session and the destination address.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chexbridge/manual-chex-bridge/asset"
	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/metrics"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrSourceProviderRequired is returned when no source provider is
	// configured.
	ErrSourceProviderRequired = errors.New("source provider is required")

	// ErrBalanceQueryRequired is returned when no balance query is
	// configured.
	ErrBalanceQueryRequired = errors.New("balance query is required")

	// ErrNoDestinationProvider is returned by AttachDestination when no
	// destination provider is configured.
	ErrNoDestinationProvider = errors.New("no destination wallet configured")
)

// Provider names used in errors and metrics.
const (
	providerSource      = "source wallet"
	providerDestination = "destination wallet"
	providerBalance     = "balance query"
)

// BalanceQuery reads the source-chain balance of an actor.
type BalanceQuery interface {
	FetchBalance(ctx context.Context, actor string) (asset.Asset, error)
}

// Config holds configuration for the binder.
type Config struct {
	// Source establishes source-chain sessions.
	Source bridge.SourceProvider

	// Destination connects the target chain wallet. Optional.
	Destination bridge.DestinationProvider

	// Balances reads balances after each source attach.
	Balances BalanceQuery

	// Store persists the bound source session. Optional.
	Store Store

	// Notifier receives user-visible notices. Optional.
	Notifier bridge.Notifier

	// Symbol is the bridged asset, used for the zero balance.
	Symbol asset.Symbol

	// Metrics records provider failures and balance queries. Optional.
	Metrics *metrics.Metrics
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source == nil {
		return ErrSourceProviderRequired
	}
	if c.Balances == nil {
		return ErrBalanceQueryRequired
	}
	return nil
}

// State is a snapshot of the binding for display.
type State struct {
	SourceBound bool
	Actor       string
	Permission  string

	DestinationBound bool
	Destination      string

	// DestinationValid is recomputed from Destination on every
	// snapshot.
	DestinationValid bool

	Balance       asset.Asset
	BalanceLoaded bool
	BalanceErr    error
}

// Binding is what a transfer is built from.
type Binding struct {
	Session bridge.Session

	// Epoch identifies the source attach the session belongs to.
	Epoch uint64

	Destination      string
	DestinationBound bool
}

// Binder holds at most one source session and at most one destination
// address. The two halves are attached and detached independently.
type Binder struct {
	cfg *Config

	sourceBusy      *semaphore.Weighted
	destinationBusy *semaphore.Weighted

	mu sync.Mutex

	session bridge.Session

	// epoch increases on every source attach and detach. In-flight
	// results tagged with an older epoch are discarded.
	epoch uint64

	destination      string
	destinationBound bool

	balance       asset.Asset
	balanceLoaded bool
	balanceErr    error
}

// NewBinder creates a new Binder with both halves unbound.
func NewBinder(cfg *Config) (*Binder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Notifier == nil {
		cfg.Notifier = bridge.DiscardNotifier
	}

	return &Binder{
		cfg:             cfg,
		sourceBusy:      semaphore.NewWeighted(1),
		destinationBusy: semaphore.NewWeighted(1),
		balance:         asset.Zero(cfg.Symbol),
	}, nil
}

// AttachSource runs the source login flow and binds the resulting session,
// replacing any previous one. On success the balance is queried exactly
// once for the new session. A balance failure does not undo the attach;
// it is reported through the notifier and the snapshot.
func (b *Binder) AttachSource(ctx context.Context) error {
	return b.attachSource(ctx, true, b.cfg.Source.Login)
}

// RestoreSource re-establishes the persisted source session, if any. A
// restored session is handled exactly like a freshly attached one.
func (b *Binder) RestoreSource(ctx context.Context) error {
	if b.cfg.Store == nil {
		return bridge.ErrNotRestorable
	}

	rec, err := b.cfg.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if rec == nil {
		return bridge.ErrNotRestorable
	}

	log.Infof("Restoring session for %s@%s", rec.Actor, rec.Permission)

	return b.attachSource(ctx, false, func(
		ctx context.Context) (bridge.Session, error) {

		return b.cfg.Source.Restore(ctx, rec.Actor, rec.Permission)
	})
}

func (b *Binder) attachSource(ctx context.Context, persist bool,
	login func(context.Context) (bridge.Session, error)) error {

	if !b.sourceBusy.TryAcquire(1) {
		return bridge.ErrBusy
	}

	sess, err := login(ctx)
	if err == nil && sess == nil {
		err = errors.New("provider returned no session")
	}
	if err != nil {
		b.sourceBusy.Release(1)
		return b.providerFailure(providerSource, err)
	}

	b.mu.Lock()
	b.epoch++
	epoch := b.epoch
	b.session = sess
	b.balance = asset.Zero(b.cfg.Symbol)
	b.balanceLoaded = false
	b.balanceErr = nil

	// The store is only touched under the lock so a concurrent detach
	// always clears after the save.
	if persist && b.cfg.Store != nil {
		err := b.cfg.Store.Save(&Record{
			Actor:      sess.Actor(),
			Permission: sess.Permission(),
			BoundAt:    time.Now().UTC(),
		})
		if err != nil {
			log.Warnf("Unable to persist session: %v", err)
		}
	}
	b.mu.Unlock()

	log.Infof("Source session bound: actor=%s, permission=%s, epoch=%d",
		sess.Actor(), sess.Permission(), epoch)

	// The attach is complete once the session is bound, the balance
	// query is issued strictly after it.
	b.sourceBusy.Release(1)

	b.refreshBalance(ctx, epoch, sess)

	return nil
}

// refreshBalance queries the balance of sess and applies it only if epoch
// is still the current source binding.
func (b *Binder) refreshBalance(ctx context.Context, epoch uint64,
	sess bridge.Session) {

	bal, err := b.cfg.Balances.FetchBalance(ctx, sess.Actor())

	b.mu.Lock()
	if epoch != b.epoch {
		current := b.epoch
		b.mu.Unlock()

		log.Debugf("Discarding balance of %s for superseded epoch %d "+
			"(current %d)", sess.Actor(), epoch, current)
		b.cfg.Metrics.IncBalanceQuery(metrics.BalanceStale)

		return
	}

	if err != nil {
		b.balance = asset.Zero(b.cfg.Symbol)
		b.balanceLoaded = false
		b.balanceErr = &bridge.ProviderError{
			Provider: providerBalance,
			Err:      err,
		}
		b.mu.Unlock()

		log.Errorf("Balance query for %s failed: %v", sess.Actor(), err)
		b.cfg.Metrics.IncBalanceQuery(metrics.BalanceError)
		b.cfg.Metrics.IncProviderFailure(providerBalance)
		b.cfg.Notifier.Notify(bridge.Notice{
			Kind:    bridge.KindExternalProviderFailure,
			Message: "unable to load balance",
			Err:     err,
		})

		return
	}

	b.balance = bal
	b.balanceLoaded = true
	b.balanceErr = nil
	b.mu.Unlock()

	b.cfg.Metrics.IncBalanceQuery(metrics.BalanceOK)
}

// AttachDestination connects the destination wallet and binds the first
// address it returns, verbatim. Validation happens when the address is
// displayed or used.
func (b *Binder) AttachDestination(ctx context.Context) error {
	if b.cfg.Destination == nil {
		return ErrNoDestinationProvider
	}
	if !b.destinationBusy.TryAcquire(1) {
		return bridge.ErrBusy
	}
	defer b.destinationBusy.Release(1)

	accounts, err := b.cfg.Destination.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = bridge.ErrNoAccounts
	}
	if err != nil {
		return b.providerFailure(providerDestination, err)
	}

	b.mu.Lock()
	b.destination = accounts[0]
	b.destinationBound = true
	b.mu.Unlock()

	log.Infof("Destination address bound: %s", accounts[0])

	return nil
}

// DetachSource returns the source half to its unbound state and forgets
// the persisted session. In-flight results for the old session are
// discarded.
func (b *Binder) DetachSource() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasBound := b.session != nil
	b.epoch++
	b.session = nil
	b.balance = asset.Zero(b.cfg.Symbol)
	b.balanceLoaded = false
	b.balanceErr = nil

	if wasBound {
		log.Infof("Source session detached")
	}

	if b.cfg.Store != nil {
		return b.cfg.Store.Clear()
	}

	return nil
}

// DetachDestination returns the destination half to its unbound state.
func (b *Binder) DetachDestination() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.destination = ""
	b.destinationBound = false
}

// Snapshot returns the current display state.
func (b *Binder) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := State{
		DestinationBound: b.destinationBound,
		Destination:      b.destination,
		DestinationValid: b.destinationBound &&
			policy.IsValidDestination(b.destination),
		Balance:       b.balance,
		BalanceLoaded: b.balanceLoaded,
		BalanceErr:    b.balanceErr,
	}
	if b.session != nil {
		s.SourceBound = true
		s.Actor = b.session.Actor()
		s.Permission = b.session.Permission()
	}

	return s
}

// Binding returns the current session and destination.
func (b *Binder) Binding() Binding {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Binding{
		Session:          b.session,
		Epoch:            b.epoch,
		Destination:      b.destination,
		DestinationBound: b.destinationBound,
	}
}

// IsCurrent reports whether epoch is still the live source binding.
func (b *Binder) IsCurrent(epoch uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.session != nil && b.epoch == epoch
}

func (b *Binder) providerFailure(provider string, err error) error {
	provErr := &bridge.ProviderError{Provider: provider, Err: err}

	log.Errorf("%v", provErr)
	b.cfg.Metrics.IncProviderFailure(provider)
	b.cfg.Notifier.Notify(bridge.Notice{
		Kind:    bridge.KindExternalProviderFailure,
		Message: provider + " unavailable",
		Err:     err,
	})

	return provErr
}
