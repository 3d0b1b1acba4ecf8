// Package bridgetest provides in-memory doubles of the bridge's external
// collaborators for use in tests.
package bridgetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chexbridge/manual-chex-bridge/asset"
	"github.com/chexbridge/manual-chex-bridge/bridge"
)

// MockSession is a bridge.Session that records submitted actions.
type MockSession struct {
	actor      string
	permission string

	// Gate, if set, blocks Transact until it is closed or receives.
	Gate chan struct{}

	// Started, if set, receives once Transact is entered.
	Started chan struct{}

	// Err is returned by Transact when set.
	Err error

	mu      sync.Mutex
	actions []*bridge.TransferAction
}

// NewMockSession returns a session for actor@active.
func NewMockSession(actor string) *MockSession {
	return &MockSession{actor: actor, permission: "active"}
}

// Actor returns the session actor.
func (s *MockSession) Actor() string {
	return s.actor
}

// Permission returns the session permission.
func (s *MockSession) Permission() string {
	return s.permission
}

// Transact records the action and returns a receipt or Err.
func (s *MockSession) Transact(ctx context.Context,
	action *bridge.TransferAction) (*bridge.Receipt, error) {

	s.mu.Lock()
	s.actions = append(s.actions, action)
	n := len(s.actions)
	s.mu.Unlock()

	if s.Started != nil {
		s.Started <- struct{}{}
	}
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.Err != nil {
		return nil, s.Err
	}

	return &bridge.Receipt{
		TransactionID: fmt.Sprintf("%s-tx-%d", s.actor, n),
		SubmittedAt:   time.Now(),
	}, nil
}

// Actions returns the submitted actions.
func (s *MockSession) Actions() []*bridge.TransferAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*bridge.TransferAction(nil), s.actions...)
}

// MockSource is a bridge.SourceProvider handing out queued sessions.
type MockSource struct {
	// Err is returned by Login and Restore when set.
	Err error

	// Gate, if set, blocks Login until it receives or is closed.
	Gate chan struct{}

	// Started, if set, receives once Login is entered.
	Started chan struct{}

	mu       sync.Mutex
	queue    []bridge.Session
	logins   int
	restores []string
}

// NewMockSource returns a provider that returns sessions in order.
func NewMockSource(sessions ...bridge.Session) *MockSource {
	return &MockSource{queue: sessions}
}

// Login pops the next queued session.
func (p *MockSource) Login(ctx context.Context) (bridge.Session, error) {
	p.mu.Lock()
	p.logins++
	p.mu.Unlock()

	if p.Started != nil {
		p.Started <- struct{}{}
	}
	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.Err != nil {
		return nil, p.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return nil, fmt.Errorf("login cancelled")
	}
	sess := p.queue[0]
	p.queue = p.queue[1:]

	return sess, nil
}

// Restore returns a fresh session for actor.
func (p *MockSource) Restore(_ context.Context, actor,
	permission string) (bridge.Session, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	p.restores = append(p.restores, actor+"@"+permission)

	return &MockSession{actor: actor, permission: permission}, nil
}

// Logins returns the number of Login calls.
func (p *MockSource) Logins() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.logins
}

// Restores returns the restored actor@permission pairs.
func (p *MockSource) Restores() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.restores...)
}

// MockDestination is a bridge.DestinationProvider.
type MockDestination struct {
	Accounts []string
	Err      error

	// Gate, if set, blocks RequestAccounts until it receives or is
	// closed.
	Gate chan struct{}

	// Started, if set, receives once RequestAccounts is entered.
	Started chan struct{}
}

// RequestAccounts returns Accounts or Err.
func (p *MockDestination) RequestAccounts(ctx context.Context) ([]string,
	error) {

	if p.Started != nil {
		p.Started <- struct{}{}
	}
	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.Err != nil {
		return nil, p.Err
	}
	return p.Accounts, nil
}

// MockBalances serves balances per actor and can hold queries back to
// simulate out of order resolution.
type MockBalances struct {
	// InFlight, if set, receives the actor of every query on entry.
	InFlight chan string

	mu       sync.Mutex
	balances map[string]asset.Asset
	errs     map[string]error
	gates    map[string]chan struct{}
	calls    map[string]int
}

// NewMockBalances returns an empty balance source.
func NewMockBalances() *MockBalances {
	return &MockBalances{
		balances: make(map[string]asset.Asset),
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// Set sets the balance returned for actor.
func (m *MockBalances) Set(actor string, bal asset.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[actor] = bal
}

// Fail makes queries for actor return err.
func (m *MockBalances) Fail(actor string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs[actor] = err
}

// Hold blocks queries for actor until the returned channel is closed.
func (m *MockBalances) Hold(actor string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	gate := make(chan struct{})
	m.gates[actor] = gate

	return gate
}

// FetchBalance returns the configured balance of actor.
func (m *MockBalances) FetchBalance(ctx context.Context,
	actor string) (asset.Asset, error) {

	m.mu.Lock()
	m.calls[actor]++
	gate := m.gates[actor]
	m.mu.Unlock()

	if m.InFlight != nil {
		m.InFlight <- actor
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return asset.Asset{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.errs[actor]; err != nil {
		return asset.Asset{}, err
	}
	bal, ok := m.balances[actor]
	if !ok {
		return asset.Zero(asset.CHEX), nil
	}

	return bal, nil
}

// Calls returns the number of queries issued for actor.
func (m *MockBalances) Calls(actor string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls[actor]
}

// RecordingNotifier collects notices.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []bridge.Notice
}

// Notify records n.
func (r *RecordingNotifier) Notify(n bridge.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)
}

// Notices returns the recorded notices.
func (r *RecordingNotifier) Notices() []bridge.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]bridge.Notice(nil), r.notices...)
}
