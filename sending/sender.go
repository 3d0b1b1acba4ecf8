package sending

import (
	"context"
	"fmt"
	"time"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/metrics"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"github.com/chexbridge/manual-chex-bridge/session"
	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/semaphore"
)

// Result describes a transfer that was submitted to the chain.
type Result struct {
	// Action is the submitted action.
	Action *bridge.TransferAction

	// Receipt is set when the chain accepted the action.
	Receipt *bridge.Receipt

	// Discarded is set when the source session was detached or replaced
	// while the submission was in flight. The result was not applied.
	Discarded bool
}

// Sender validates requested transfers and submits them through the bound
// source session.
//
// Sender does not enforce the bridge's one transfer per account rule. That
// rule is enforced only by the custodian's off-chain process; a second
// transfer from the same account is submitted like any other.
type Sender struct {
	cfg *Config

	busy *semaphore.Weighted
}

// New creates a new Sender.
func New(cfg *Config) (*Sender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Notifier == nil {
		cfg.Notifier = bridge.DiscardNotifier
	}

	return &Sender{
		cfg:  cfg,
		busy: semaphore.NewWeighted(1),
	}, nil
}

// Check returns every reason a transfer of amount is currently invalid, in
// a fixed order. An empty result means the transfer may be submitted.
func (s *Sender) Check(amount uint64) []bridge.Reason {
	return s.check(s.cfg.Binder.Binding(), amount, s.cfg.Deadline.Now())
}

func (s *Sender) check(b session.Binding, amount uint64,
	now time.Time) []bridge.Reason {

	// Every rule is evaluated so the user sees all of them at once.
	var reasons []bridge.Reason
	if b.Session == nil {
		reasons = append(reasons, bridge.ReasonNoSource)
	}
	if !b.DestinationBound || !policy.IsValidDestination(b.Destination) {
		reasons = append(reasons, bridge.ReasonInvalidDestination)
	}
	if !s.cfg.Amounts.IsAboveMinimum(amount) {
		reasons = append(reasons, bridge.ReasonBelowMinimum)
	}
	if !s.cfg.Deadline.IsWindowOpen(now) {
		reasons = append(reasons, bridge.ReasonWindowClosed)
	}

	return reasons
}

// BuildAction constructs the transfer action for amount from the bound
// session to the custodian, carrying the destination in the memo.
func (s *Sender) BuildAction(b session.Binding,
	amount uint64) *bridge.TransferAction {

	return &bridge.TransferAction{
		Contract:   s.cfg.TokenContract,
		Name:       bridge.TransferActionName,
		From:       b.Session.Actor(),
		Permission: b.Session.Permission(),
		To:         s.cfg.Custodian,
		Quantity:   s.cfg.Amounts.Format(amount),
		Memo:       b.Destination,
	}
}

// Submit validates a transfer of amount and, if every rule passes, submits
// exactly one action through the bound session. A rejected transfer never
// reaches the chain and is reported as a *bridge.RejectionError. A chain
// failure is returned as a *bridge.SubmissionError and is never retried.
func (s *Sender) Submit(ctx context.Context, amount uint64) (*Result, error) {
	if !s.busy.TryAcquire(1) {
		return nil, bridge.ErrBusy
	}
	defer s.busy.Release(1)

	binding := s.cfg.Binder.Binding()

	reasons := s.check(binding, amount, s.cfg.Deadline.Now())
	if len(reasons) > 0 {
		return nil, s.reject(reasons)
	}

	action := s.BuildAction(binding, amount)

	log.Infof("Submitting transfer of %s from %s to %s with memo %s",
		action.Quantity, action.From, action.To, action.Memo)
	log.Tracef("Transfer action: %v", newLogClosure(func() string {
		return spew.Sdump(action)
	}))

	if s.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SubmitTimeout)
		defer cancel()
	}

	start := time.Now()
	receipt, err := binding.Session.Transact(ctx, action)
	took := time.Since(start)

	discarded := !s.cfg.Binder.IsCurrent(binding.Epoch)

	if s.cfg.Journal != nil {
		jErr := s.cfg.Journal.RecordTransfer(ctx, action, receipt, err)
		if jErr != nil {
			log.Errorf("Unable to journal transfer: %v", jErr)
		}
	}

	result := &Result{
		Action:    action,
		Receipt:   receipt,
		Discarded: discarded,
	}

	if err != nil {
		log.Errorf("Transfer from %s rejected by chain: %v",
			action.From, err)
		s.cfg.Metrics.ObserveSubmission(metrics.ResultFailure, took)

		subErr := &bridge.SubmissionError{Err: err}
		if !discarded {
			s.cfg.Notifier.Notify(bridge.Notice{
				Kind:    bridge.KindSubmissionFailure,
				Message: err.Error(),
				Err:     subErr,
			})
		}

		return result, subErr
	}

	if discarded {
		log.Warnf("Session %s was detached during submission, "+
			"discarding result of tx %s", action.From,
			receipt.TransactionID)
		s.cfg.Metrics.ObserveSubmission(metrics.ResultDiscarded, took)

		return result, nil
	}

	log.Infof("Transfer submitted in tx %s", receipt.TransactionID)
	s.cfg.Metrics.ObserveSubmission(metrics.ResultSuccess, took)
	s.cfg.Notifier.Notify(bridge.Notice{
		Message: fmt.Sprintf("sent %s to %s, transaction %s",
			action.Quantity, action.To, receipt.TransactionID),
	})

	return result, nil
}

func (s *Sender) reject(reasons []bridge.Reason) error {
	rejErr := &bridge.RejectionError{Reasons: reasons}

	log.Debugf("Rejecting transfer: %v", rejErr)
	for _, r := range reasons {
		s.cfg.Metrics.IncRejection(r.String())
	}
	s.cfg.Metrics.ObserveSubmission(metrics.ResultRejected, 0)
	s.cfg.Notifier.Notify(bridge.Notice{
		Kind:    bridge.KindOf(rejErr),
		Message: rejErr.Error(),
		Err:     rejErr,
	})

	return rejErr
}
