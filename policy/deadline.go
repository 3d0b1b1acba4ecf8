package policy

import (
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// DefaultCutoff is the instant the bridge closes.
var DefaultCutoff = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeadlinePolicy encodes the bridge's open window.
type DeadlinePolicy struct {
	// Cutoff is the closing instant. The window is open strictly before
	// it.
	Cutoff time.Time

	// Clock supplies the current time for IsOpen.
	Clock clock.Clock
}

// NewDeadlinePolicy returns a policy closing at cutoff.
func NewDeadlinePolicy(cutoff time.Time, clk clock.Clock) DeadlinePolicy {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	return DeadlinePolicy{
		Cutoff: cutoff.UTC(),
		Clock:  clk,
	}
}

// IsWindowOpen reports whether now is strictly before the cutoff.
func (p DeadlinePolicy) IsWindowOpen(now time.Time) bool {
	return now.Before(p.Cutoff)
}

// Now returns the policy clock's time.
func (p DeadlinePolicy) Now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock.Now()
}

// IsOpen evaluates the window against the policy clock.
func (p DeadlinePolicy) IsOpen() bool {
	return p.IsWindowOpen(p.Now())
}
