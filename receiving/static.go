package receiving

import (
	"context"

	"github.com/chexbridge/manual-chex-bridge/bridge"
)

// StaticProvider is a destination provider for a fixed address, used when
// the address is given on the command line instead of by a wallet.
type StaticProvider struct {
	Address string
}

// RequestAccounts returns the configured address.
func (p StaticProvider) RequestAccounts(context.Context) ([]string, error) {
	if p.Address == "" {
		return nil, bridge.ErrNoAccounts
	}
	return []string{p.Address}, nil
}
