// Package receiving connects the destination chain wallet and reads the
// address a transfer is credited to.
package receiving

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultRequestTimeout bounds a single account request.
	DefaultRequestTimeout = 2 * time.Minute
)

var (
	// ErrEndpointRequired is returned when no RPC endpoint is configured.
	ErrEndpointRequired = errors.New("wallet rpc endpoint required")
)

// Config holds configuration for the destination wallet.
type Config struct {
	// Endpoint is the wallet's JSON-RPC endpoint, e.g. a local signer or
	// an injected provider bridge.
	Endpoint string

	// RequestTimeout bounds a single account request. The user may need
	// to approve the request in the wallet, so this should be generous.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrEndpointRequired
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}
