package receiving

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

const (
	methodRequestAccounts = "eth_requestAccounts"
	methodAccounts        = "eth_accounts"
)

// Receiver requests accounts from a destination wallet over JSON-RPC.
type Receiver struct {
	cfg *Config

	client *rpc.Client
}

// Dial connects to the wallet endpoint in cfg.
func Dial(ctx context.Context, cfg *Config) (*Receiver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wallet: %w", err)
	}

	log.Debugf("Connected to destination wallet at %s", cfg.Endpoint)

	return &Receiver{cfg: cfg, client: client}, nil
}

// New wraps an existing RPC client.
func New(cfg *Config, client *rpc.Client) *Receiver {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Receiver{cfg: cfg, client: client}
}

// RequestAccounts asks the wallet for its accounts, prompting the user if
// required. Wallets that do not implement eth_requestAccounts are queried
// with eth_accounts instead. Addresses are returned verbatim.
func (r *Receiver) RequestAccounts(ctx context.Context) ([]string, error) {
	if r.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RequestTimeout)
		defer cancel()
	}

	var accounts []string
	err := r.client.CallContext(ctx, &accounts, methodRequestAccounts)

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && isMethodNotFound(rpcErr) {
		log.Debugf("Wallet does not support %s, falling back to %s",
			methodRequestAccounts, methodAccounts)

		err = r.client.CallContext(ctx, &accounts, methodAccounts)
	}
	if err != nil {
		return nil, err
	}

	log.Debugf("Wallet returned %d account(s)", len(accounts))

	return accounts, nil
}

// Close closes the underlying RPC connection.
func (r *Receiver) Close() {
	r.client.Close()
}

func isMethodNotFound(err rpc.Error) bool {
	return err.ErrorCode() == -32601
}
