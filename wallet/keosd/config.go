// Package keosd provides source-chain sessions backed by an EOSIO wallet
// daemon. Keys never leave the daemon; the bridge only asks it to sign.
package keosd

import "strings"

const (
	// DefaultNodeURL is the public chain API endpoint.
	DefaultNodeURL = "https://eos.greymass.com"

	// DefaultWalletURL is the local wallet daemon endpoint.
	DefaultWalletURL = "http://127.0.0.1:8900"

	// DefaultWalletName is the wallet unlocked at login.
	DefaultWalletName = "default"

	// DefaultPermission is the permission sessions sign with.
	DefaultPermission = "active"
)

// Prompter asks the user for login details.
type Prompter interface {
	// Account returns the account and permission to log in as.
	Account() (actor, permission string, err error)

	// Password returns the password of the named wallet.
	Password(wallet string) (string, error)
}

// Config holds configuration for the wallet daemon provider.
type Config struct {
	// NodeURL is the chain API used to look up accounts and push
	// transactions.
	NodeURL string

	// WalletURL is the wallet daemon API used for signing.
	WalletURL string

	// WalletName is the daemon wallet holding the account keys.
	WalletName string

	// Account, if set, is used instead of prompting for one.
	Account string

	// Permission is used with Account. Defaults to DefaultPermission.
	Permission string

	// Prompter asks for the account and wallet password.
	Prompter Prompter
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeURL:    DefaultNodeURL,
		WalletURL:  DefaultWalletURL,
		WalletName: DefaultWalletName,
		Permission: DefaultPermission,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.NodeURL == "" {
		return ErrNodeURLRequired
	}
	if c.WalletURL == "" {
		return ErrWalletURLRequired
	}
	if c.WalletName == "" {
		return ErrWalletNameRequired
	}
	if c.Prompter == nil {
		return ErrPrompterRequired
	}
	c.NodeURL = strings.TrimRight(c.NodeURL, "/")
	c.WalletURL = strings.TrimRight(c.WalletURL, "/")
	if c.Permission == "" {
		c.Permission = DefaultPermission
	}
	return nil
}
