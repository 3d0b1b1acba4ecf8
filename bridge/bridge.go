// Package bridge holds the domain types shared by the components of the
// manual CHEX bridge: the source-chain session contract, the destination
// wallet provider contract, the transfer action, and the error taxonomy.
package bridge

import (
	"context"
	"time"
)

const (
	// AppName identifies this application to wallets.
	AppName = "manual-chex-bridge"

	// TransferActionName is the token contract action used for transfers.
	TransferActionName = "transfer"
)

// Session is an authenticated capability to sign and submit actions as a
// single source-chain actor. Sessions are created by a SourceProvider and
// are never constructed or mutated by the bridge core.
type Session interface {
	// Actor returns the stable account identifier of the session.
	Actor() string

	// Permission returns the permission the session signs with.
	Permission() string

	// Transact signs and submits the action.
	Transact(ctx context.Context, action *TransferAction) (*Receipt, error)
}

// SourceProvider establishes source-chain sessions.
type SourceProvider interface {
	// Login runs the interactive login flow. It may fail or be cancelled.
	Login(ctx context.Context) (Session, error)

	// Restore re-establishes a session for a previously persisted actor.
	Restore(ctx context.Context, actor, permission string) (Session, error)
}

// DestinationProvider connects to a wallet on the target chain.
type DestinationProvider interface {
	// RequestAccounts asks the wallet for its accounts. The first entry
	// is the one the bridge binds.
	RequestAccounts(ctx context.Context) ([]string, error)
}

// TransferAction is the immutable on-chain instruction that encodes a
// bridge transfer. Quantity is already formatted per the asset precision
// and Memo carries the destination address verbatim.
type TransferAction struct {
	// Contract is the token contract account the action is sent to.
	Contract string

	// Name is the contract action name.
	Name string

	// From is the session actor.
	From string

	// Permission is the authorizing permission of From.
	Permission string

	// To is the bridge-custodian account.
	To string

	// Quantity is the formatted asset string, e.g. "15000.00000000 CHEX".
	Quantity string

	// Memo is the destination address on the target chain.
	Memo string
}

// Receipt is what the source chain returned for a submitted action.
type Receipt struct {
	// TransactionID is the chain transaction id.
	TransactionID string

	// SubmittedAt is the local time the submission completed.
	SubmittedAt time.Time
}
