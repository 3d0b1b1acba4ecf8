package keosd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chexbridge/manual-chex-bridge/asset"
	"github.com/chexbridge/manual-chex-bridge/bridge"
	eos "github.com/eoscanada/eos-go"
	"github.com/eoscanada/eos-go/token"
)

// Wallet daemon error names that are not failures.
const errWalletUnlocked = "wallet_unlocked_exception"

// Provider establishes sessions signed by a wallet daemon.
type Provider struct {
	cfg *Config

	node   *eos.API
	wallet *eos.API
}

// New creates a new Provider.
func New(cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	node := eos.New(cfg.NodeURL)
	wallet := eos.New(cfg.WalletURL)
	node.SetSigner(eos.NewWalletSigner(wallet, cfg.WalletName))

	return &Provider{
		cfg:    cfg,
		node:   node,
		wallet: wallet,
	}, nil
}

// Login asks for the account and wallet password, unlocks the wallet and
// checks that the account holds the permission.
func (p *Provider) Login(ctx context.Context) (bridge.Session, error) {
	actor, permission := p.cfg.Account, p.cfg.Permission
	if actor == "" {
		var err error
		actor, permission, err = p.cfg.Prompter.Account()
		if err != nil {
			return nil, err
		}
		if actor == "" {
			return nil, ErrLoginCancelled
		}
		if permission == "" {
			permission = DefaultPermission
		}
	}

	password, err := p.cfg.Prompter.Password(p.cfg.WalletName)
	if err != nil {
		return nil, err
	}

	err = p.wallet.WalletUnlock(ctx, p.cfg.WalletName, password)
	switch {
	case apiErrorName(err) == errWalletUnlocked:
		log.Debugf("Wallet %s already unlocked", p.cfg.WalletName)

	case err != nil:
		return nil, fmt.Errorf("unable to unlock wallet %s: %w",
			p.cfg.WalletName, err)
	}

	if err := p.checkAccount(ctx, actor, permission); err != nil {
		return nil, err
	}

	log.Infof("Logged in as %s@%s", actor, permission)

	return &Session{
		api:        p.node,
		actor:      actor,
		permission: permission,
	}, nil
}

// Restore re-establishes a session for actor without unlocking the wallet.
// If the wallet has since been locked, the first Transact will fail.
func (p *Provider) Restore(ctx context.Context, actor,
	permission string) (bridge.Session, error) {

	err := p.checkAccount(ctx, actor, permission)
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrPermissionNotFound):

		return nil, fmt.Errorf("%w: %v", bridge.ErrNotRestorable, err)

	case err != nil:
		return nil, err
	}

	return &Session{
		api:        p.node,
		actor:      actor,
		permission: permission,
	}, nil
}

func (p *Provider) checkAccount(ctx context.Context, actor,
	permission string) error {

	acct, err := p.node.GetAccount(ctx, eos.AN(actor))
	if err != nil {
		if isUnknownAccount(err) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, actor)
		}
		return fmt.Errorf("unable to fetch account %s: %w", actor, err)
	}

	for _, perm := range acct.Permissions {
		if perm.PermName == permission {
			return nil
		}
	}

	return fmt.Errorf("%w: %s@%s", ErrPermissionNotFound, actor, permission)
}

// Session signs with the wallet daemon and pushes to the chain node.
type Session struct {
	api        *eos.API
	actor      string
	permission string
}

// Actor returns the session account.
func (s *Session) Actor() string {
	return s.actor
}

// Permission returns the permission the session signs with.
func (s *Session) Permission() string {
	return s.permission
}

// Transact signs and pushes action in a single transaction. It is never
// retried.
func (s *Session) Transact(ctx context.Context,
	action *bridge.TransferAction) (*bridge.Receipt, error) {

	eosAction, err := NewTransferAction(action)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.SignPushActions(ctx, eosAction)
	if err != nil {
		return nil, errors.New(apiErrorMessage(err))
	}

	return &bridge.Receipt{
		TransactionID: resp.TransactionID,
		SubmittedAt:   time.Now().UTC(),
	}, nil
}

// NewTransferAction converts a transfer into a token contract action
// authorized by the transfer's sender.
func NewTransferAction(action *bridge.TransferAction) (*eos.Action, error) {
	qty, err := asset.Parse(action.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", action.Quantity,
			err)
	}
	quantity := eos.Asset{
		Amount: eos.Int64(qty.Units()),
		Symbol: eos.Symbol{
			Precision: qty.Symbol.Precision,
			Symbol:    qty.Symbol.Code,
		},
	}

	return &eos.Action{
		Account: eos.AN(action.Contract),
		Name:    eos.ActN(action.Name),
		Authorization: []eos.PermissionLevel{{
			Actor:      eos.AN(action.From),
			Permission: eos.PN(action.Permission),
		}},
		ActionData: eos.NewActionData(token.Transfer{
			From:     eos.AN(action.From),
			To:       eos.AN(action.To),
			Quantity: quantity,
			Memo:     action.Memo,
		}),
	}, nil
}

func asAPIError(err error) (*eos.APIError, bool) {
	if err == nil {
		return nil, false
	}

	var ptr *eos.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr, true
	}
	var val eos.APIError
	if errors.As(err, &val) {
		return &val, true
	}

	return nil, false
}

func apiErrorName(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return ""
	}
	return apiErr.ErrorStruct.Name
}

// apiErrorMessage returns the most specific message the node gave for err,
// which is what users see when a push fails.
func apiErrorMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	for _, detail := range apiErr.ErrorStruct.Details {
		if detail.Message != "" {
			return detail.Message
		}
	}
	if apiErr.ErrorStruct.What != "" {
		return apiErr.ErrorStruct.What
	}

	return err.Error()
}

func isUnknownAccount(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	if apiErr.ErrorStruct.Name == "account_query_exception" {
		return true
	}
	for _, detail := range apiErr.ErrorStruct.Details {
		if strings.Contains(detail.Message, "unknown key") ||
			strings.Contains(detail.Message, "does not exist") {

			return true
		}
	}

	return false
}
