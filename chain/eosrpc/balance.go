package eosrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chexbridge/manual-chex-bridge/asset"
)

const (
	// DefaultTokenContract is the CHEX token contract account.
	DefaultTokenContract = "chexchexchex"

	// accountsTable is the standard token balance table.
	accountsTable = "accounts"
)

// TokenQuery reads balances of one token from its contract.
type TokenQuery struct {
	client *Client

	contract string
	symbol   asset.Symbol
}

// NewTokenQuery returns a query for symbol issued by contract.
func NewTokenQuery(client *Client, contract string,
	symbol asset.Symbol) *TokenQuery {

	return &TokenQuery{
		client:   client,
		contract: contract,
		symbol:   symbol,
	}
}

// FetchBalance returns actor's current balance of the token. An account
// without a balance row holds zero.
func (q *TokenQuery) FetchBalance(ctx context.Context,
	actor string) (asset.Asset, error) {

	resp, err := q.client.GetTableRows(ctx, &TableRowsRequest{
		Code:  q.contract,
		Scope: actor,
		Table: accountsTable,
		JSON:  true,
	})
	if err != nil {
		return asset.Zero(q.symbol), fmt.Errorf("failed to query "+
			"balance of %s: %w", actor, err)
	}

	for _, raw := range resp.Rows {
		var row AccountRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return asset.Zero(q.symbol), fmt.Errorf("failed to "+
				"decode balance row: %w", err)
		}

		bal, err := asset.Parse(row.Balance)
		if err != nil {
			return asset.Zero(q.symbol), err
		}

		// A contract may hold several symbols in the same scope.
		if bal.Symbol.Code != q.symbol.Code {
			continue
		}
		if err := bal.Expect(q.symbol); err != nil {
			return asset.Zero(q.symbol), err
		}

		log.Debugf("Fetched balance of %s: %v", actor, bal)

		return bal, nil
	}

	log.Debugf("No %s balance row for %s, treating as zero",
		q.symbol.Code, actor)

	return asset.Zero(q.symbol), nil
}

// VerifyToken checks that the contract's token definition matches the
// configured symbol precision.
func (q *TokenQuery) VerifyToken(ctx context.Context) error {
	stats, err := q.client.GetCurrencyStats(ctx, q.contract, q.symbol.Code)
	if err != nil {
		return err
	}

	maxSupply, err := asset.Parse(stats.MaxSupply)
	if err != nil {
		return fmt.Errorf("failed to decode max supply: %w", err)
	}

	return maxSupply.Expect(q.symbol)
}

// VerifyChain checks that the node serves the chain with chainID.
func (c *Client) VerifyChain(ctx context.Context, chainID string) error {
	info, err := c.GetInfo(ctx)
	if err != nil {
		return err
	}

	if info.ChainID != chainID {
		return fmt.Errorf("%w: node serves %s, want %s",
			ErrChainIDMismatch, info.ChainID, chainID)
	}

	return nil
}
