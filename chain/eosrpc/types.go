package eosrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownSymbol is returned when a contract has no stats for a
	// symbol.
	ErrUnknownSymbol = errors.New("unknown token symbol")

	// ErrChainIDMismatch is returned when the node serves another chain.
	ErrChainIDMismatch = errors.New("chain id mismatch")
)

// InfoResponse is the subset of get_info the bridge uses.
type InfoResponse struct {
	ChainID           string `json:"chain_id"`
	HeadBlockNum      uint32 `json:"head_block_num"`
	HeadBlockTime     string `json:"head_block_time"`
	ServerVersion     string `json:"server_version"`
	ServerVersionText string `json:"server_version_string,omitempty"`
}

// TableRowsRequest is the body of get_table_rows.
type TableRowsRequest struct {
	Code  string `json:"code"`
	Scope string `json:"scope"`
	Table string `json:"table"`
	JSON  bool   `json:"json"`
	Limit uint32 `json:"limit,omitempty"`
}

// TableRowsResponse is the result of get_table_rows.
type TableRowsResponse struct {
	Rows []json.RawMessage `json:"rows"`
	More bool              `json:"more"`
}

// AccountRow is a row of a token contract's "accounts" table.
type AccountRow struct {
	Balance string `json:"balance"`
}

type currencyStatsRequest struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// CurrencyStats is a token's stats entry.
type CurrencyStats struct {
	Supply    string `json:"supply"`
	MaxSupply string `json:"max_supply"`
	Issuer    string `json:"issuer"`
}

// APIError is a non-success response from the node.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Body       string
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Body:       string(body),
	}
	_ = json.Unmarshal(body, apiErr)

	return apiErr
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chain api error (%d): %s", e.StatusCode,
			e.Message)
	}
	return fmt.Sprintf("chain api error (%d): %s", e.StatusCode, e.Body)
}
