package eosrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chexbridge/manual-chex-bridge/asset"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(&Config{
		BaseURL:       url,
		RateLimit:     100,
		Timeout:       5 * time.Second,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
		CacheTTL:      time.Minute,
	})
}

// TestTokenQuery_FetchBalance tests decoding a balance row.
func TestTokenQuery_FetchBalance(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chain/get_table_rows" {
			http.NotFound(w, r)
			return
		}

		var req TableRowsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, DefaultTokenContract, req.Code)
		require.Equal(t, "accounts", req.Table)
		require.True(t, req.JSON)

		switch req.Scope {
		case "alice":
			w.Write([]byte(`{"rows":[{"balance":"25000.12345678 CHEX"}],"more":false}`))
		case "bob":
			w.Write([]byte(`{"rows":[],"more":false}`))
		case "carol":
			w.Write([]byte(`{"rows":[{"balance":"1.0000 EOS"}],"more":false}`))
		default:
			w.Write([]byte(`{"rows":[{"balance":"1.0000 CHEX"}],"more":false}`))
		}
	}))
	defer server.Close()

	query := NewTokenQuery(
		newTestClient(server.URL), DefaultTokenContract, asset.CHEX,
	)
	ctx := context.Background()

	bal, err := query.FetchBalance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "25000.12345678 CHEX", bal.String())

	// No row at all is a zero balance, not an error.
	bal, err = query.FetchBalance(ctx, "bob")
	require.NoError(t, err)
	require.True(t, bal.IsZero())
	require.Equal(t, "0.00000000 CHEX", bal.String())

	// Rows of other symbols are skipped.
	bal, err = query.FetchBalance(ctx, "carol")
	require.NoError(t, err)
	require.True(t, bal.IsZero())

	// A row with the right code but wrong precision is an error.
	_, err = query.FetchBalance(ctx, "dave")
	require.ErrorIs(t, err, asset.ErrSymbolMismatch)
}

// TestClient_Retries tests that server errors are retried and client
// errors are not.
func TestClient_Retries(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/v1/chain/get_info":
			if n == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(&InfoResponse{
				ChainID:      "abc",
				HeadBlockNum: 7,
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":400,"message":"Invalid table"}`))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	info, err := client.GetInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", info.ChainID)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))

	require.NoError(t, client.VerifyChain(ctx, "abc"))
	require.ErrorIs(t, client.VerifyChain(ctx, "def"), ErrChainIDMismatch)

	before := atomic.LoadInt32(&calls)
	_, err = client.GetTableRows(ctx, &TableRowsRequest{Code: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Invalid table", apiErr.Message)
	require.Equal(t, before+1, atomic.LoadInt32(&calls))
}

// TestClient_RetriesExhausted tests the error after all attempts fail.
func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetInfo(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 2 attempts")
}

// TestTokenQuery_VerifyToken tests the cached currency stats check.
func TestTokenQuery_VerifyToken(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chain/get_currency_stats", r.URL.Path)
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"CHEX":{"supply":"1000.00000000 CHEX",` +
			`"max_supply":"1000000000.00000000 CHEX",` +
			`"issuer":"chexchexchex"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	query := NewTokenQuery(client, DefaultTokenContract, asset.CHEX)
	require.NoError(t, query.VerifyToken(ctx))
	require.NoError(t, query.VerifyToken(ctx))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	wrongPrecision := NewTokenQuery(
		client, DefaultTokenContract,
		asset.Symbol{Precision: 4, Code: "CHEX"},
	)
	require.ErrorIs(t, wrongPrecision.VerifyToken(ctx),
		asset.ErrSymbolMismatch)

	_, err := client.GetCurrencyStats(ctx, DefaultTokenContract, "EOS")
	require.ErrorIs(t, err, ErrUnknownSymbol)
}
