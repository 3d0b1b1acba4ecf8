package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/bridge/bridgetest"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"github.com/chexbridge/manual-chex-bridge/sending"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

const testAddr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func newChainServer(t *testing.T, chainID string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var resp interface{}
			switch r.URL.Path {
			case "/v1/chain/get_info":
				resp = map[string]interface{}{
					"chain_id":       chainID,
					"head_block_num": 1,
				}

			case "/v1/chain/get_currency_stats":
				resp = map[string]interface{}{
					"CHEX": map[string]string{
						"supply":     "100.00000000 CHEX",
						"max_supply": "1000.00000000 CHEX",
						"issuer":     "chexchexchex",
					},
				}

			case "/v1/chain/get_table_rows":
				resp = map[string]interface{}{
					"rows": []map[string]string{{
						"balance": "20000.00000000 CHEX",
					}},
					"more": false,
				}

			default:
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(resp)
		},
	))
	t.Cleanup(server.Close)

	return server
}

func newTestConfig(t *testing.T, nodeURL string) *Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.NodeURL = nodeURL

	return cfg
}

// TestLoadConfig tests reading an ini file over the defaults.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.conf"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Custodian, cfg.Custodian)

	path := filepath.Join(dir, "chexbridge.conf")
	conf := "[Application Options]\n" +
		"custodian=otherbridge1\n" +
		"cutoff=2024-12-01T00:00:00Z\n" +
		"submittimeout=30s\n" +
		"\n[keosd]\n" +
		"keosd.account=alice\n"
	require.NoError(t, os.WriteFile(path, []byte(conf), 0600))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "otherbridge1", cfg.Custodian)
	require.Equal(t, "alice", cfg.Keosd.Account)
	require.Equal(t, path, cfg.ConfigFile)
	require.Equal(t, 30*time.Second, cfg.SubmitTimeout)

	require.NoError(t, cfg.Validate())
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		cfg.CutoffTime())
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, policy.DefaultCutoff, cfg.CutoffTime())

	cfg.Cutoff = "next year"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidCutoff)

	// A malformed static address is kept and rejected at transfer time.
	cfg = DefaultConfig()
	cfg.Eth.Address = "0x1234"
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DataDir = "/data"
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultMetricsFile("/data"), cfg.MetricsFile)
	require.Equal(t, sending.DefaultSubmitTimeout, cfg.SubmitTimeout)

	cfg.NoMetrics = true
	require.NoError(t, cfg.Validate())
	require.Empty(t, cfg.MetricsFile)

	cfg = DefaultConfig()
	cfg.SubmitTimeout = -time.Second
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Custodian = ""
	require.Error(t, cfg.Validate())
}

// TestSetupLoggers tests debug level parsing.
func TestSetupLoggers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLoggers(&buf, "debug"))
	require.NoError(t, SetupLoggers(&buf, "SEND=trace,SESS=warn"))
	require.Error(t, SetupLoggers(&buf, "loud"))
	require.Error(t, SetupLoggers(&buf, "NOPE=info"))
	require.Error(t, SetupLoggers(&buf, "SEND=trace=debug"))

	levels, err := parseDebugLevel("SEND=trace")
	require.NoError(t, err)
	require.Equal(t, btclog.LevelTrace, levels["SEND"])
	require.Equal(t, btclog.LevelInfo, levels["SESS"])

	require.NoError(t, SetupLoggers(io.Discard, "off"))
}

// TestClient_Start tests that a node serving another chain is refused.
func TestClient_Start(t *testing.T) {
	t.Parallel()

	server := newChainServer(t, "deadbeef")
	cfg := newTestConfig(t, server.URL)

	c, err := New(context.Background(), cfg, &Deps{
		Source: bridgetest.NewMockSource(),
	})
	require.NoError(t, err)
	defer c.Stop()

	require.ErrorContains(t, c.Start(context.Background()),
		"chain id mismatch")
}

// TestClient_Transfer tests a full run: login, connect, transfer, history
// and restoring the session in a new run.
func TestClient_Transfer(t *testing.T) {
	t.Parallel()

	server := newChainServer(t, DefaultChainID)
	cfg := newTestConfig(t, server.URL)
	ctx := context.Background()

	sess := bridgetest.NewMockSession("alice")
	source := bridgetest.NewMockSource(sess)
	notifier := &bridgetest.RecordingNotifier{}
	clk := clock.NewTestClock(policy.DefaultCutoff.Add(-time.Hour))

	c, err := New(ctx, cfg, &Deps{
		Source:      source,
		Destination: &bridgetest.MockDestination{Accounts: []string{testAddr}},
		Notifier:    notifier,
		Clock:       clk,
	})
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx))
	require.Empty(t, source.Restores())

	require.NoError(t, c.Login(ctx))
	require.NoError(t, c.ConnectDestination(ctx))

	state := c.State()
	require.True(t, state.SourceBound)
	require.True(t, state.BalanceLoaded)
	require.Equal(t, "20000.00000000 CHEX", state.Balance.String())
	require.True(t, state.DestinationValid)

	require.Equal(t, []bridge.Reason{bridge.ReasonBelowMinimum},
		c.Check(500))

	result, err := c.Transfer(ctx, 15000)
	require.NoError(t, err)
	require.Equal(t, "15000.00000000 CHEX", result.Action.Quantity)
	require.Equal(t, testAddr, result.Action.Memo)

	history, err := c.History(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, result.Receipt.TransactionID, history[0].TxID)

	require.NoError(t, c.Stop())
	require.FileExists(t, cfg.MetricsFile)

	// A new run restores the persisted session.
	c, err = New(ctx, cfg, &Deps{Source: source, Clock: clk})
	require.NoError(t, err)
	defer c.Stop()

	require.NoError(t, c.Start(ctx))
	require.Equal(t, []string{"alice@active"}, source.Restores())
	require.True(t, c.State().SourceBound)

	// The window closes at the cutoff.
	clk.SetTime(policy.DefaultCutoff)
	_, err = c.Transfer(ctx, 15000)
	var rejErr *bridge.RejectionError
	require.ErrorAs(t, err, &rejErr)
	require.True(t, rejErr.Has(bridge.ReasonWindowClosed))
	require.True(t, rejErr.Has(bridge.ReasonInvalidDestination))
}

// TestClient_StaticInvalidAddress tests that a malformed configured address
// is bound verbatim and rejected when a transfer is checked.
func TestClient_StaticInvalidAddress(t *testing.T) {
	t.Parallel()

	server := newChainServer(t, DefaultChainID)
	cfg := newTestConfig(t, server.URL)
	cfg.Eth.Address = "0x1234"
	ctx := context.Background()

	c, err := New(ctx, cfg, &Deps{
		Source: bridgetest.NewMockSource(bridgetest.NewMockSession("alice")),
		Clock:  clock.NewTestClock(policy.DefaultCutoff.Add(-time.Hour)),
	})
	require.NoError(t, err)
	defer c.Stop()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Login(ctx))
	require.NoError(t, c.ConnectDestination(ctx))

	state := c.State()
	require.True(t, state.DestinationBound)
	require.Equal(t, "0x1234", state.Destination)
	require.False(t, state.DestinationValid)

	require.Equal(t, []bridge.Reason{bridge.ReasonInvalidDestination},
		c.Check(15000))
}

// TestClient_JournalFailure tests that New fails cleanly when the journal
// cannot be opened after the destination wallet was dialed.
func TestClient_JournalFailure(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "http://127.0.0.1:1")
	cfg.Eth.RPC = "http://127.0.0.1:1"

	// A directory where the journal file should be.
	require.NoError(t, os.MkdirAll(
		filepath.Join(cfg.DataDir, defaultJournalFilename), 0700,
	))

	_, err := New(context.Background(), cfg, &Deps{
		Source: bridgetest.NewMockSource(),
	})
	require.ErrorContains(t, err, "failed to init journal")
}
