package keosd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	eos "github.com/eoscanada/eos-go"
	"github.com/eoscanada/eos-go/token"
	"github.com/stretchr/testify/require"
)

type staticPrompter struct {
	actor      string
	permission string
	password   string
	err        error
}

func (p *staticPrompter) Account() (string, string, error) {
	return p.actor, p.permission, p.err
}

func (p *staticPrompter) Password(string) (string, error) {
	return p.password, p.err
}

// fakeDaemon serves the chain and wallet endpoints used at login.
type fakeDaemon struct {
	mu       sync.Mutex
	unlocked bool
	password string
	accounts map[string][]string
	unlocks  int
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	d.mu.Lock()
	defer d.mu.Unlock()

	switch r.URL.Path {
	case "/v1/wallet/unlock":
		d.unlocks++

		var params []string
		_ = json.Unmarshal(body, &params)
		switch {
		case d.unlocked:
			writeAPIError(w, "wallet_unlocked_exception",
				"Already unlocked", "")
		case len(params) != 2 || params[1] != d.password:
			writeAPIError(w, "wallet_invalid_password_exception",
				"Invalid wallet password", "")
		default:
			d.unlocked = true
			_, _ = w.Write([]byte("{}"))
		}

	case "/v1/chain/get_account":
		var req struct {
			AccountName string `json:"account_name"`
		}
		_ = json.Unmarshal(body, &req)

		perms, ok := d.accounts[req.AccountName]
		if !ok {
			writeAPIError(w, "exception", "unspecified",
				"unknown key (boost::tuples::tuple<bool, "+
					"eosio::chain::name>): (0 "+req.AccountName+")")
			return
		}

		type permission struct {
			PermName string `json:"perm_name"`
			Parent   string `json:"parent"`
		}
		resp := struct {
			AccountName string       `json:"account_name"`
			Permissions []permission `json:"permissions"`
		}{AccountName: req.AccountName}
		for _, p := range perms {
			resp.Permissions = append(resp.Permissions, permission{
				PermName: p, Parent: "owner",
			})
		}
		_ = json.NewEncoder(w).Encode(resp)

	default:
		http.NotFound(w, r)
	}
}

func (d *fakeDaemon) unlockCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.unlocks
}

func writeAPIError(w http.ResponseWriter, name, what, detail string) {
	w.WriteHeader(http.StatusInternalServerError)

	details := []map[string]interface{}{}
	if detail != "" {
		details = append(details, map[string]interface{}{
			"message": detail,
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    500,
		"message": "Internal Service Error",
		"error": map[string]interface{}{
			"code":    3120007,
			"name":    name,
			"what":    what,
			"details": details,
		},
	})
}

func newTestProvider(t *testing.T, prompter Prompter) (*Provider,
	*fakeDaemon) {

	t.Helper()

	daemon := &fakeDaemon{
		password: "PW5secret",
		accounts: map[string][]string{
			"alice": {"owner", "active"},
		},
	}
	server := httptest.NewServer(daemon)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.NodeURL = server.URL
	cfg.WalletURL = server.URL + "/"
	cfg.Prompter = prompter

	p, err := New(cfg)
	require.NoError(t, err)

	return p, daemon
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.ErrorIs(t, cfg.Validate(), ErrPrompterRequired)

	cfg.Prompter = &staticPrompter{}
	cfg.WalletName = ""
	require.ErrorIs(t, cfg.Validate(), ErrWalletNameRequired)

	cfg = &Config{Prompter: &staticPrompter{}}
	require.ErrorIs(t, cfg.Validate(), ErrNodeURLRequired)
}

// TestProvider_Login tests a successful login.
func TestProvider_Login(t *testing.T) {
	t.Parallel()

	p, daemon := newTestProvider(t, &staticPrompter{
		actor: "alice", password: "PW5secret",
	})

	sess, err := p.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", sess.Actor())
	require.Equal(t, DefaultPermission, sess.Permission())

	// A second login with the wallet already unlocked succeeds.
	_, err = p.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, daemon.unlockCalls())
}

// TestProvider_LoginFailures tests the login error paths.
func TestProvider_LoginFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	p, _ := newTestProvider(t, &staticPrompter{
		actor: "alice", password: "wrong",
	})
	_, err := p.Login(ctx)
	require.ErrorContains(t, err, "unable to unlock wallet")

	p, _ = newTestProvider(t, &staticPrompter{
		actor: "alice", permission: "bridge", password: "PW5secret",
	})
	_, err = p.Login(ctx)
	require.ErrorIs(t, err, ErrPermissionNotFound)

	p, _ = newTestProvider(t, &staticPrompter{password: "PW5secret"})
	_, err = p.Login(ctx)
	require.ErrorIs(t, err, ErrLoginCancelled)

	cancelled := errors.New("interrupted")
	p, _ = newTestProvider(t, &staticPrompter{err: cancelled})
	_, err = p.Login(ctx)
	require.ErrorIs(t, err, cancelled)
}

// TestProvider_Restore tests restoring a persisted session.
func TestProvider_Restore(t *testing.T) {
	t.Parallel()

	p, daemon := newTestProvider(t, &staticPrompter{})

	sess, err := p.Restore(context.Background(), "alice", "active")
	require.NoError(t, err)
	require.Equal(t, "alice", sess.Actor())
	require.Zero(t, daemon.unlockCalls())

	_, err = p.Restore(context.Background(), "bob", "active")
	require.ErrorIs(t, err, bridge.ErrNotRestorable)
}

// TestNewTransferAction tests the conversion to a token contract action.
func TestNewTransferAction(t *testing.T) {
	t.Parallel()

	memo := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	act, err := NewTransferAction(&bridge.TransferAction{
		Contract:   "chexchexchex",
		Name:       bridge.TransferActionName,
		From:       "alice",
		Permission: "active",
		To:         "chexethbridg",
		Quantity:   "15000.00000000 CHEX",
		Memo:       memo,
	})
	require.NoError(t, err)

	require.Equal(t, eos.AN("chexchexchex"), act.Account)
	require.Equal(t, eos.ActN("transfer"), act.Name)
	require.Equal(t, []eos.PermissionLevel{{
		Actor: eos.AN("alice"), Permission: eos.PN("active"),
	}}, act.Authorization)

	transfer, ok := act.ActionData.Data.(token.Transfer)
	require.True(t, ok)
	require.Equal(t, eos.AN("chexethbridg"), transfer.To)
	require.Equal(t, memo, transfer.Memo)
	require.Equal(t, eos.Int64(1500000000000), transfer.Quantity.Amount)
	require.Equal(t, uint8(8), transfer.Quantity.Precision)
	require.Equal(t, "CHEX", transfer.Quantity.Symbol.Symbol)

	_, err = NewTransferAction(&bridge.TransferAction{Quantity: "lots"})
	require.Error(t, err)
}
