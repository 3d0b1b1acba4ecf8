package receiving

import (
	"context"
	"errors"
	"testing"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

const testAddr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// walletService serves eth_requestAccounts and eth_accounts.
type walletService struct {
	accounts []string
	err      error
}

func (s *walletService) RequestAccounts() ([]string, error) {
	return s.accounts, s.err
}

func (s *walletService) Accounts() ([]string, error) {
	return s.accounts, nil
}

// legacyService serves only eth_accounts.
type legacyService struct {
	accounts []string
}

func (s *legacyService) Accounts() ([]string, error) {
	return s.accounts, nil
}

func newTestReceiver(t *testing.T, service interface{}) *Receiver {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", service))
	t.Cleanup(server.Stop)

	r := New(DefaultConfig(), rpc.DialInProc(server))
	t.Cleanup(r.Close)

	return r
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.ErrorIs(t, cfg.Validate(), ErrEndpointRequired)

	cfg.Endpoint = "http://127.0.0.1:8545"
	require.NoError(t, cfg.Validate())

	_, err := Dial(context.Background(), &Config{})
	require.ErrorIs(t, err, ErrEndpointRequired)
}

// TestReceiver_RequestAccounts tests that accounts are returned verbatim in
// wallet order.
func TestReceiver_RequestAccounts(t *testing.T) {
	t.Parallel()

	other := "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
	r := newTestReceiver(t, &walletService{
		accounts: []string{testAddr, other},
	})

	accounts, err := r.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{testAddr, other}, accounts)
}

// TestReceiver_Fallback tests the eth_accounts fallback.
func TestReceiver_Fallback(t *testing.T) {
	t.Parallel()

	r := newTestReceiver(t, &legacyService{accounts: []string{testAddr}})

	accounts, err := r.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{testAddr}, accounts)
}

// TestReceiver_Denied tests that a wallet error is returned.
func TestReceiver_Denied(t *testing.T) {
	t.Parallel()

	r := newTestReceiver(t, &walletService{
		err: errors.New("user rejected the request"),
	})

	_, err := r.RequestAccounts(context.Background())
	require.ErrorContains(t, err, "user rejected the request")
}

// TestStaticProvider tests the fixed address provider.
func TestStaticProvider(t *testing.T) {
	t.Parallel()

	accounts, err := StaticProvider{Address: testAddr}.RequestAccounts(
		context.Background(),
	)
	require.NoError(t, err)
	require.Equal(t, []string{testAddr}, accounts)

	_, err = StaticProvider{}.RequestAccounts(context.Background())
	require.ErrorIs(t, err, bridge.ErrNoAccounts)
}
