package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/chain/eosrpc"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"github.com/chexbridge/manual-chex-bridge/sending"
	"github.com/chexbridge/manual-chex-bridge/wallet/keosd"
	"github.com/jessevdk/go-flags"
)

const (
	// DefaultChainID is the EOS mainnet chain id.
	DefaultChainID = "aca376f206b8fc25a6ed44dbdc66547c36c6c33e3a119ffbe" +
		"aef943642f0e906"

	defaultConfigFilename  = "chexbridge.conf"
	defaultSessionFilename = "session.json"
	defaultJournalFilename = "journal.db"
	defaultMetricsFilename = "chexbridge.prom"
	defaultLogLevel        = "info"
)

var (
	// DefaultDataDir is the default directory for bridge state.
	DefaultDataDir = defaultDataDir()

	// ErrInvalidCutoff is returned when the cutoff is not RFC 3339.
	ErrInvalidCutoff = errors.New("invalid cutoff")
)

// KeosdConfig configures the source wallet daemon.
type KeosdConfig struct {
	WalletURL  string `long:"walleturl" description:"Wallet daemon API endpoint"`
	WalletName string `long:"walletname" description:"Wallet holding the account keys"`
	Account    string `long:"account" description:"Account to log in as, prompts if empty"`
	Permission string `long:"permission" description:"Permission to sign with"`
}

// EthConfig configures the destination wallet.
type EthConfig struct {
	RPC     string `long:"rpc" description:"JSON-RPC endpoint of the destination wallet"`
	Address string `long:"address" description:"Fixed destination address, used when no wallet endpoint is set"`
}

// Config holds client configuration.
type Config struct {
	DataDir    string `long:"datadir" description:"Directory for the session, journal and metrics files"`
	ConfigFile string `long:"configfile" description:"Path to the configuration file"`
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} or SUBSYS=LEVEL pairs separated by commas"`

	ChainID        string `long:"chainid" description:"Expected chain id of the node"`
	NodeURL        string `long:"nodeurl" description:"Chain API endpoint"`
	SkipChainCheck bool   `long:"skipchaincheck" description:"Do not verify the chain id and token at start"`

	TokenContract string `long:"tokencontract" description:"Account of the token contract"`
	Custodian     string `long:"custodian" description:"Bridge custodian account receiving transfers"`
	Cutoff        string `long:"cutoff" description:"End of the bridge window, RFC 3339"`

	SubmitTimeout time.Duration `long:"submittimeout" description:"Maximum time to wait for the chain to accept a transfer"`

	MetricsFile string `long:"metricsfile" description:"Prometheus textfile written on exit, defaults to a file in the data directory"`
	NoMetrics   bool   `long:"nometrics" description:"Do not write the metrics textfile"`

	Keosd *KeosdConfig `group:"keosd" namespace:"keosd"`
	Eth   *EthConfig   `group:"eth" namespace:"eth"`

	cutoff time.Time
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:       DefaultDataDir,
		DebugLevel:    defaultLogLevel,
		ChainID:       DefaultChainID,
		NodeURL:       eosrpc.DefaultConfig().BaseURL,
		TokenContract: eosrpc.DefaultTokenContract,
		Custodian:     sending.DefaultCustodian,
		Cutoff:        policy.DefaultCutoff.Format(time.RFC3339),
		SubmitTimeout: sending.DefaultSubmitTimeout,
		Keosd: &KeosdConfig{
			WalletURL:  keosd.DefaultWalletURL,
			WalletName: keosd.DefaultWalletName,
			Permission: keosd.DefaultPermission,
		},
		Eth: &EthConfig{},
	}
}

// LoadConfig reads the ini file at path over the defaults. A missing file
// is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = filepath.Join(cfg.DataDir, defaultConfigFilename)
	}
	cfg.ConfigFile = path

	parser := flags.NewParser(cfg, flags.IgnoreUnknown)
	err := flags.NewIniParser(parser).ParseFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debugf("No config file at %s, using defaults", path)

	case err != nil:
		return nil, fmt.Errorf("unable to load config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate validates the configuration and resolves derived values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory required")
	}
	if c.NodeURL == "" {
		return keosd.ErrNodeURLRequired
	}
	if c.TokenContract == "" {
		return sending.ErrContractRequired
	}
	if c.Custodian == "" {
		return sending.ErrCustodianRequired
	}
	if c.Keosd == nil {
		c.Keosd = DefaultConfig().Keosd
	}
	if c.Eth == nil {
		c.Eth = &EthConfig{}
	}
	if c.SubmitTimeout < 0 {
		return fmt.Errorf("submit timeout must not be negative")
	}

	switch {
	case c.NoMetrics:
		c.MetricsFile = ""
	case c.MetricsFile == "":
		c.MetricsFile = DefaultMetricsFile(c.DataDir)
	}

	cutoff, err := time.Parse(time.RFC3339, c.Cutoff)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCutoff, err)
	}
	c.cutoff = cutoff.UTC()

	return nil
}

// CutoffTime returns the parsed end of the bridge window.
func (c *Config) CutoffTime() time.Time {
	return c.cutoff
}

func (c *Config) sessionPath() string {
	return filepath.Join(c.DataDir, defaultSessionFilename)
}

func (c *Config) journalPath() string {
	return filepath.Join(c.DataDir, defaultJournalFilename)
}

// DefaultMetricsFile returns the metrics textfile path inside dataDir.
func DefaultMetricsFile(dataDir string) string {
	return filepath.Join(dataDir, defaultMetricsFilename)
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".chexbridge"
	}
	return filepath.Join(dir, bridge.AppName)
}
