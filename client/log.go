package client

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/chexbridge/manual-chex-bridge/chain/eosrpc"
	"github.com/chexbridge/manual-chex-bridge/db"
	"github.com/chexbridge/manual-chex-bridge/receiving"
	"github.com/chexbridge/manual-chex-bridge/sending"
	"github.com/chexbridge/manual-chex-bridge/session"
	"github.com/chexbridge/manual-chex-bridge/wallet/keosd"
)

// Subsystem defines the logging code for this subsystem.
const Subsystem = "CLNT"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests
// it.
var log = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// subsystems maps every subsystem tag to its logger setter.
var subsystems = map[string]func(btclog.Logger){
	Subsystem:           UseLogger,
	eosrpc.Subsystem:    eosrpc.UseLogger,
	session.Subsystem:   session.UseLogger,
	sending.Subsystem:   sending.UseLogger,
	receiving.Subsystem: receiving.UseLogger,
	keosd.Subsystem:     keosd.UseLogger,
	db.Subsystem:        db.UseLogger,
}

// SupportedSubsystems returns the sorted subsystem tags.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystems))
	for tag := range subsystems {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

// SetupLoggers creates a logger for every subsystem writing to w, with
// levels taken from debugLevel. debugLevel is either a single level for all
// subsystems or comma separated SUBSYS=LEVEL pairs.
func SetupLoggers(w io.Writer, debugLevel string) error {
	levels, err := parseDebugLevel(debugLevel)
	if err != nil {
		return err
	}

	backend := btclog.NewBackend(w)
	for tag, use := range subsystems {
		logger := backend.Logger(tag)
		logger.SetLevel(levels[tag])
		use(logger)
	}

	return nil
}

func parseDebugLevel(debugLevel string) (map[string]btclog.Level, error) {
	if debugLevel == "" {
		debugLevel = defaultLogLevel
	}

	levels := make(map[string]btclog.Level, len(subsystems))
	setAll := func(lvl btclog.Level) {
		for tag := range subsystems {
			levels[tag] = lvl
		}
	}

	if !strings.Contains(debugLevel, "=") {
		lvl, ok := btclog.LevelFromString(debugLevel)
		if !ok {
			return nil, fmt.Errorf("invalid debug level %q", debugLevel)
		}
		setAll(lvl)

		return levels, nil
	}

	setAll(btclog.LevelInfo)
	for _, pair := range strings.Split(debugLevel, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid debug level pair %q", pair)
		}

		tag, lvlStr := fields[0], fields[1]
		if _, ok := subsystems[tag]; !ok {
			return nil, fmt.Errorf("unknown subsystem %q, supported: "+
				"%s", tag, strings.Join(SupportedSubsystems(), ", "))
		}
		lvl, ok := btclog.LevelFromString(lvlStr)
		if !ok {
			return nil, fmt.Errorf("invalid debug level %q for %s",
				lvlStr, tag)
		}
		levels[tag] = lvl
	}

	return levels, nil
}
