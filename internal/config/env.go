package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mrz1836/go-sanitize"
	"github.com/spf13/cast"

	"github.com/mrz1836/polywallet/internal/chain"
)

// Environment variable names.
const (
	EnvPrefix         = "POLYWALLET_"
	EnvHome           = "POLYWALLET_HOME"
	EnvNetwork        = "POLYWALLET_NETWORK"
	EnvOutputFormat   = "POLYWALLET_OUTPUT_FORMAT"
	EnvVerbose        = "POLYWALLET_VERBOSE"
	EnvLogLevel       = "POLYWALLET_LOG_LEVEL"
	EnvHistoryDriver  = "POLYWALLET_HISTORY_DRIVER"
	EnvHistoryDSN     = "POLYWALLET_HISTORY_DSN"
	EnvHistoryEnabled = "POLYWALLET_HISTORY"
	EnvCacheStaleness = "POLYWALLET_CACHE_STALENESS"
	EnvBatchWorkers   = "POLYWALLET_BATCH_CONCURRENCY"
	EnvSessionTTL     = "POLYWALLET_SESSION_TTL"
	EnvPassphrase     = "POLYWALLET_PASSPHRASE" // #nosec G101 -- variable name, not a credential
	EnvNoColor        = "NO_COLOR"
)

// DotEnvFile is the optional environment file read from the home directory.
const DotEnvFile = ".env"

// LoadDotEnv reads home/.env into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(home string) error {
	path := filepath.Join(ExpandHome(home), DotEnvFile)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnvironment applies POLYWALLET_* overrides to cfg. Per-chain
// endpoints and API keys are read from POLYWALLET_<CHAIN>_RPC and
// POLYWALLET_<CHAIN>_API_KEY.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}
	if v := os.Getenv(EnvNetwork); v != "" {
		if n, ok := chain.ParseNetwork(v); ok {
			cfg.Network = n
		}
	}
	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvHistoryDriver); v != "" {
		cfg.History.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		cfg.History.DSN = v
	}
	if v := os.Getenv(EnvHistoryEnabled); v != "" {
		cfg.History.Enabled = parseBool(v)
	}
	if v := os.Getenv(EnvCacheStaleness); v != "" {
		if d, err := cast.ToDurationE(v); err == nil && d >= 0 {
			cfg.Cache.Staleness = d
		}
	}
	if v := os.Getenv(EnvBatchWorkers); v != "" {
		if n, err := cast.ToIntE(v); err == nil && n > 0 {
			cfg.Batch.MaxConcurrent = n
		}
	}

	if v := os.Getenv(EnvSessionTTL); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			cfg.Session.Enabled = d > 0
			cfg.Session.TTL = d
		}
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	for _, id := range chain.AllChains() {
		prefix := EnvPrefix + strings.ToUpper(id.String()) + "_"
		rpc := os.Getenv(prefix + "RPC")
		apiKey := os.Getenv(prefix + "API_KEY")
		if rpc == "" && apiKey == "" {
			continue
		}
		cc := cfg.ConnectorConfig(id)
		if cc.Network == cfg.Network {
			cc.Network = ""
		}
		if rpc != "" {
			cc.RPCURL = SanitizeURL(rpc)
		}
		if apiKey != "" {
			cc.APIKey = strings.TrimSpace(apiKey)
		}
		cfg.SetChain(id, cc)
	}
}

// Passphrase returns the keystore passphrase from the environment.
func Passphrase() string {
	return os.Getenv(EnvPassphrase)
}

// parseBool parses a boolean string value. Unknown strings are false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	return cast.ToBool(s)
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
