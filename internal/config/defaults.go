package config

import (
	"time"

	"github.com/mrz1836/polywallet/internal/cache"
	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/service/balance"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.polywallet",
		Network: chain.Mainnet,
		Chains:  map[string]chain.ConnectorConfig{},
		Cache: CacheConfig{
			Enabled:   true,
			Staleness: cache.DefaultStaleness,
		},
		History: HistoryConfig{
			Enabled: true,
			Driver:  "sqlite",
		},
		Batch: BatchConfig{
			MaxConcurrent: balance.DefaultMaxConcurrent,
			SuiBatchSize:  balance.SuiBatchSize,
			SuiBatchDelay: balance.SuiBatchDelay,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "",
		},
		Session: SessionConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
	}
}

// DefaultRequestTimeout bounds a single CLI command's network calls.
const DefaultRequestTimeout = 90 * time.Second
