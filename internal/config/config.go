// Package config loads the polywallet YAML configuration, applies
// environment overrides and validates the result.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/fileutil"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version" validate:"gte=1"`
	Home    string        `yaml:"home" validate:"required"`
	Network chain.Network `yaml:"network" validate:"oneof=mainnet testnet"`

	// Chains holds per-chain connector overrides keyed by chain id.
	Chains  map[string]chain.ConnectorConfig `yaml:"chains,omitempty" validate:"dive,keys,chainid,endkeys"`
	Cache   CacheConfig                      `yaml:"cache"`
	History HistoryConfig                    `yaml:"history"`
	Batch   BatchConfig                      `yaml:"batch"`
	Output  OutputConfig                     `yaml:"output"`
	Logging LoggingConfig                    `yaml:"logging"`
	Session SessionConfig                    `yaml:"session"`
}

// CacheConfig defines balance cache settings.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Staleness time.Duration `yaml:"staleness" validate:"gte=0"`
}

// HistoryConfig selects the transaction history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver" validate:"oneof=sqlite postgres"`
	// DSN is a file path for sqlite or a connection string for postgres.
	// An empty sqlite DSN means $HOME/history.db.
	DSN string `yaml:"dsn,omitempty"`
}

// BatchConfig tunes batch balance queries.
type BatchConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent" validate:"gte=1,lte=64"`
	SuiBatchSize  int           `yaml:"sui_batch_size" validate:"gte=1"`
	SuiBatchDelay time.Duration `yaml:"sui_batch_delay" validate:"gte=0"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" validate:"oneof=auto text json"`
	Color         string `yaml:"color" validate:"oneof=auto always never"`
	Verbose       bool   `yaml:"verbose"`
}

// SessionConfig controls keystore passphrase caching in the OS keychain.
type SessionConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0,lte=1h"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=off none error debug"`
	File  string `yaml:"file"`
}

// Load reads configuration from path on top of Defaults.
// A missing file yields ErrConfigNotFound.
func Load(path string) (*Config, error) {
	data, err := fileutil.ReadIfExists(path)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, walleterr.WithDetails(walleterr.ErrConfigNotFound, map[string]string{"path": path})
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, walleterr.WithCause(walleterr.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load with defaults for a missing file.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, walleterr.ErrConfigNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Validate checks the struct tags of cfg and of every per-chain override.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("chainid", func(fl validator.FieldLevel) bool {
		_, ok := chain.ParseChainID(fl.Field().String())
		return ok
	}); err != nil {
		return err
	}

	var fields []string
	if err := collectInvalid(v.Struct(cfg), "", &fields); err != nil {
		return walleterr.WithCause(walleterr.ErrConfigInvalid, err)
	}

	keys := make([]string, 0, len(cfg.Chains))
	for key := range cfg.Chains {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		prefix := "Config.Chains[" + key + "]"
		if err := collectInvalid(v.Struct(cfg.Chains[key]), prefix, &fields); err != nil {
			return walleterr.WithCause(walleterr.ErrConfigInvalid, err)
		}
	}

	if len(fields) > 0 {
		return walleterr.WithDetails(walleterr.ErrConfigInvalid, map[string]string{
			"fields": strings.Join(fields, ", "),
		})
	}
	return nil
}

// collectInvalid appends the failing fields of err to fields. Errors that
// are not field failures are returned as is.
func collectInvalid(err error, prefix string, fields *[]string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		name := fe.Namespace()
		if prefix != "" {
			name = prefix + "." + fe.Field()
		}
		*fields = append(*fields, name+" ("+fe.Tag()+")")
	}
	return nil
}

// Path returns the config file path under home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// ConnectorConfig returns the connector settings for id: the per-chain
// override with the global network filled in. Overrides key on the
// canonical id or any alias ParseChainID accepts.
func (c *Config) ConnectorConfig(id chain.ID) chain.ConnectorConfig {
	cfg, ok := c.Chains[id.String()]
	if !ok {
		keys := make([]string, 0, len(c.Chains))
		for key := range c.Chains {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if parsed, valid := chain.ParseChainID(key); valid && parsed == id {
				cfg = c.Chains[key]
				break
			}
		}
	}
	if cfg.Network == "" {
		cfg.Network = c.Network
	}
	return cfg
}

// SetChain stores an override for id.
func (c *Config) SetChain(id chain.ID, cfg chain.ConnectorConfig) {
	if c.Chains == nil {
		c.Chains = make(map[string]chain.ConnectorConfig)
	}
	c.Chains[id.String()] = cfg
}

// HistoryDSN returns the history DSN, defaulting sqlite to $HOME/history.db.
func (c *Config) HistoryDSN() string {
	if c.History.DSN == "" && c.History.Driver == "sqlite" {
		return filepath.Join(ExpandHome(c.Home), "history.db")
	}
	return c.History.DSN
}

// CachePath returns the balance cache file path.
func (c *Config) CachePath() string {
	return filepath.Join(ExpandHome(c.Home), "cache", "balances.json")
}

// KeysDir returns the encrypted key directory.
func (c *Config) KeysDir() string {
	return filepath.Join(ExpandHome(c.Home), "keys")
}

// SessionsDir returns the session file directory.
func (c *Config) SessionsDir() string {
	return filepath.Join(ExpandHome(c.Home), "sessions")
}

// LogPath returns the expanded log file path.
func (c *Config) LogPath() string {
	if c.Logging.File == "" {
		return filepath.Join(ExpandHome(c.Home), "polywallet.log")
	}
	return ExpandHome(c.Logging.File)
}

// DefaultHome returns the default polywallet home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".polywallet"
	}
	return filepath.Join(home, ".polywallet")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
