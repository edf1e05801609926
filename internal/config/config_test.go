package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.Defaults()
	cfg.Network = chain.Testnet
	cfg.SetChain(chain.Tron, chain.ConnectorConfig{RPCURL: "https://tron.example", APIKey: "k"})
	cfg.Batch.SuiBatchDelay = time.Second
	require.NoError(t, config.Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, chain.Testnet, loaded.Network)
	assert.Equal(t, time.Second, loaded.Batch.SuiBatchDelay)

	tron := loaded.ConnectorConfig(chain.Tron)
	assert.Equal(t, "https://tron.example", tron.RPCURL)
	assert.Equal(t, "k", tron.APIKey)
	assert.Equal(t, chain.Testnet, tron.Network, "global network fills the gap")
	require.NoError(t, config.Validate(loaded))
}

func TestLoadMissingAndInvalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "absent.yaml"))
	require.ErrorIs(t, err, walleterr.ErrConfigNotFound)

	cfg, err := config.LoadOrDefault(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: [nope"), 0o600))
	_, err = config.Load(bad)
	require.ErrorIs(t, err, walleterr.ErrConfigInvalid)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.polywallet", cfg.Home)
	assert.Equal(t, chain.Mainnet, cfg.Network)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 6, cfg.Batch.SuiBatchSize)
	assert.Equal(t, 800*time.Millisecond, cfg.Batch.SuiBatchDelay)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
	require.NoError(t, config.Validate(cfg))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"bad network", func(c *config.Config) { c.Network = "devnet" }, "Network"},
		{"bad driver", func(c *config.Config) { c.History.Driver = "oracle" }, "Driver"},
		{"zero workers", func(c *config.Config) { c.Batch.MaxConcurrent = 0 }, "MaxConcurrent"},
		{"bad output", func(c *config.Config) { c.Output.DefaultFormat = "xml" }, "DefaultFormat"},
		{"unknown chain key", func(c *config.Config) {
			c.Chains["polkadot"] = chain.ConnectorConfig{}
		}, "Chains"},
		{"bad rpc url", func(c *config.Config) {
			c.SetChain(chain.Sui, chain.ConnectorConfig{RPCURL: "not a url"})
		}, "Chains[sui].RPCURL (url)"},
		{"bad chain network", func(c *config.Config) {
			c.Chains["btc"] = chain.ConnectorConfig{Network: "regtest"}
		}, "Chains[btc].Network (oneof)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults()
			tc.mutate(cfg)
			err := config.Validate(cfg)
			require.ErrorIs(t, err, walleterr.ErrConfigInvalid)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestConnectorConfigAlias(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Chains["btc"] = chain.ConnectorConfig{RPCURL: "https://btc.example", Network: chain.Testnet}

	got := cfg.ConnectorConfig(chain.Bitcoin)
	assert.Equal(t, "https://btc.example", got.RPCURL)
	assert.Equal(t, chain.Testnet, got.Network)
}

func TestPaths(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Home = "/tmp/pw"

	assert.Equal(t, "/tmp/pw/config.yaml", config.Path(cfg.Home))
	assert.Equal(t, "/tmp/pw/history.db", cfg.HistoryDSN())
	assert.Equal(t, "/tmp/pw/cache/balances.json", cfg.CachePath())
	assert.Equal(t, "/tmp/pw/keys", cfg.KeysDir())
	assert.Equal(t, "/tmp/pw/polywallet.log", cfg.LogPath())

	cfg.History.Driver = "postgres"
	cfg.History.DSN = "host=db"
	assert.Equal(t, "host=db", cfg.HistoryDSN())
}
