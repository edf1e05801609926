package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mrz1836/polywallet/internal/cache"
	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/history"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/metrics"
	"github.com/mrz1836/polywallet/internal/output"
	"github.com/mrz1836/polywallet/internal/service/balance"
	"github.com/mrz1836/polywallet/internal/session"
	"github.com/mrz1836/polywallet/internal/wallet"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    chain.LogWriter
	Formatter *output.Formatter
	Keys      *keystore.Store
	Registry  Registry
	History   HistoryReader
	Cache     *cache.BalanceCache
	Metrics   *metrics.Metrics
	// Sessions caches the keystore passphrase; nil when disabled.
	Sessions session.Manager

	cacheStore *cache.FileStorage
	closers    []io.Closer
}

// newCommandContextFn builds the context commands run with. Tests replace it.
//
//nolint:gochecknoglobals // test seam
var newCommandContextFn = NewCommandContext

// NewCommandContext wires the keystore, history, cache and registry from
// the loaded configuration. History and cache failures degrade to warnings.
func NewCommandContext(cfg *config.Config, log *config.Logger, f *output.Formatter) (*CommandContext, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded") //nolint:err113 // programming error
	}
	if log == nil {
		log = config.NullLogger()
	}

	cc := &CommandContext{
		Config:    cfg,
		Logger:    log.Named("cli"),
		Formatter: f,
		Keys:      keystore.NewStore(cfg.KeysDir()),
		Metrics:   metrics.Global,
	}

	opts := []wallet.Option{
		wallet.WithLogger(log.Named("wallet")),
		wallet.WithMetrics(cc.Metrics),
		wallet.WithChainOptions(chain.Options{Logger: log.Named("chain")}),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Driver, cfg.HistoryDSN())
		if err != nil {
			log.Error("history disabled: %v", err)
			output.Warnf("transaction history unavailable: %v", err)
		} else {
			cc.History = store
			cc.closers = append(cc.closers, store)
			opts = append(opts, wallet.WithHistory(store))
		}
	}

	if cfg.Cache.Enabled {
		cc.cacheStore = cache.NewFileStorage(cfg.CachePath())
		loaded, err := cc.cacheStore.Load()
		if err != nil {
			log.Error("balance cache reset: %v", err)
			loaded = cache.NewBalanceCache()
		}
		cc.Cache = loaded
	}

	if cfg.Session.Enabled {
		if mgr := session.NewManager(cfg.SessionsDir(), nil); mgr.Available() {
			cc.Sessions = mgr
		} else {
			log.Debug("os keyring unavailable; passphrase sessions disabled")
		}
	}

	cc.Registry = wallet.New(opts...)
	return cc, nil
}

// Balances returns a balance service over the registry and cache.
func (c *CommandContext) Balances(forceRefresh bool) *balance.Service {
	bc := &balance.Config{
		Reader:        c.Registry,
		Logger:        c.Logger,
		Metrics:       c.Metrics,
		MaxConcurrent: c.Config.Batch.MaxConcurrent,
		SuiBatchSize:  c.Config.Batch.SuiBatchSize,
		SuiBatchDelay: c.Config.Batch.SuiBatchDelay,
		Staleness:     c.Config.Cache.Staleness,
		ForceRefresh:  forceRefresh,
	}
	if c.Cache != nil {
		bc.Cache = c.Cache
	}
	return balance.NewService(bc)
}

// Out returns the writer command results go to.
func (c *CommandContext) Out() io.Writer {
	return c.Formatter.Writer()
}

// Close saves the cache, disconnects every chain and closes the history store.
func (c *CommandContext) Close() error {
	var errs []error
	if c.Registry != nil {
		for _, conn := range c.Registry.Connections() {
			if err := c.Registry.Disconnect(context.Background(), conn.Chain); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if c.cacheStore != nil && c.Cache != nil {
		if err := c.cacheStore.Save(c.Cache); err != nil {
			errs = append(errs, fmt.Errorf("saving balance cache: %w", err))
		}
	}
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Config != nil && c.Config.Output.Verbose && c.Metrics != nil {
		s := c.Metrics.Snapshot()
		c.Logger.Debug("ops=%d errors=%d avg_latency_ms=%.1f cache_hit_rate=%.2f",
			c.Metrics.OpsTotal(), s.ConnectErrors+s.BalanceErrors+s.SendErrors,
			c.Metrics.LatencyAvgMs(), c.Metrics.CacheHitRate())
	}
	return errors.Join(errs...)
}

// withCommandContext builds the context, runs fn and closes the context.
func withCommandContext(fn func(cc *CommandContext) error) error {
	cc, err := newCommandContextFn(cfg, logger, formatter)
	if err != nil {
		return err
	}
	runErr := fn(cc)
	if closeErr := cc.Close(); closeErr != nil {
		cc.Logger.Error("closing command context: %v", closeErr)
	}
	return runErr
}
