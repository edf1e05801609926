package balance

import (
	"context"
	"time"

	"github.com/mrz1836/polywallet/internal/cache"
	"github.com/mrz1836/polywallet/internal/chain"
)

// Reader reads one native balance. wallet.MultiChain satisfies it.
type Reader interface {
	GetBalance(ctx context.Context, id chain.ID, address string) (string, error)
}

// CacheProvider is the subset of cache.BalanceCache the service uses.
type CacheProvider interface {
	Get(chainID chain.ID, network chain.Network, address string) (*cache.BalanceCacheEntry, bool, time.Duration)
	Set(entry cache.BalanceCacheEntry)
}

// Compile-time interface check
var _ CacheProvider = (*cache.BalanceCache)(nil)
