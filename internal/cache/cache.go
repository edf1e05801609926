// Package cache keeps the last known balance of each chain, network and
// address, and persists it as a JSON file.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/polywallet/internal/chain"
)

// DefaultStaleness is how long an entry is considered fresh.
const DefaultStaleness = 5 * time.Minute

// Cache defines the balance cache operations.
type Cache interface {
	// Get returns the entry, whether it exists, and its age.
	Get(chainID chain.ID, network chain.Network, address string) (*BalanceCacheEntry, bool, time.Duration)

	// Set stores an entry stamped with the current time.
	Set(entry BalanceCacheEntry)

	// IsStale reports whether an entry is missing or older than staleness.
	IsStale(chainID chain.ID, network chain.Network, address string, staleness time.Duration) bool

	Delete(chainID chain.ID, network chain.Network, address string)
	Clear()
	Size() int

	// Prune removes entries older than maxAge and returns how many.
	Prune(maxAge time.Duration) int
}

// Compile-time interface check
var _ Cache = (*BalanceCache)(nil)

// BalanceCache is an in-memory balance cache that marshals to JSON.
type BalanceCache struct {
	mu      sync.RWMutex                 `json:"-"`
	Entries map[string]BalanceCacheEntry `json:"entries"`
}

// BalanceCacheEntry is one cached balance.
type BalanceCacheEntry struct {
	Chain     chain.ID      `json:"chain"`
	Network   chain.Network `json:"network"`
	Address   string        `json:"address"`
	Balance   string        `json:"balance"`
	Symbol    string        `json:"symbol"`
	Decimals  int           `json:"decimals"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewBalanceCache creates an empty cache.
func NewBalanceCache() *BalanceCache {
	return &BalanceCache{Entries: make(map[string]BalanceCacheEntry)}
}

// Key returns "chain:network:address". An empty network is mainnet.
// EVM addresses are case-insensitive and are keyed lowercased.
func Key(chainID chain.ID, network chain.Network, address string) string {
	if network == "" {
		network = chain.Mainnet
	}
	if chainID.IsEVM() {
		address = strings.ToLower(address)
	}
	return string(chainID) + ":" + string(network) + ":" + address
}

// Get retrieves a cached balance entry.
func (c *BalanceCache) Get(chainID chain.ID, network chain.Network, address string) (*BalanceCacheEntry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[Key(chainID, network, address)]
	if !exists {
		return nil, false, 0
	}
	return &entry, true, time.Since(entry.UpdatedAt)
}

// Set stores a balance entry, filling symbol and decimals from the chain.
func (c *BalanceCache) Set(entry BalanceCacheEntry) {
	if entry.Network == "" {
		entry.Network = chain.Mainnet
	}
	if entry.Symbol == "" {
		entry.Symbol = entry.Chain.Symbol()
	}
	if entry.Decimals == 0 {
		entry.Decimals = entry.Chain.Decimals()
	}
	entry.UpdatedAt = time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[Key(entry.Chain, entry.Network, entry.Address)] = entry
}

// IsStale reports whether the entry is missing or older than staleness.
func (c *BalanceCache) IsStale(chainID chain.ID, network chain.Network, address string, staleness time.Duration) bool {
	_, exists, age := c.Get(chainID, network, address)
	return !exists || age > staleness
}

// Delete removes a cache entry.
func (c *BalanceCache) Delete(chainID chain.ID, network chain.Network, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, Key(chainID, network, address))
}

// Clear removes all cache entries.
func (c *BalanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = make(map[string]BalanceCacheEntry)
}

// Size returns the number of cache entries.
func (c *BalanceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// Prune removes entries older than maxAge.
func (c *BalanceCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
