package balance

import (
	"strings"
	"time"

	"github.com/mrz1836/polywallet/internal/chain"
)

// RefreshDecision indicates whether an address requires a fresh fetch.
type RefreshDecision int

const (
	// RefreshRequired means the balance must be fetched from the network.
	RefreshRequired RefreshDecision = iota
	// CacheOK means the cached balance is acceptable.
	CacheOK
)

// postSendCacheTrust is how long any cached balance is trusted as-is.
// Indexers can lag a broadcast by a block or two.
const postSendCacheTrust = 30 * time.Second

// RefreshPolicy decides between the cache and the network. Funded
// addresses are refreshed once the entry is older than postSendCacheTrust;
// empty addresses are served from cache for the whole staleness window.
type RefreshPolicy struct {
	cache     CacheProvider
	staleness time.Duration
}

// NewRefreshPolicy creates a policy over c.
func NewRefreshPolicy(c CacheProvider, staleness time.Duration) *RefreshPolicy {
	return &RefreshPolicy{cache: c, staleness: staleness}
}

// ShouldRefresh reports whether address needs a network read.
func (p *RefreshPolicy) ShouldRefresh(id chain.ID, network chain.Network, address string) RefreshDecision {
	entry, exists, age := p.cache.Get(id, network, address)
	if !exists {
		return RefreshRequired
	}
	if age < postSendCacheTrust {
		return CacheOK
	}
	if isZero(entry.Balance) && age < p.staleness {
		return CacheOK
	}
	return RefreshRequired
}

func isZero(balance string) bool {
	return strings.Trim(balance, "0.") == ""
}
