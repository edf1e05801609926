// Package balance reads native balances for single addresses and batches,
// with cache fallback and per-chain pacing.
package balance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/polywallet/internal/cache"
	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/metrics"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Batch defaults.
const (
	DefaultMaxConcurrent = 8
	SuiBatchSize         = 6
	SuiBatchDelay        = 800 * time.Millisecond
	tonDisplayPlaces     = 6
)

// Config holds the configuration for the balance service.
type Config struct {
	Reader        Reader
	Cache         CacheProvider
	Logger        chain.LogWriter
	Metrics       *metrics.Metrics
	Staleness     time.Duration
	MaxConcurrent int
	ForceRefresh  bool

	// SuiBatchSize and SuiBatchDelay pace Sui batches; zero means the defaults.
	SuiBatchSize  int
	SuiBatchDelay time.Duration
}

// Service provides balance reads with caching and a refresh policy.
type Service struct {
	reader    Reader
	cache     CacheProvider
	policy    *RefreshPolicy
	logger    chain.LogWriter
	metrics   *metrics.Metrics
	force     bool
	maxConc   int
	suiSize   int
	suiDelay  time.Duration
	staleness time.Duration
}

// NewService creates a balance service.
func NewService(cfg *Config) *Service {
	s := &Service{
		reader:    cfg.Reader,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		force:     cfg.ForceRefresh,
		maxConc:   cfg.MaxConcurrent,
		suiSize:   cfg.SuiBatchSize,
		suiDelay:  cfg.SuiBatchDelay,
		staleness: cfg.Staleness,
	}
	if s.logger == nil {
		s.logger = chain.NopLogger()
	}
	if s.maxConc <= 0 {
		s.maxConc = DefaultMaxConcurrent
	}
	if s.suiSize <= 0 {
		s.suiSize = SuiBatchSize
	}
	if s.suiDelay <= 0 {
		s.suiDelay = SuiBatchDelay
	}
	if s.staleness <= 0 {
		s.staleness = cache.DefaultStaleness
	}
	if s.cache != nil && !s.force {
		s.policy = NewRefreshPolicy(s.cache, s.staleness)
	}
	return s
}

// FetchBalance reads one balance. On a network error a cached value is
// returned with Stale set; other errors and cache misses return the error.
func (s *Service) FetchBalance(ctx context.Context, id chain.ID, network chain.Network, address string) (*AddressBalance, error) {
	if network == "" {
		network = chain.Mainnet
	}
	result := &AddressBalance{Chain: id, Network: network, Address: address, Symbol: id.Symbol()}

	if s.policy != nil && s.policy.ShouldRefresh(id, network, address) == CacheOK {
		if entry, ok, _ := s.cache.Get(id, network, address); ok {
			s.hit()
			result.Balance = display(id, entry.Balance)
			result.Cached = true
			result.UpdatedAt = entry.UpdatedAt
			return result, nil
		}
	}
	s.miss()

	bal, err := s.reader.GetBalance(ctx, id, address)
	if err != nil {
		if errors.Is(err, walleterr.ErrNetworkError) && s.cache != nil {
			if entry, ok, _ := s.cache.Get(id, network, address); ok {
				s.logger.Debug("%s %s: serving cached balance after %v", id, address, err)
				result.Balance = display(id, entry.Balance)
				result.Stale = true
				result.Cached = true
				result.Error = err.Error()
				result.UpdatedAt = entry.UpdatedAt
				return result, nil
			}
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(cache.BalanceCacheEntry{Chain: id, Network: network, Address: address, Balance: bal})
	}
	result.Balance = display(id, bal)
	result.UpdatedAt = time.Now().UTC()
	return result, nil
}

// FetchBatch reads the balance of every non-blank line in addresses, in
// input order. A failed address yields balance "0" and the error text.
// Sui addresses are fetched SuiBatchSize at a time with SuiBatchDelay
// between groups.
func (s *Service) FetchBatch(ctx context.Context, id chain.ID, network chain.Network, addresses []string, progress ProgressCallback) []AddressBalance {
	var inputs []string
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			inputs = append(inputs, a)
		}
	}

	results := make([]AddressBalance, len(inputs))
	var (
		mu        sync.Mutex
		completed int
	)
	done := func(i int, row AddressBalance) {
		mu.Lock()
		results[i] = row
		completed++
		n := completed
		mu.Unlock()
		if progress != nil {
			progress(ProgressUpdate{Total: len(inputs), Completed: n, Address: row.Address})
		}
	}

	group := len(inputs)
	if id == chain.Sui {
		group = s.suiSize
	}

	sem := make(chan struct{}, s.maxConc)
	for start := 0; start < len(inputs); start += group {
		if start > 0 && !sleep(ctx, s.suiDelay) {
			s.fillCancelled(inputs, results, start, id, network, ctx.Err())
			break
		}
		end := min(start+group, len(inputs))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					done(i, s.errorRow(id, network, inputs[i], ctx.Err()))
					return
				}
				defer func() { <-sem }()

				row, err := s.FetchBalance(ctx, id, network, inputs[i])
				if err != nil {
					done(i, s.errorRow(id, network, inputs[i], err))
					return
				}
				done(i, *row)
			}(i)
		}
		wg.Wait()
	}
	return results
}

func (s *Service) errorRow(id chain.ID, network chain.Network, address string, err error) AddressBalance {
	s.logger.Debug("%s balance of %s: %v", id, address, err)
	if network == "" {
		network = chain.Mainnet
	}
	return AddressBalance{
		Chain:   id,
		Network: network,
		Address: address,
		Balance: "0",
		Symbol:  id.Symbol(),
		Error:   err.Error(),
	}
}

func (s *Service) fillCancelled(inputs []string, results []AddressBalance, from int, id chain.ID, network chain.Network, err error) {
	for i := from; i < len(inputs); i++ {
		results[i] = s.errorRow(id, network, inputs[i], err)
	}
}

func (s *Service) hit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit()
	}
}

func (s *Service) miss() {
	if s.metrics != nil && s.cache != nil {
		s.metrics.RecordCacheMiss()
	}
}

// display renders TON balances with six decimal places; other chains keep
// the connector's formatting.
func display(id chain.ID, balance string) string {
	if id != chain.TON {
		return balance
	}
	v, err := chain.ParseDecimalAmount(balance, id.Decimals())
	if err != nil {
		return balance
	}
	return chain.FormatFixed(v, id.Decimals(), tonDisplayPlaces)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
