// Package metrics provides application-level metrics collection using
// atomic counters.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Operation names recorded by the registry and services.
const (
	OpConnect = "connect"
	OpBalance = "balance"
	OpSend    = "send"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Chain operation metrics
	connectsTotal  atomic.Int64
	connectErrors  atomic.Int64
	balancesTotal  atomic.Int64
	balanceErrors  atomic.Int64
	sendsTotal     atomic.Int64
	sendErrors     atomic.Int64
	opLatencyNanos atomic.Int64

	// Cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	mu       sync.Mutex
	perChain map[string]*atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordOp records one chain operation with its duration and outcome.
// Unknown operation names only count towards the per-chain total.
func (m *Metrics) RecordOp(chain, op string, duration time.Duration, err error) {
	m.opLatencyNanos.Add(duration.Nanoseconds())
	m.chainCounter(chain).Add(1)

	var total, errs *atomic.Int64
	switch op {
	case OpConnect:
		total, errs = &m.connectsTotal, &m.connectErrors
	case OpBalance:
		total, errs = &m.balancesTotal, &m.balanceErrors
	case OpSend:
		total, errs = &m.sendsTotal, &m.sendErrors
	default:
		return
	}
	total.Add(1)
	if err != nil {
		errs.Add(1)
	}
}

func (m *Metrics) chainCounter(chain string) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perChain == nil {
		m.perChain = make(map[string]*atomic.Int64)
	}
	c, ok := m.perChain[chain]
	if !ok {
		c = &atomic.Int64{}
		m.perChain[chain] = c
	}
	return c
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// ChainCount is the number of operations recorded for one chain.
type ChainCount struct {
	Chain string `json:"chain"`
	Ops   int64  `json:"ops"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	ConnectsTotal  int64        `json:"connects_total"`
	ConnectErrors  int64        `json:"connect_errors"`
	BalancesTotal  int64        `json:"balances_total"`
	BalanceErrors  int64        `json:"balance_errors"`
	SendsTotal     int64        `json:"sends_total"`
	SendErrors     int64        `json:"send_errors"`
	OpLatencyNanos int64        `json:"op_latency_nanos"`
	CacheHits      int64        `json:"cache_hits"`
	CacheMisses    int64        `json:"cache_misses"`
	PerChain       []ChainCount `json:"per_chain"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		ConnectsTotal:  m.connectsTotal.Load(),
		ConnectErrors:  m.connectErrors.Load(),
		BalancesTotal:  m.balancesTotal.Load(),
		BalanceErrors:  m.balanceErrors.Load(),
		SendsTotal:     m.sendsTotal.Load(),
		SendErrors:     m.sendErrors.Load(),
		OpLatencyNanos: m.opLatencyNanos.Load(),
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
	}

	m.mu.Lock()
	for chain, c := range m.perChain {
		s.PerChain = append(s.PerChain, ChainCount{Chain: chain, Ops: c.Load()})
	}
	m.mu.Unlock()
	sort.Slice(s.PerChain, func(i, j int) bool { return s.PerChain[i].Chain < s.PerChain[j].Chain })
	return s
}

// OpsTotal returns the number of recorded connect, balance and send operations.
func (m *Metrics) OpsTotal() int64 {
	return m.connectsTotal.Load() + m.balancesTotal.Load() + m.sendsTotal.Load()
}

// LatencyAvgMs returns the average operation latency in milliseconds.
// Returns 0 if nothing has been recorded.
func (m *Metrics) LatencyAvgMs() float64 {
	ops := m.OpsTotal()
	if ops == 0 {
		return 0
	}
	return float64(m.opLatencyNanos.Load()) / float64(ops) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.connectsTotal, &m.connectErrors,
		&m.balancesTotal, &m.balanceErrors,
		&m.sendsTotal, &m.sendErrors,
		&m.opLatencyNanos, &m.cacheHits, &m.cacheMisses,
	} {
		c.Store(0)
	}
	m.mu.Lock()
	m.perChain = nil
	m.mu.Unlock()
}
