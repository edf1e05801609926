package chain

import (
	"net/http"
	"sort"
	"sync"
	"time"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// LogWriter is the logging surface connectors write to.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a LogWriter that discards everything.
func NopLogger() LogWriter { return nopLogger{} }

// Options are the shared dependencies handed to every connector constructor.
type Options struct {
	HTTPClient  *http.Client
	RateLimiter *RateLimiter
	Retry       RetryConfig
	Logger      LogWriter
}

// DefaultOptions returns options with a 30s HTTP client, the default rate
// limiter and default retry policy.
func DefaultOptions() Options {
	return Options{
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		RateLimiter: DefaultRateLimiter(),
		Retry:       DefaultRetryConfig(),
		Logger:      NopLogger(),
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.HTTPClient == nil {
		o.HTTPClient = d.HTTPClient
	}
	if o.RateLimiter == nil {
		o.RateLimiter = d.RateLimiter
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = d.Retry
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// Creator builds a connector. Connector packages register one each so the
// registry can be assembled without this package importing them.
type Creator func(opts Options) Connector

// Factory maps chain types to connector constructors.
type Factory struct {
	mu       sync.RWMutex
	creators map[ID]Creator
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{creators: make(map[ID]Creator)}
}

// Register adds or replaces the creator for id.
func (f *Factory) Register(id ID, creator Creator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[id] = creator
}

// New creates a connector for id.
func (f *Factory) New(id ID, opts Options) (Connector, error) {
	f.mu.RLock()
	creator, ok := f.creators[id]
	f.mu.RUnlock()
	if !ok {
		return nil, walleterr.WithDetails(walleterr.ErrChainNotSupported, map[string]string{"chain": id.String()})
	}
	return creator(opts.WithDefaults()), nil
}

// IsSupported returns true if id has a registered creator.
func (f *Factory) IsSupported(id ID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[id]
	return ok
}

// SupportedChains returns the registered chain types, sorted.
func (f *Factory) SupportedChains() []ID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]ID, 0, len(f.creators))
	for id := range f.creators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
