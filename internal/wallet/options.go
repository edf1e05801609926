package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/history"
	"github.com/mrz1836/polywallet/internal/metrics"
)

// Recorder stores the sends made through the registry.
type Recorder interface {
	Record(ctx context.Context, e *history.Entry) error
	SetTxHash(ctx context.Context, id uuid.UUID, hash string) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

// Compile-time interface check
var _ Recorder = (*history.Store)(nil)

// Option configures a MultiChain.
type Option func(*options)

type options struct {
	factory *chain.Factory
	chain   chain.Options
	logger  chain.LogWriter
	history Recorder
	metrics *metrics.Metrics
	extra   map[chain.ID]chain.Connector
}

// WithFactory replaces DefaultFactory.
func WithFactory(f *chain.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithChainOptions sets the options every connector is built with.
func WithChainOptions(opts chain.Options) Option {
	return func(o *options) { o.chain = opts }
}

// WithLogger sets the registry logger. Connectors share it unless
// WithChainOptions set their own.
func WithLogger(l chain.LogWriter) Option {
	return func(o *options) { o.logger = l }
}

// WithHistory records sends in r.
func WithHistory(r Recorder) Option {
	return func(o *options) { o.history = r }
}

// WithMetrics records operation counts and latencies in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithConnector registers c for id, overriding the factory.
func WithConnector(id chain.ID, c chain.Connector) Option {
	return func(o *options) { o.extra[id] = c }
}
