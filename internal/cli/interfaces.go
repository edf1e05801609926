package cli

import (
	"context"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/history"
	"github.com/mrz1836/polywallet/internal/output"
	"github.com/mrz1836/polywallet/internal/wallet"
)

// Compile-time interface checks.
var (
	_ Registry        = (*wallet.MultiChain)(nil)
	_ HistoryReader   = (*history.Store)(nil)
	_ chain.LogWriter = (*config.Logger)(nil)
	_ FormatProvider  = (*output.Formatter)(nil)
)

// Registry is the part of wallet.MultiChain the commands drive.
type Registry interface {
	Connect(ctx context.Context, id chain.ID, cfg chain.ConnectorConfig) (*wallet.Connection, error)
	Disconnect(ctx context.Context, id chain.ID) error
	GetBalance(ctx context.Context, id chain.ID, address string) (string, error)
	SendTransaction(ctx context.Context, id chain.ID, to, amount string) (string, error)
	UpdateBalance(ctx context.Context, id chain.ID)

	Connection(id chain.ID) (*wallet.Connection, bool)
	Connections() []*wallet.Connection
	SupportedChains() []chain.ID
	ChainInfo(id chain.ID, network chain.Network) (chain.Info, error)

	// Configure points a disconnected chain at an endpoint for reads.
	Configure(id chain.ID, cfg chain.ConnectorConfig) error

	// Connector exposes the adapter, for key generation.
	Connector(id chain.ID) (chain.Connector, error)
}

// HistoryReader lists recorded transactions.
type HistoryReader interface {
	List(ctx context.Context, f history.Filter) ([]*history.Entry, error)
}

// FormatProvider provides output format information.
type FormatProvider interface {
	Format() output.Format
}
