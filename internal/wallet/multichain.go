// Package wallet holds the MultiChain registry: one connector per chain
// type, and the last known connection of each.
package wallet

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/history"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/metrics"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Connection is the state recorded for a connected chain.
type Connection struct {
	Chain       chain.ID      `json:"chain"`
	Network     chain.Network `json:"network"`
	Address     string        `json:"address"`
	PublicKey   string        `json:"public_key"`
	Balance     string        `json:"balance"`
	Connected   bool          `json:"connected"`
	ConnectedAt time.Time     `json:"connected_at"`
}

// MultiChain dispatches wallet operations to per-chain connectors.
// It is safe for concurrent use.
type MultiChain struct {
	mu          sync.RWMutex
	connectors  map[chain.ID]chain.Connector
	connections map[chain.ID]*Connection

	logger   chain.LogWriter
	history  Recorder
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// New builds a registry with a connector for every chain the factory knows.
func New(opts ...Option) *MultiChain {
	o := options{extra: make(map[chain.ID]chain.Connector)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = DefaultFactory()
	}
	if o.logger == nil {
		o.logger = chain.NopLogger()
	}
	if o.chain.Logger == nil {
		o.chain.Logger = o.logger
	}

	m := &MultiChain{
		connectors:  make(map[chain.ID]chain.Connector),
		connections: make(map[chain.ID]*Connection),
		logger:      o.logger,
		history:     o.history,
		metrics:     o.metrics,
		validate:    validator.New(),
	}
	for _, id := range o.factory.SupportedChains() {
		c, err := o.factory.New(id, o.chain)
		if err != nil {
			continue
		}
		m.connectors[id] = c
	}
	for id, c := range o.extra {
		m.connectors[id] = c
	}
	return m
}

func (m *MultiChain) connector(id chain.ID) (chain.Connector, error) {
	m.mu.RLock()
	c, ok := m.connectors[id]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}

	err := walleterr.WithDetails(walleterr.ErrChainNotSupported, map[string]string{"chain": id.String()})
	if hint := keystore.Suggest(id.String(), chainNames(m.SupportedChains())); hint != "" {
		err = walleterr.WithSuggestion(err, "did you mean '"+hint+"'?")
	} else {
		err = walleterr.WithSuggestion(err, "supported chains: "+strings.Join(chainNames(m.SupportedChains()), ", "))
	}
	return nil, err
}

// Connect connects id with cfg and records the new connection, replacing
// any earlier one. A failed balance read leaves the balance at "0".
func (m *MultiChain) Connect(ctx context.Context, id chain.ID, cfg chain.ConnectorConfig) (*Connection, error) {
	c, err := m.connector(id)
	if err != nil {
		return nil, err
	}
	if err := m.validate.Struct(cfg); err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"chain":  id.String(),
			"reason": err.Error(),
		})
	}

	start := time.Now()
	account, err := c.Connect(ctx, cfg)
	m.record(id, metrics.OpConnect, start, err)
	if err != nil {
		m.logger.Error("connect %s failed: %v", id, err)
		return nil, walleterr.Wrap(err, "connect %s failed", id)
	}

	balance := "0"
	start = time.Now()
	bal, err := c.Balance(ctx, account.Address)
	m.record(id, metrics.OpBalance, start, err)
	if err != nil {
		m.logger.Error("%s balance after connect: %v", id, err)
	} else {
		balance = bal
	}

	conn := &Connection{
		Chain:       id,
		Network:     cfg.NetworkOrDefault(),
		Address:     account.Address,
		PublicKey:   account.PublicKey,
		Balance:     balance,
		Connected:   true,
		ConnectedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.connections[id] = conn
	m.mu.Unlock()

	m.logger.Debug("connected %s %s", id, account.Address)
	cp := *conn
	return &cp, nil
}

// Disconnect releases the connector of id and forgets its connection.
// It is a no-op for chains that are not connected.
func (m *MultiChain) Disconnect(ctx context.Context, id chain.ID) error {
	c, err := m.connector(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	_, ok := m.connections[id]
	delete(m.connections, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.Disconnect(ctx); err != nil {
		return walleterr.Wrap(err, "disconnect %s failed", id)
	}
	m.logger.Debug("disconnected %s", id)
	return nil
}

// GetBalance returns the balance of address on id. An empty address means
// the connected address. Connectors that can be configured without keys
// are pointed at their default endpoint when id is not connected.
func (m *MultiChain) GetBalance(ctx context.Context, id chain.ID, address string) (string, error) {
	c, err := m.connector(id)
	if err != nil {
		return "", err
	}

	conn, connected := m.Connection(id)
	if address == "" {
		if !connected {
			return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": id.String()})
		}
		address = conn.Address
	}

	start := time.Now()
	bal, err := c.Balance(ctx, address)
	m.record(id, metrics.OpBalance, start, err)
	if err != nil {
		return "", err
	}
	return bal, nil
}

// SendTransaction sends amount to the recipient from the connected account
// of id and returns the transaction hash.
func (m *MultiChain) SendTransaction(ctx context.Context, id chain.ID, to, amount string) (string, error) {
	c, err := m.connector(id)
	if err != nil {
		return "", err
	}
	conn, ok := m.Connection(id)
	if !ok {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": id.String()})
	}

	var entry *history.Entry
	if m.history != nil {
		entry = history.NewEntry(id.String(), string(conn.Network), conn.Address, to, amount)
		if err := m.history.Record(ctx, entry); err != nil {
			m.logger.Error("recording %s send: %v", id, err)
			entry = nil
		}
	}

	start := time.Now()
	hash, err := c.Send(ctx, to, amount)
	m.record(id, metrics.OpSend, start, err)
	if err != nil {
		if entry != nil {
			if herr := m.history.MarkFailed(ctx, entry.ID, err); herr != nil {
				m.logger.Error("marking %s send failed: %v", id, herr)
			}
		}
		m.logger.Error("send %s failed: %v", id, err)
		return "", walleterr.Wrap(err, "send %s failed", id)
	}
	if entry != nil {
		if herr := m.history.SetTxHash(ctx, entry.ID, hash); herr != nil {
			m.logger.Error("storing %s tx hash: %v", id, herr)
		}
	}

	m.logger.Debug("%s sent %s %s to %s: %s", id, amount, id.Symbol(), to, hash)
	m.UpdateBalance(ctx, id)
	return hash, nil
}

// UpdateBalance refreshes the stored balance of a connected chain.
// Failures are logged and leave the previous balance in place.
func (m *MultiChain) UpdateBalance(ctx context.Context, id chain.ID) {
	conn, ok := m.Connection(id)
	if !ok {
		return
	}
	m.mu.RLock()
	c := m.connectors[id]
	m.mu.RUnlock()

	start := time.Now()
	bal, err := c.Balance(ctx, conn.Address)
	m.record(id, metrics.OpBalance, start, err)
	if err != nil {
		m.logger.Error("updating %s balance: %v", id, err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A reconnect in the meantime owns the entry now.
	if cur, ok := m.connections[id]; ok && cur.Address == conn.Address {
		cur.Balance = bal
	}
}

// Connection returns a copy of the connection of id.
func (m *MultiChain) Connection(id chain.ID) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	if !ok {
		return nil, false
	}
	cp := *conn
	return &cp, true
}

// Connections returns copies of every connection, sorted by chain.
func (m *MultiChain) Connections() []*Connection {
	m.mu.RLock()
	out := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		cp := *conn
		out = append(out, &cp)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Chain < out[j].Chain })
	return out
}

// IsConnected reports whether id has a recorded connection.
func (m *MultiChain) IsConnected(id chain.ID) bool {
	_, ok := m.Connection(id)
	return ok
}

// SupportedChains returns the chains with a connector, sorted.
func (m *MultiChain) SupportedChains() []chain.ID {
	m.mu.RLock()
	ids := make([]chain.ID, 0, len(m.connectors))
	for id := range m.connectors {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ChainInfo returns the network table entry of id.
func (m *MultiChain) ChainInfo(id chain.ID, network chain.Network) (chain.Info, error) {
	if _, err := m.connector(id); err != nil {
		return chain.Info{}, err
	}
	return chain.For(id, network)
}

// Configure points a disconnected connector of id at the endpoint of cfg,
// so balance reads follow cfg's network and RPC URL. Connected chains and
// connectors without a Configure hook are left alone.
func (m *MultiChain) Configure(id chain.ID, cfg chain.ConnectorConfig) error {
	c, err := m.connector(id)
	if err != nil {
		return err
	}
	if m.IsConnected(id) {
		return nil
	}
	if cc, ok := c.(chain.Configurable); ok {
		return cc.Configure(cfg)
	}
	return nil
}

// Connector returns the connector registered for id.
func (m *MultiChain) Connector(id chain.ID) (chain.Connector, error) {
	return m.connector(id)
}

func (m *MultiChain) record(id chain.ID, op string, start time.Time, err error) {
	if m.metrics != nil {
		m.metrics.RecordOp(id.String(), op, time.Since(start), err)
	}
}

func chainNames(ids []chain.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
