// Package tron implements the Tron connector over the TronGrid HTTP API.
package tron

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/chain/rest"
	"github.com/mrz1836/polywallet/internal/keystore"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const (
	// decimals is the number of decimals for TRX (1 TRX = 1e6 sun).
	decimals = 6

	// apiKeyHeader carries the optional TronGrid API key.
	apiKeyHeader = "TRON-PRO-API-KEY"
)

// Compile-time interface checks
var (
	_ chain.Connector        = (*Connector)(nil)
	_ chain.Configurable     = (*Connector)(nil)
	_ chain.AddressValidator = (*Connector)(nil)
)

// Connector talks to a TronGrid-compatible node and signs with one secp256k1 key.
type Connector struct {
	opts chain.Options

	mu      sync.RWMutex
	client  *rest.Client
	network chain.Network
	key     *ecdsa.PrivateKey
	address string
}

// New creates a disconnected Tron connector.
func New(opts chain.Options) *Connector {
	return &Connector{opts: opts.WithDefaults()}
}

// ID returns the chain identifier.
func (c *Connector) ID() chain.ID {
	return chain.Tron
}

// Configure points the connector at the endpoint of cfg without loading keys.
func (c *Connector) Configure(cfg chain.ConnectorConfig) error {
	client, err := c.newClient(cfg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.client = client
	c.network = cfg.NetworkOrDefault()
	c.mu.Unlock()
	return nil
}

func (c *Connector) newClient(cfg chain.ConnectorConfig) (*rest.Client, error) {
	url, err := chain.ResolveRPC(chain.Tron, cfg)
	if err != nil {
		return nil, err
	}
	client := rest.New(url, c.opts)
	client.SetHeader(apiKeyHeader, cfg.APIKey)
	return client, nil
}

// Connect loads the key from cfg, or generates one, and returns its account.
func (c *Connector) Connect(_ context.Context, cfg chain.ConnectorConfig) (*chain.Account, error) {
	client, err := c.newClient(cfg)
	if err != nil {
		return nil, err
	}

	key, generated, err := loadKey(cfg)
	if err != nil {
		return nil, err
	}

	address := AddressFromPublicKey(&key.PublicKey)

	c.mu.Lock()
	c.client = client
	c.network = cfg.NetworkOrDefault()
	c.key = key
	c.address = address
	c.mu.Unlock()

	c.opts.Logger.Debug("tron connected %s on %s via %s", address, cfg.NetworkOrDefault(), client.BaseURL())

	account := &chain.Account{
		Address:   address,
		PublicKey: hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)),
	}
	if generated {
		account.Generated = true
		account.Secret = hex.EncodeToString(crypto.FromECDSA(key))
	}
	return account, nil
}

func loadKey(cfg chain.ConnectorConfig) (*ecdsa.PrivateKey, bool, error) {
	raw, err := keystore.Secp256k1FromConfig(cfg, chain.Tron)
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		return key, true, nil
	}
	defer keystore.Zero(raw)

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}
	return key, false, nil
}

// Disconnect drops the signing key. The key is not zeroed in place since
// an in-flight Send may still hold it.
func (c *Connector) Disconnect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = nil
	c.address = ""
	return nil
}

// Address returns the connected address, or "" when disconnected.
func (c *Connector) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}

// endpoint returns the configured client, falling back to the mainnet default.
func (c *Connector) endpoint() (*rest.Client, error) {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client != nil {
		return client, nil
	}
	if err := c.Configure(chain.ConnectorConfig{}); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client, nil
}
