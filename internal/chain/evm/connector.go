// Package evm implements the Ethereum and BSC connectors over go-ethereum's
// ethclient.
package evm

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/keystore"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Compile-time interface checks
var (
	_ chain.Connector        = (*Connector)(nil)
	_ chain.Configurable     = (*Connector)(nil)
	_ chain.AddressValidator = (*Connector)(nil)
)

// Backend is the subset of ethclient.Client the connector uses.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	Close()
}

// Dialer opens a Backend for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// DialEthclient opens an ethclient connection.
func DialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Connector signs legacy value transfers for one EVM chain.
type Connector struct {
	id   chain.ID
	opts chain.Options
	dial Dialer

	mu      sync.RWMutex
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewEthereum creates a disconnected Ethereum connector.
func NewEthereum(opts chain.Options) *Connector {
	return NewWithDialer(chain.Ethereum, opts, DialEthclient)
}

// NewBSC creates a disconnected BNB Smart Chain connector.
func NewBSC(opts chain.Options) *Connector {
	return NewWithDialer(chain.BSC, opts, DialEthclient)
}

// NewWithDialer creates a connector for id whose backend comes from dial.
func NewWithDialer(id chain.ID, opts chain.Options, dial Dialer) *Connector {
	return &Connector{id: id, opts: opts.WithDefaults(), dial: dial}
}

// ID returns the chain identifier.
func (c *Connector) ID() chain.ID {
	return c.id
}

// Configure dials the endpoint of cfg without loading keys.
func (c *Connector) Configure(cfg chain.ConnectorConfig) error {
	return c.configure(context.Background(), cfg)
}

func (c *Connector) configure(ctx context.Context, cfg chain.ConnectorConfig) error {
	backend, err := c.newBackend(ctx, cfg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.backend
	c.backend = backend
	c.mu.Unlock()
	if old != nil && old != backend {
		old.Close()
	}
	return nil
}

func (c *Connector) newBackend(ctx context.Context, cfg chain.ConnectorConfig) (Backend, error) {
	url, err := chain.ResolveRPC(c.id, cfg)
	if err != nil {
		return nil, err
	}
	backend, err := c.dial(ctx, url)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrNetworkError, err)
	}
	return backend, nil
}

// Connect imports a hex key or BIP44 mnemonic from cfg, or generates a key.
// A failed connect leaves the previous backend and key in place.
func (c *Connector) Connect(ctx context.Context, cfg chain.ConnectorConfig) (*chain.Account, error) {
	raw, err := keystore.Secp256k1FromConfig(cfg, c.id)
	if err != nil {
		return nil, err
	}
	var key *ecdsa.PrivateKey
	generated := raw == nil
	if generated {
		key, err = crypto.GenerateKey()
	} else {
		key, err = crypto.ToECDSA(raw)
		keystore.Zero(raw)
	}
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)

	backend, err := c.newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	previous := c.backend
	c.backend = backend
	c.key = key
	c.address = addr
	c.mu.Unlock()
	if previous != nil && previous != backend {
		previous.Close()
	}

	c.opts.Logger.Debug("%s connected %s on %s", c.id, addr.Hex(), cfg.NetworkOrDefault())

	account := &chain.Account{
		Address:   addr.Hex(),
		PublicKey: hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)),
	}
	if generated {
		account.Generated = true
		account.Secret = hex.EncodeToString(crypto.FromECDSA(key))
	}
	return account, nil
}

// Disconnect drops the key and closes the RPC connection. The key is not
// zeroed in place since an in-flight Send may still hold it.
func (c *Connector) Disconnect(_ context.Context) error {
	c.mu.Lock()
	backend := c.backend
	c.key = nil
	c.address = common.Address{}
	c.backend = nil
	c.mu.Unlock()

	if backend != nil {
		backend.Close()
	}
	return nil
}

// Address returns the connected checksummed address, or "".
func (c *Connector) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.key == nil {
		return ""
	}
	return c.address.Hex()
}

// ValidateAddress checks for a 0x-prefixed 20-byte hex address.
func ValidateAddress(address string) error {
	if !common.IsHexAddress(address) || len(address) != 42 {
		return walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{"address": address})
	}
	return nil
}

// ValidateAddress implements chain.AddressValidator.
func (c *Connector) ValidateAddress(address string) error {
	return ValidateAddress(address)
}

func (c *Connector) client(ctx context.Context) (Backend, error) {
	c.mu.RLock()
	backend := c.backend
	c.mu.RUnlock()
	if backend != nil {
		return backend, nil
	}
	if err := c.configure(ctx, chain.ConnectorConfig{}); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend, nil
}
