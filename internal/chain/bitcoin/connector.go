// Package bitcoin implements the Bitcoin connector: btcd keys and scripts,
// with balances, UTXOs and broadcast served by a Blockstream Esplora API.
package bitcoin

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/chain/rest"
	"github.com/mrz1836/polywallet/internal/keystore"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const decimals = 8

// Compile-time interface checks
var (
	_ chain.Connector        = (*Connector)(nil)
	_ chain.Configurable     = (*Connector)(nil)
	_ chain.AddressValidator = (*Connector)(nil)
)

// Connector holds one P2PKH key and the Esplora endpoint of its network.
type Connector struct {
	opts chain.Options

	mu      sync.RWMutex
	client  *rest.Client
	network chain.Network
	key     *btcec.PrivateKey
	address string
}

// New creates a disconnected Bitcoin connector.
func New(opts chain.Options) *Connector {
	return &Connector{opts: opts.WithDefaults(), network: chain.Mainnet}
}

// ID returns the chain identifier.
func (c *Connector) ID() chain.ID {
	return chain.Bitcoin
}

// Configure selects the endpoint and network of cfg without loading keys.
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
	url, err := chain.ResolveRPC(chain.Bitcoin, cfg)
	if err != nil {
		return nil, err
	}
	return rest.New(url, c.opts), nil
}

// Connect imports a WIF, hex key or mnemonic from cfg, or generates a key.
// Generated keys are returned as WIF in Account.Secret. A failed connect
// leaves the previous endpoint and key in place.
func (c *Connector) Connect(_ context.Context, cfg chain.ConnectorConfig) (*chain.Account, error) {
	client, err := c.newClient(cfg)
	if err != nil {
		return nil, err
	}
	params := Params(cfg.NetworkOrDefault())

	key, generated, err := loadKey(cfg)
	if err != nil {
		return nil, err
	}
	addr, err := P2PKHAddress(key.PubKey(), params)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}

	c.mu.Lock()
	c.client = client
	c.network = cfg.NetworkOrDefault()
	c.key = key
	c.address = addr.EncodeAddress()
	c.mu.Unlock()

	c.opts.Logger.Debug("bitcoin connected %s on %s", addr.EncodeAddress(), params.Name)

	account := &chain.Account{
		Address:   addr.EncodeAddress(),
		PublicKey: hex.EncodeToString(key.PubKey().SerializeCompressed()),
	}
	if generated {
		wif, err := btcutil.NewWIF(key, params, true)
		if err != nil {
			return nil, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		account.Generated = true
		account.Secret = wif.String()
	}
	return account, nil
}

func loadKey(cfg chain.ConnectorConfig) (*btcec.PrivateKey, bool, error) {
	params := Params(cfg.NetworkOrDefault())

	if s := strings.TrimSpace(cfg.PrivateKey); s != "" && !isHex(s) {
		wif, err := btcutil.DecodeWIF(s)
		if err != nil {
			return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		if !wif.IsForNet(params) {
			return nil, false, walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{
				"reason":  "WIF is for another network",
				"network": params.Name,
			})
		}
		return wif.PrivKey, false, nil
	}

	raw, err := keystore.Secp256k1FromConfig(cfg, chain.Bitcoin)
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		key, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		return key, true, nil
	}
	defer keystore.Zero(raw)

	key, _ := btcec.PrivKeyFromBytes(raw)
	return key, false, nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	return err == nil
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

func (c *Connector) params() *chaincfg.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Params(c.network)
}

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
