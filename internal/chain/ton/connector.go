// Package ton implements the TON connector: a tonutils-go V4R2 wallet for
// signing and sending, and the toncenter HTTP API for balances.
package ton

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/ton/wallet"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/chain/rest"
	"github.com/mrz1836/polywallet/internal/keystore"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const (
	decimals = 9

	// ConnectTimeout bounds dialling the lite-server pool.
	ConnectTimeout = 60 * time.Second

	apiKeyHeader = "X-API-Key"
)

// Lite-server configs published by the TON foundation.
const (
	MainnetConfigURL = "https://ton.org/global.config.json"
	TestnetConfigURL = "https://ton.org/testnet-global.config.json"
)

// Compile-time interface checks
var (
	_ chain.Connector        = (*Connector)(nil)
	_ chain.Configurable     = (*Connector)(nil)
	_ chain.AddressValidator = (*Connector)(nil)
)

// Connector holds a V4R2 wallet and the toncenter endpoint of its network.
type Connector struct {
	opts chain.Options
	dial Dialer

	mu      sync.RWMutex
	client  *rest.Client
	network chain.Network
	wallet  *wallet.Wallet
	sender  Sender
}

// New creates a disconnected TON connector dialling real lite-servers.
func New(opts chain.Options) *Connector {
	return NewWithDialer(opts, DialLiteServers)
}

// NewWithDialer creates a connector that obtains its sender from dial.
func NewWithDialer(opts chain.Options, dial Dialer) *Connector {
	return &Connector{opts: opts.WithDefaults(), dial: dial}
}

// ID returns the chain identifier.
func (c *Connector) ID() chain.ID {
	return chain.TON
}

// Configure selects the toncenter endpoint of cfg without loading keys.
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
	url, err := chain.ResolveRPC(chain.TON, cfg)
	if err != nil {
		return nil, err
	}
	client := rest.New(url, c.opts)
	client.SetHeader(apiKeyHeader, cfg.APIKey)
	return client, nil
}

// Connect builds the wallet from a TON mnemonic or hex seed in cfg, or a
// fresh 24-word seed, then dials the lite-server pool within ConnectTimeout.
// Generated wallets return their mnemonic in Account.Secret. A failed
// connect leaves the previous wallet and pool in place; a successful one
// closes the previous pool.
func (c *Connector) Connect(ctx context.Context, cfg chain.ConnectorConfig) (*chain.Account, error) {
	client, err := c.newClient(cfg)
	if err != nil {
		return nil, err
	}

	w, words, err := loadWallet(cfg)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	sender, err := c.dial(dialCtx, configURL(cfg.NetworkOrDefault()), w)
	if err != nil {
		if dialCtx.Err() != nil {
			return nil, walleterr.WithCause(walleterr.ErrConnectTimeout, err)
		}
		return nil, walleterr.WithCause(walleterr.ErrNetworkError, err)
	}

	addr := formatAddress(w.Address(), cfg.NetworkOrDefault())

	c.mu.Lock()
	previous := c.sender
	c.client = client
	c.network = cfg.NetworkOrDefault()
	c.wallet = w
	c.sender = sender
	c.mu.Unlock()

	if previous != nil && previous != sender {
		previous.Close()
	}

	c.opts.Logger.Debug("ton connected %s on %s", addr, cfg.NetworkOrDefault())

	pub, _ := w.PrivateKey().Public().(ed25519.PublicKey)
	account := &chain.Account{
		Address:   addr,
		PublicKey: hex.EncodeToString(pub),
	}
	if words != nil {
		account.Generated = true
		account.Secret = strings.Join(words, " ")
	}
	return account, nil
}

// loadWallet returns the wallet described by cfg. The returned words are
// non-nil only for a freshly generated seed.
func loadWallet(cfg chain.ConnectorConfig) (*wallet.Wallet, []string, error) {
	switch {
	case strings.TrimSpace(cfg.Mnemonic) != "":
		w, err := wallet.FromSeed(nil, strings.Fields(strings.ToLower(cfg.Mnemonic)), wallet.V4R2)
		if err != nil {
			return nil, nil, walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
		}
		return w, nil, nil

	case strings.TrimSpace(cfg.PrivateKey) != "":
		seed, err := keystore.DecodeHexKey(cfg.PrivateKey, ed25519.SeedSize)
		if err != nil {
			return nil, nil, err
		}
		defer keystore.Zero(seed)
		w, err := wallet.FromPrivateKey(nil, ed25519.NewKeyFromSeed(seed), wallet.V4R2)
		if err != nil {
			return nil, nil, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		return w, nil, nil

	default:
		words := wallet.NewSeed()
		w, err := wallet.FromSeed(nil, words, wallet.V4R2)
		if err != nil {
			return nil, nil, walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
		}
		return w, words, nil
	}
}

func configURL(network chain.Network) string {
	if network == chain.Testnet {
		return TestnetConfigURL
	}
	return MainnetConfigURL
}

// formatAddress renders a user-friendly bounceable address for network.
func formatAddress(addr *address.Address, network chain.Network) string {
	addr = addr.Copy()
	addr.SetTestnetOnly(network == chain.Testnet)
	return addr.String()
}

// Disconnect drops the wallet and its lite-server connection.
func (c *Connector) Disconnect(_ context.Context) error {
	c.mu.Lock()
	sender := c.sender
	c.wallet = nil
	c.sender = nil
	c.mu.Unlock()

	if sender != nil {
		sender.Close()
	}
	return nil
}

// Address returns the connected address, or "" when disconnected.
func (c *Connector) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.wallet == nil {
		return ""
	}
	return formatAddress(c.wallet.Address(), c.network)
}

// ParseAddress parses a user-friendly or raw TON address.
func ParseAddress(s string) (*address.Address, error) {
	var (
		addr *address.Address
		err  error
	)
	if strings.Contains(s, ":") {
		addr, err = address.ParseRawAddr(s)
	} else {
		addr, err = address.ParseAddr(s)
	}
	if err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
			"chain":   "ton",
			"address": s,
		})
	}
	return addr, nil
}

// ValidateAddress implements chain.AddressValidator.
func (c *Connector) ValidateAddress(address string) error {
	_, err := ParseAddress(address)
	return err
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
