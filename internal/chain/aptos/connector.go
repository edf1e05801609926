// Package aptos implements the Aptos connector on top of aptos-go-sdk.
package aptos

import (
	"context"
	"strings"
	"sync"

	aptossdk "github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/api"
	"github.com/aptos-labs/aptos-go-sdk/crypto"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// decimals is the precision of APT (1 APT = 1e8 octas).
const decimals = 8

// Compile-time interface checks
var (
	_ chain.Connector        = (*Connector)(nil)
	_ chain.Configurable     = (*Connector)(nil)
	_ chain.AddressValidator = (*Connector)(nil)
)

// Node is the subset of the Aptos REST client the connector uses.
type Node interface {
	AccountAPTBalance(address aptossdk.AccountAddress, ledgerVersion ...uint64) (uint64, error)
	BuildSignAndSubmitTransaction(sender aptossdk.TransactionSigner, payload aptossdk.TransactionPayload, options ...any) (*api.SubmitTransactionResponse, error)
	WaitForTransaction(txnHash string, options ...any) (*api.UserTransaction, error)
}

// Dialer builds a Node for an RPC URL on network.
type Dialer func(rpcURL string, network chain.Network) (Node, error)

// DefaultDialer returns the SDK client for rpcURL.
func DefaultDialer(rpcURL string, network chain.Network) (Node, error) {
	cfg := aptossdk.MainnetConfig
	if network == chain.Testnet {
		cfg = aptossdk.TestnetConfig
	}
	cfg.NodeUrl = rpcURL
	return aptossdk.NewClient(cfg)
}

// Connector signs Aptos coin transfers with one ed25519 account.
type Connector struct {
	opts chain.Options
	dial Dialer

	mu      sync.RWMutex
	node    Node
	account *aptossdk.Account
}

// New creates a disconnected Aptos connector using the SDK client.
func New(opts chain.Options) *Connector {
	return NewWithDialer(opts, DefaultDialer)
}

// NewWithDialer creates a connector whose node client comes from dial.
func NewWithDialer(opts chain.Options, dial Dialer) *Connector {
	return &Connector{opts: opts.WithDefaults(), dial: dial}
}

// ID returns the chain identifier.
func (c *Connector) ID() chain.ID {
	return chain.Aptos
}

// Configure selects the node of cfg without loading keys.
func (c *Connector) Configure(cfg chain.ConnectorConfig) error {
	node, err := c.newNode(cfg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.node = node
	c.mu.Unlock()
	return nil
}

func (c *Connector) newNode(cfg chain.ConnectorConfig) (Node, error) {
	url, err := chain.ResolveRPC(chain.Aptos, cfg)
	if err != nil {
		return nil, err
	}
	node, err := c.dial(url, cfg.NetworkOrDefault())
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrNetworkError, err)
	}
	return node, nil
}

// Connect imports an ed25519 private key from cfg, or generates one. A
// failed connect leaves the previous node and account in place.
func (c *Connector) Connect(_ context.Context, cfg chain.ConnectorConfig) (*chain.Account, error) {
	if strings.TrimSpace(cfg.Mnemonic) != "" && strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, walleterr.WithSuggestion(walleterr.ErrInvalidKey, "aptos accounts take a hex ed25519 private key")
	}

	key, generated, err := loadKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	account, err := aptossdk.NewAccountFromSigner(key)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}
	node, err := c.newNode(cfg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.node = node
	c.account = account
	c.mu.Unlock()

	address := account.Address.String()
	c.opts.Logger.Debug("aptos connected %s on %s", address, cfg.NetworkOrDefault())

	out := &chain.Account{
		Address:   address,
		PublicKey: key.PubKey().ToHex(),
	}
	if generated {
		out.Generated = true
		out.Secret = key.ToHex()
	}
	return out, nil
}

func loadKey(hexKey string) (*crypto.Ed25519PrivateKey, bool, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		key, err := crypto.GenerateEd25519PrivateKey()
		if err != nil {
			return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		return key, true, nil
	}

	// Non-strict parsing accepts both bare hex and AIP-80 prefixed keys.
	raw, err := crypto.ParsePrivateKey(hexKey, crypto.PrivateKeyVariantEd25519, false)
	if err != nil {
		return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}
	key := &crypto.Ed25519PrivateKey{}
	if err := key.FromBytes(raw); err != nil {
		return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}
	return key, false, nil
}

// Disconnect drops the account.
func (c *Connector) Disconnect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = nil
	return nil
}

// Address returns the connected address, or "" when disconnected.
func (c *Connector) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.account == nil {
		return ""
	}
	return c.account.Address.String()
}

// ParseAddress accepts long and short hex account addresses.
func ParseAddress(address string) (aptossdk.AccountAddress, error) {
	addr := aptossdk.AccountAddress{}
	if !strings.HasPrefix(address, "0x") {
		return addr, invalidAddress(address)
	}
	if err := addr.ParseStringRelaxed(address); err != nil {
		return aptossdk.AccountAddress{}, invalidAddress(address)
	}
	return addr, nil
}

func invalidAddress(address string) error {
	return walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
		"chain":   "aptos",
		"address": address,
	})
}

// ValidateAddress implements chain.AddressValidator.
func (c *Connector) ValidateAddress(address string) error {
	_, err := ParseAddress(address)
	return err
}

func (c *Connector) client() (Node, error) {
	c.mu.RLock()
	node := c.node
	c.mu.RUnlock()
	if node != nil {
		return node, nil
	}
	if err := c.Configure(chain.ConnectorConfig{}); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.node, nil
}
