// Package sui implements the Sui connector on top of block-vision/sui-go-sdk.
package sui

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/signer"
	suisdk "github.com/block-vision/sui-go-sdk/sui"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/keystore"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const (
	decimals = 9

	// CoinType is the native SUI coin type.
	CoinType = "0x2::sui::SUI"

	// GasBudget is the gas budget of a transfer, in MIST (0.01 SUI).
	GasBudget uint64 = 10_000_000
)

//nolint:gochecknoglobals // compiled once
var addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")

// Compile-time interface checks
var (
	_ chain.Connector        = (*Connector)(nil)
	_ chain.Configurable     = (*Connector)(nil)
	_ chain.AddressValidator = (*Connector)(nil)
)

// API is the subset of the Sui JSON-RPC client the connector uses.
type API interface {
	SuiXGetBalance(ctx context.Context, req models.SuiXGetBalanceRequest) (models.CoinBalanceResponse, error)
	SuiXGetCoins(ctx context.Context, req models.SuiXGetCoinsRequest) (models.PaginatedCoinsResponse, error)
	TransferSui(ctx context.Context, req models.TransferSuiRequest) (models.TxnMetaData, error)
	SignAndExecuteTransactionBlock(ctx context.Context, req models.SignAndExecuteTransactionBlockRequest) (models.SuiTransactionBlockResponse, error)
}

// Dialer builds an API client for an RPC URL.
type Dialer func(rpcURL string) API

// DefaultDialer returns the sui-go-sdk JSON-RPC client.
func DefaultDialer(rpcURL string) API {
	return suisdk.NewSuiClient(rpcURL)
}

// Connector signs Sui transfers with one ed25519 keypair.
type Connector struct {
	opts chain.Options
	dial Dialer

	mu     sync.RWMutex
	api    API
	signer *signer.Signer
}

// New creates a disconnected Sui connector using the SDK client.
func New(opts chain.Options) *Connector {
	return NewWithDialer(opts, DefaultDialer)
}

// NewWithDialer creates a connector whose RPC client comes from dial.
func NewWithDialer(opts chain.Options, dial Dialer) *Connector {
	return &Connector{opts: opts.WithDefaults(), dial: dial}
}

// ID returns the chain identifier.
func (c *Connector) ID() chain.ID {
	return chain.Sui
}

// Configure selects the RPC endpoint of cfg without loading keys.
func (c *Connector) Configure(cfg chain.ConnectorConfig) error {
	url, err := chain.ResolveRPC(chain.Sui, cfg)
	if err != nil {
		return err
	}
	api := c.dial(url)
	c.mu.Lock()
	c.api = api
	c.mu.Unlock()
	return nil
}

// Connect imports a hex seed or mnemonic from cfg, or generates a keypair.
// Generated keys are returned as the hex ed25519 seed. A failed connect
// leaves the previous client and keypair in place.
func (c *Connector) Connect(_ context.Context, cfg chain.ConnectorConfig) (*chain.Account, error) {
	url, err := chain.ResolveRPC(chain.Sui, cfg)
	if err != nil {
		return nil, err
	}

	s, generated, err := loadSigner(cfg)
	if err != nil {
		return nil, err
	}
	api := c.dial(url)

	c.mu.Lock()
	c.api = api
	c.signer = s
	c.mu.Unlock()

	c.opts.Logger.Debug("sui connected %s on %s", s.Address, cfg.NetworkOrDefault())

	account := &chain.Account{
		Address:   s.Address,
		PublicKey: hex.EncodeToString(s.PubKey),
	}
	if generated {
		account.Generated = true
		account.Secret = hex.EncodeToString(s.PriKey.Seed())
	}
	return account, nil
}

func loadSigner(cfg chain.ConnectorConfig) (*signer.Signer, bool, error) {
	switch {
	case strings.TrimSpace(cfg.PrivateKey) != "":
		key := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
		size := ed25519.SeedSize
		if len(key) == 2*ed25519.PrivateKeySize {
			size = ed25519.PrivateKeySize
		}
		raw, err := keystore.DecodeHexKey(key, size)
		if err != nil {
			return nil, false, err
		}
		defer keystore.Zero(raw)
		return signer.NewSigner(raw[:ed25519.SeedSize]), false, nil

	case strings.TrimSpace(cfg.Mnemonic) != "":
		if err := keystore.ValidateMnemonic(cfg.Mnemonic); err != nil {
			return nil, false, err
		}
		s, err := signer.NewSignertWithMnemonic(keystore.NormalizeMnemonic(cfg.Mnemonic))
		if err != nil {
			return nil, false, walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
		}
		return s, false, nil

	default:
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, false, walleterr.WithCause(walleterr.ErrInvalidKey, err)
		}
		defer keystore.Zero(priv)
		return signer.NewSigner(priv.Seed()), true, nil
	}
}

// Disconnect drops the keypair. The key is not zeroed in place since an
// in-flight Send may still hold it.
func (c *Connector) Disconnect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = nil
	return nil
}

// Address returns the connected address, or "" when disconnected.
func (c *Connector) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.signer == nil {
		return ""
	}
	return c.signer.Address
}

// ValidateAddress checks for a 0x-prefixed 32-byte hex address.
func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
			"chain":   "sui",
			"address": address,
		})
	}
	return nil
}

// ValidateAddress implements chain.AddressValidator.
func (c *Connector) ValidateAddress(address string) error {
	return ValidateAddress(address)
}

func (c *Connector) client() (API, error) {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api != nil {
		return api, nil
	}
	if err := c.Configure(chain.ConnectorConfig{}); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api, nil
}
