// Package chain provides the connector contract shared by every supported
// blockchain, the network table, and common amount, retry and rate-limit
// utilities.
package chain

import (
	"context"
	"strings"
)

// ID is the chain-type discriminator used to route registry calls.
type ID string

// Supported chain types.
const (
	Tron     ID = "tron"
	TON      ID = "ton"
	Sui      ID = "sui"
	Bitcoin  ID = "bitcoin"
	Aptos    ID = "aptos"
	Ethereum ID = "ethereum"
	BSC      ID = "bsc"
)

// BIP44 coin types for chains whose keys are derived from a BIP39 seed.
const (
	CoinTypeBitcoin        uint32 = 0
	CoinTypeBitcoinTestnet uint32 = 1
	CoinTypeEthereum       uint32 = 60
	CoinTypeTron           uint32 = 195
)

// String returns the chain identifier string.
func (id ID) String() string {
	return string(id)
}

// IsValid returns true if the chain ID is a known chain type.
func (id ID) IsValid() bool {
	for _, known := range AllChains() {
		if id == known {
			return true
		}
	}
	return false
}

// IsEVM reports whether the chain uses the Ethereum account model.
func (id ID) IsEVM() bool {
	return id == Ethereum || id == BSC
}

// Decimals returns the number of decimal places of the native asset.
func (id ID) Decimals() int {
	switch id {
	case Tron:
		return 6
	case Bitcoin, Aptos:
		return 8
	case Sui, TON:
		return 9
	case Ethereum, BSC:
		return 18
	default:
		return 0
	}
}

// Symbol returns the ticker of the native asset.
func (id ID) Symbol() string {
	switch id {
	case Tron:
		return "TRX"
	case TON:
		return "TON"
	case Sui:
		return "SUI"
	case Bitcoin:
		return "BTC"
	case Aptos:
		return "APT"
	case Ethereum:
		return "ETH"
	case BSC:
		return "BNB"
	default:
		return ""
	}
}

// CoinType returns the BIP44 coin type for chains with secp256k1 HD keys.
// The second return value is false for chains that do not derive from BIP39.
func (id ID) CoinType(network Network) (uint32, bool) {
	switch id {
	case Bitcoin:
		if network == Testnet {
			return CoinTypeBitcoinTestnet, true
		}
		return CoinTypeBitcoin, true
	case Tron:
		return CoinTypeTron, true
	case Ethereum, BSC:
		return CoinTypeEthereum, true
	default:
		return 0, false
	}
}

// ParseChainID parses a string into an ID. Matching is case-insensitive
// and accepts a few common aliases.
func ParseChainID(s string) (ID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "btc":
		s = string(Bitcoin)
	case "eth":
		s = string(Ethereum)
	case "bnb":
		s = string(BSC)
	case "trx":
		s = string(Tron)
	case "apt":
		s = string(Aptos)
	}
	id := ID(s)
	return id, id.IsValid()
}

// AllChains returns every known chain type in display order.
func AllChains() []ID {
	return []ID{Tron, TON, Sui, Bitcoin, Aptos, Ethereum, BSC}
}

// Network selects mainnet or testnet endpoints for a chain.
type Network string

// Networks.
const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// ParseNetwork parses a network name. Empty input means mainnet.
func ParseNetwork(s string) (Network, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mainnet", "main":
		return Mainnet, true
	case "testnet", "test", "shasta", "sepolia":
		return Testnet, true
	default:
		return "", false
	}
}

// ConnectorConfig carries the optional settings a connector is connected with.
// Zero values fall back to the network table and generated keys.
type ConnectorConfig struct {
	RPCURL     string  `yaml:"rpc_url,omitempty" json:"rpc_url,omitempty" validate:"omitempty,url"`
	PrivateKey string  `yaml:"private_key,omitempty" json:"-"`
	Mnemonic   string  `yaml:"mnemonic,omitempty" json:"-"`
	Network    Network `yaml:"network,omitempty" json:"network,omitempty" validate:"omitempty,oneof=mainnet testnet"`
	APIKey     string  `yaml:"api_key,omitempty" json:"-"`
}

// NetworkOrDefault returns the configured network, defaulting to mainnet.
func (c ConnectorConfig) NetworkOrDefault() Network {
	if c.Network == "" {
		return Mainnet
	}
	return c.Network
}

// HasKeyMaterial reports whether a private key or mnemonic was supplied.
func (c ConnectorConfig) HasKeyMaterial() bool {
	return strings.TrimSpace(c.PrivateKey) != "" || strings.TrimSpace(c.Mnemonic) != ""
}

// Account is the identity a connector reports after a successful connect.
type Account struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	// Generated is true when the connector created fresh key material.
	Generated bool `json:"generated,omitempty"`
	// Secret is the key material to persist when Generated is true.
	Secret string `json:"-"`
}

// Connector is the uniform contract every chain adapter implements.
type Connector interface {
	// ID returns the chain type the connector serves.
	ID() ID

	// Connect prepares the connector for the given configuration and
	// returns the account it signs for.
	Connect(ctx context.Context, cfg ConnectorConfig) (*Account, error)

	// Disconnect releases any resources held since Connect.
	Disconnect(ctx context.Context) error

	// Balance returns the native balance of address in display units.
	Balance(ctx context.Context, address string) (string, error)

	// Send transfers amount (display units) to the recipient and returns
	// the transaction hash.
	Send(ctx context.Context, to, amount string) (string, error)
}

// AddressValidator is implemented by connectors that can check addresses offline.
type AddressValidator interface {
	ValidateAddress(address string) error
}

// Configurable is implemented by connectors that can point at an endpoint
// without key material, so balances can be read without a Connect.
type Configurable interface {
	Configure(cfg ConnectorConfig) error
}
