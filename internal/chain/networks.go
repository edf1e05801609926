package chain

import (
	"fmt"
	"sort"
	"strings"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Info describes one network of a chain: its identifiers, native asset and
// default endpoints.
type Info struct {
	Key           string  `json:"key"`
	Chain         ID      `json:"chain"`
	Network       Network `json:"network"`
	ChainID       int64   `json:"chain_id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Decimals      int     `json:"decimals"`
	RPCURL        string  `json:"rpc_url"`
	BlockExplorer string  `json:"block_explorer"`
	Testnet       bool    `json:"testnet"`
}

// TxURL returns the explorer link for a transaction hash.
func (i Info) TxURL(hash string) string {
	if i.BlockExplorer == "" || hash == "" {
		return ""
	}
	base := strings.TrimSuffix(i.BlockExplorer, "/")
	switch i.Chain {
	case Tron:
		return base + "/#/transaction/" + hash
	case TON:
		return base + "/transaction/" + hash
	case Sui:
		return base + "/txblock/" + hash
	case Aptos:
		return base + "/txn/" + hash
	default:
		return base + "/tx/" + hash
	}
}

//nolint:gochecknoglobals // Static network table
var networks = []Info{
	{Key: "ethereum", Chain: Ethereum, Network: Mainnet, ChainID: 1, Name: "Ethereum", Symbol: "ETH", Decimals: 18, RPCURL: "https://eth.llamarpc.com", BlockExplorer: "https://etherscan.io"},
	{Key: "sepolia", Chain: Ethereum, Network: Testnet, ChainID: 11155111, Name: "Sepolia", Symbol: "ETH", Decimals: 18, RPCURL: "https://sepolia.gateway.tenderly.co", BlockExplorer: "https://sepolia.etherscan.io", Testnet: true},
	{Key: "bsc", Chain: BSC, Network: Mainnet, ChainID: 56, Name: "BSC", Symbol: "BNB", Decimals: 18, RPCURL: "https://bsc-dataseed1.binance.org", BlockExplorer: "https://bscscan.com"},
	{Key: "bscTestnet", Chain: BSC, Network: Testnet, ChainID: 97, Name: "BSC Testnet", Symbol: "tBNB", Decimals: 18, RPCURL: "https://data-seed-prebsc-1-s1.binance.org:8545", BlockExplorer: "https://testnet.bscscan.com", Testnet: true},
	{Key: "tron", Chain: Tron, Network: Mainnet, ChainID: 728, Name: "Tron", Symbol: "TRX", Decimals: 6, RPCURL: "https://api.trongrid.io", BlockExplorer: "https://tronscan.org"},
	{Key: "tronTestnet", Chain: Tron, Network: Testnet, ChainID: 201910292, Name: "Tron Testnet", Symbol: "tTRX", Decimals: 6, RPCURL: "https://api.shasta.trongrid.io", BlockExplorer: "https://shasta.tronscan.org", Testnet: true},
	{Key: "ton", Chain: TON, Network: Mainnet, ChainID: 607, Name: "TON", Symbol: "TON", Decimals: 9, RPCURL: "https://toncenter.com/api/v2", BlockExplorer: "https://tonscan.org"},
	{Key: "tonTestnet", Chain: TON, Network: Testnet, ChainID: 608, Name: "TON Testnet", Symbol: "tTON", Decimals: 9, RPCURL: "https://testnet.toncenter.com/api/v2", BlockExplorer: "https://testnet.tonscan.org", Testnet: true},
	{Key: "sui", Chain: Sui, Network: Mainnet, ChainID: 101, Name: "Sui", Symbol: "SUI", Decimals: 9, RPCURL: "https://fullnode.mainnet.sui.io:443", BlockExplorer: "https://suiexplorer.com"},
	{Key: "suiTestnet", Chain: Sui, Network: Testnet, ChainID: 102, Name: "Sui Testnet", Symbol: "tSUI", Decimals: 9, RPCURL: "https://fullnode.testnet.sui.io:443", BlockExplorer: "https://testnet.suiexplorer.com", Testnet: true},
	{Key: "bitcoin", Chain: Bitcoin, Network: Mainnet, ChainID: 0, Name: "Bitcoin", Symbol: "BTC", Decimals: 8, RPCURL: "https://blockstream.info/api", BlockExplorer: "https://blockstream.info"},
	{Key: "bitcoinTestnet", Chain: Bitcoin, Network: Testnet, ChainID: 1, Name: "Bitcoin Testnet", Symbol: "tBTC", Decimals: 8, RPCURL: "https://blockstream.info/testnet/api", BlockExplorer: "https://blockstream.info/testnet", Testnet: true},
	{Key: "aptos", Chain: Aptos, Network: Mainnet, ChainID: 1, Name: "Aptos", Symbol: "APT", Decimals: 8, RPCURL: "https://fullnode.mainnet.aptoslabs.com/v1", BlockExplorer: "https://explorer.aptoslabs.com"},
	{Key: "aptosTestnet", Chain: Aptos, Network: Testnet, ChainID: 2, Name: "Aptos Testnet", Symbol: "tAPT", Decimals: 8, RPCURL: "https://fullnode.testnet.aptoslabs.com/v1", BlockExplorer: "https://explorer.aptoslabs.com", Testnet: true},
}

// Networks returns a copy of the network table.
func Networks() []Info {
	out := make([]Info, len(networks))
	copy(out, networks)
	return out
}

// ByKey looks up a network by its table key (e.g. "tronTestnet").
func ByKey(key string) (Info, bool) {
	for _, n := range networks {
		if n.Key == key {
			return n, true
		}
	}
	return Info{}, false
}

// ByChainID returns every network with the given numeric chain id.
// Several chains reuse small ids, so the result may hold more than one entry.
func ByChainID(id int64) []Info {
	var out []Info
	for _, n := range networks {
		if n.ChainID == id {
			out = append(out, n)
		}
	}
	return out
}

// ByName looks up a network by table key or display name, ignoring case.
func ByName(name string) (Info, bool) {
	name = strings.TrimSpace(name)
	for _, n := range networks {
		if strings.EqualFold(n.Key, name) || strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Info{}, false
}

// For returns the network entry of a chain type.
func For(id ID, network Network) (Info, error) {
	if network == "" {
		network = Mainnet
	}
	for _, n := range networks {
		if n.Chain == id && n.Network == network {
			return n, nil
		}
	}
	if !id.IsValid() {
		return Info{}, walleterr.WithDetails(walleterr.ErrChainNotSupported, map[string]string{"chain": id.String()})
	}
	return Info{}, walleterr.WithDetails(walleterr.ErrUnknownNetwork, map[string]string{
		"chain":   id.String(),
		"network": string(network),
	})
}

// ResolveRPC returns the configured endpoint, falling back to the network
// table default.
func ResolveRPC(id ID, cfg ConnectorConfig) (string, error) {
	if cfg.RPCURL != "" {
		return strings.TrimSuffix(cfg.RPCURL, "/"), nil
	}
	info, err := For(id, cfg.NetworkOrDefault())
	if err != nil {
		return "", err
	}
	return info.RPCURL, nil
}

// Keys returns the sorted table keys, used for shell completion.
func Keys() []string {
	keys := make([]string, 0, len(networks))
	for _, n := range networks {
		keys = append(keys, n.Key)
	}
	sort.Strings(keys)
	return keys
}

// String returns "Name (key)".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Key)
}
