package wallet

import (
	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/chain/aptos"
	"github.com/mrz1836/polywallet/internal/chain/bitcoin"
	"github.com/mrz1836/polywallet/internal/chain/evm"
	"github.com/mrz1836/polywallet/internal/chain/sui"
	"github.com/mrz1836/polywallet/internal/chain/ton"
	"github.com/mrz1836/polywallet/internal/chain/tron"
)

// DefaultFactory registers every built-in connector.
func DefaultFactory() *chain.Factory {
	f := chain.NewFactory()
	f.Register(chain.Tron, func(o chain.Options) chain.Connector { return tron.New(o) })
	f.Register(chain.TON, func(o chain.Options) chain.Connector { return ton.New(o) })
	f.Register(chain.Sui, func(o chain.Options) chain.Connector { return sui.New(o) })
	f.Register(chain.Bitcoin, func(o chain.Options) chain.Connector { return bitcoin.New(o) })
	f.Register(chain.Aptos, func(o chain.Options) chain.Connector { return aptos.New(o) })
	f.Register(chain.Ethereum, func(o chain.Options) chain.Connector { return evm.NewEthereum(o) })
	f.Register(chain.BSC, func(o chain.Options) chain.Connector { return evm.NewBSC(o) })
	return f
}
