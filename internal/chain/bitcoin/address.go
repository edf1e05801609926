package bitcoin

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Params returns the chain parameters of network.
func Params(network chain.Network) *chaincfg.Params {
	if network == chain.Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// P2PKHAddress returns the pay-to-pubkey-hash address of a compressed key.
func P2PKHAddress(pub *btcec.PublicKey, params *chaincfg.Params) (*btcutil.AddressPubKeyHash, error) {
	return btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
}

// DecodeAddress parses address and checks that it belongs to params.
func DecodeAddress(address string, params *chaincfg.Params) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil || !addr.IsForNet(params) {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
			"chain":   "bitcoin",
			"network": params.Name,
			"address": address,
		})
	}
	return addr, nil
}

// ValidateAddress implements chain.AddressValidator for the configured network.
func (c *Connector) ValidateAddress(address string) error {
	_, err := DecodeAddress(address, c.params())
	return err
}
