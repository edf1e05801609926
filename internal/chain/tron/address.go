package tron

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// addressVersion is the base58check version byte of mainnet and shasta addresses.
const addressVersion byte = 0x41

// AddressFromPublicKey returns the base58check address of a secp256k1 key:
// 0x41 followed by the last 20 bytes of keccak256(pubkey).
func AddressFromPublicKey(pub *ecdsa.PublicKey) string {
	return base58.CheckEncode(crypto.PubkeyToAddress(*pub).Bytes(), addressVersion)
}

// ValidateAddress checks the base58check encoding, version byte and length.
func ValidateAddress(address string) error {
	payload, version, err := base58.CheckDecode(address)
	if err != nil || version != addressVersion || len(payload) != 20 {
		return walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
			"chain":   "tron",
			"address": address,
		})
	}
	return nil
}

// ValidateAddress implements chain.AddressValidator.
func (c *Connector) ValidateAddress(address string) error {
	return ValidateAddress(address)
}
