package keystore

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// DerivationPath returns the BIP44 path of the first external address.
func DerivationPath(coinType, account, index uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'/0/%d", coinType, account, index)
}

// DeriveKey walks m/44'/coin'/account'/0/index from a BIP39 seed and returns
// the 32-byte secp256k1 private key.
func DeriveKey(seed []byte, coinType, account, index uint32) ([]byte, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild + account,
		0,
		index,
	}

	key := master
	for _, child := range path {
		key, err = key.NewChildKey(child)
		if err != nil {
			return nil, fmt.Errorf("deriving %s: %w", DerivationPath(coinType, account, index), err)
		}
	}

	if len(key.Key) > 32 {
		return nil, walleterr.ErrInvalidKey
	}
	out := make([]byte, 32)
	copy(out[32-len(key.Key):], key.Key)
	return out, nil
}

// DeriveChainKey derives the first account key of id from a mnemonic.
// Chains that do not use secp256k1 HD keys return ErrInvalidKey.
func DeriveChainKey(mnemonic, passphrase string, id chain.ID, network chain.Network) ([]byte, error) {
	coinType, ok := id.CoinType(network)
	if !ok {
		return nil, walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{"chain": id.String()}),
			"this chain takes a hex private key instead of a BIP39 mnemonic",
		)
	}

	seed, err := MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer Zero(seed)

	return DeriveKey(seed, coinType, 0, 0)
}
