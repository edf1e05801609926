package keystore

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// DecodeHexKey decodes a hex private key with an optional 0x prefix and
// checks its length.
func DecodeHexKey(s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrInvalidKey, err)
	}
	if len(b) != size {
		Zero(b)
		return nil, walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{
			"expected_bytes": strconv.Itoa(size),
			"got_bytes":      strconv.Itoa(len(b)),
		})
	}
	return b, nil
}

// Secp256k1FromConfig returns the raw private key described by cfg: a hex
// key, or the first BIP44 key of a mnemonic. It returns nil, nil when cfg
// carries no key material.
func Secp256k1FromConfig(cfg chain.ConnectorConfig, id chain.ID) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.PrivateKey) != "":
		return DecodeHexKey(cfg.PrivateKey, 32)
	case strings.TrimSpace(cfg.Mnemonic) != "":
		return DeriveChainKey(cfg.Mnemonic, "", id, cfg.NetworkOrDefault())
	default:
		return nil, nil
	}
}
