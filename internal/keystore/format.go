package keystore

import (
	"strings"

	"github.com/mrz1836/go-sanitize"

	"github.com/mrz1836/polywallet/internal/chain"
)

// InputFormat is the detected shape of imported key material.
type InputFormat int

const (
	// FormatUnknown indicates the input format could not be determined.
	FormatUnknown InputFormat = iota
	// FormatMnemonic indicates a 12 or 24 word phrase.
	FormatMnemonic
	// FormatWIF indicates a Bitcoin Wallet Import Format key.
	FormatWIF
	// FormatHex indicates a hex-encoded private key or seed.
	FormatHex
)

// String returns the string representation of the input format.
func (f InputFormat) String() string {
	switch f {
	case FormatMnemonic:
		return "mnemonic"
	case FormatWIF:
		return "wif"
	case FormatHex:
		return "hex"
	case FormatUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// DetectInputFormat guesses whether input is a mnemonic, a WIF or a hex key.
func DetectInputFormat(input string) InputFormat {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return FormatUnknown
	case isMnemonicFormat(input):
		return FormatMnemonic
	case isWIFFormat(input):
		return FormatWIF
	case isHexKeyFormat(input):
		return FormatHex
	default:
		return FormatUnknown
	}
}

// ConfigFor places key material in the ConnectorConfig field the connectors
// read it from. Mnemonics go to Mnemonic; WIF and hex keys to PrivateKey.
func ConfigFor(input string, cfg chain.ConnectorConfig) (chain.ConnectorConfig, InputFormat) {
	format := DetectInputFormat(input)
	switch format {
	case FormatMnemonic:
		cfg.Mnemonic = NormalizeMnemonic(input)
	case FormatWIF:
		cfg.PrivateKey = SanitizeWIF(input)
	case FormatHex:
		cfg.PrivateKey = strings.TrimSpace(input)
	case FormatUnknown:
	}
	return cfg, format
}

// SecretConfig is ConfigFor for a secret some connector generated for id.
// TON seeds are 24 words outside the BIP39 checksum, so they are always
// routed to Mnemonic when they look like a phrase.
func SecretConfig(id chain.ID, secret string, cfg chain.ConnectorConfig) chain.ConnectorConfig {
	if id == chain.TON && len(strings.Fields(secret)) == 24 {
		cfg.Mnemonic = strings.TrimSpace(secret)
		return cfg
	}
	cfg, _ = ConfigFor(secret, cfg)
	return cfg
}

func isMnemonicFormat(input string) bool {
	words := strings.Fields(NormalizeMnemonic(input))
	if len(words) != 12 && len(words) != 24 {
		return false
	}

	valid := 0
	for _, word := range words {
		if isWord(word) {
			valid++
		}
	}
	// Mostly BIP39 words: let validation report the typos.
	return valid >= len(words)/2
}

func isWIFFormat(input string) bool {
	if len(input) < 51 || len(input) > 52 {
		return false
	}
	switch input[0] {
	case '5', 'K', 'L', '9', 'c':
	default:
		return false
	}
	return SanitizeWIF(input) == input
}

func isHexKeyFormat(input string) bool {
	h := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if len(h) != 64 && len(h) != 128 {
		return false
	}
	return strings.Trim(strings.ToLower(h), "0123456789abcdef") == ""
}

// SanitizeWIF strips everything outside the Base58 alphabet.
func SanitizeWIF(input string) string {
	return sanitize.BitcoinAddress(strings.TrimSpace(input))
}

// SanitizeAddress cleans copy-paste artifacts from a Base58 or hex address
// line: surrounding whitespace, quotes and trailing commas.
func SanitizeAddress(input string) string {
	return strings.Trim(strings.TrimSpace(input), "\"',;")
}
