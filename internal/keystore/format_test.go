package keystore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/polywallet/internal/chain"
)

func TestDetectInputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  InputFormat
	}{
		{"empty", "  ", FormatUnknown},
		{"mnemonic", testMnemonic, FormatMnemonic},
		{"mnemonic with typo", strings.Replace(testMnemonic, "about", "abuot", 1), FormatMnemonic},
		{"mainnet wif", "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", FormatWIF},
		{"testnet wif", "cMahea7zqjxrtgAbB7LSGbcQUr1uX1ojuat9jZodMN87JcbXMTcA", FormatWIF},
		{"hex key", strings.Repeat("0", 63) + "1", FormatHex},
		{"0x hex key", "0x" + strings.Repeat("ab", 32), FormatHex},
		{"ed25519 keypair hex", strings.Repeat("cd", 64), FormatHex},
		{"short hex", "abcd", FormatUnknown},
		{"garbage", "hello world", FormatUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DetectInputFormat(tc.input))
		})
	}
}

func TestInputFormatString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "mnemonic", FormatMnemonic.String())
	assert.Equal(t, "wif", FormatWIF.String())
	assert.Equal(t, "hex", FormatHex.String())
	assert.Equal(t, "unknown", InputFormat(42).String())
}

func TestConfigFor(t *testing.T) {
	t.Parallel()

	base := chain.ConnectorConfig{Network: chain.Testnet}

	cfg, format := ConfigFor(" "+testMnemonic+"\n", base)
	assert.Equal(t, FormatMnemonic, format)
	assert.Equal(t, testMnemonic, cfg.Mnemonic)
	assert.Empty(t, cfg.PrivateKey)
	assert.Equal(t, chain.Testnet, cfg.Network)

	cfg, format = ConfigFor("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", base)
	assert.Equal(t, FormatWIF, format)
	assert.Equal(t, "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", cfg.PrivateKey)

	cfg, format = ConfigFor("nope", base)
	assert.Equal(t, FormatUnknown, format)
	assert.False(t, cfg.HasKeyMaterial())
}

func TestSecretConfig(t *testing.T) {
	t.Parallel()

	tonWords := strings.TrimSpace(strings.Repeat("zebra ", 24))
	cfg := SecretConfig(chain.TON, tonWords, chain.ConnectorConfig{})
	assert.Equal(t, tonWords, cfg.Mnemonic)

	cfg = SecretConfig(chain.Sui, strings.Repeat("ab", 32), chain.ConnectorConfig{})
	assert.Equal(t, strings.Repeat("ab", 32), cfg.PrivateKey)
}

func TestSanitizeAddress(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HC", SanitizeAddress(` "TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HC",`))
}
