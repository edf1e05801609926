package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/qr"

	"github.com/mrz1836/polywallet/internal/chain"
)

func TestDefaultQRConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultQRConfig()

	assert.Equal(t, qr.L, cfg.Level)
	assert.Equal(t, 1, cfg.QuietZone)
	assert.True(t, cfg.HalfBlocks)
}

func TestCanRenderQR(t *testing.T) {
	t.Parallel()
	assert.False(t, CanRenderQR(&bytes.Buffer{}))
	assert.False(t, CanRenderQR(nil))
}

func TestRenderQR_NonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderQR(&buf, PaymentURI(chain.Bitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"), DefaultQRConfig()))
	assert.Empty(t, buf.String())
}

func TestPaymentURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       chain.ID
		address  string
		expected string
	}{
		{chain.Bitcoin, "bc1qxyz", "bitcoin:bc1qxyz"},
		{chain.Ethereum, "0xabc", "ethereum:0xabc"},
		{chain.BSC, "0xabc", "ethereum:0xabc"},
		{chain.TON, "EQabc", "ton://transfer/EQabc"},
		{chain.Tron, "TXyz", "TXyz"},
		{chain.Sui, "0x1", "0x1"},
	}
	for _, tc := range tests {
		t.Run(tc.id.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, PaymentURI(tc.id, tc.address))
		})
	}
}
