package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"

	"github.com/mrz1836/polywallet/internal/chain"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	Level      qr.Level
	QuietZone  int
	HalfBlocks bool
}

// DefaultQRConfig returns compact low-redundancy settings; addresses are short.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.L,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// CanRenderQR checks if the output writer is a terminal suitable for QR rendering.
func CanRenderQR(w io.Writer) bool {
	return isTerminal(w)
}

// PaymentURI returns the wallet URI scanned for address on id.
// Chains without a common scheme use the bare address.
func PaymentURI(id chain.ID, address string) string {
	switch id {
	case chain.Bitcoin:
		return "bitcoin:" + address
	case chain.Ethereum, chain.BSC:
		return "ethereum:" + address
	case chain.TON:
		return "ton://transfer/" + address
	case chain.Tron, chain.Sui, chain.Aptos:
		return address
	default:
		return address
	}
}

// RenderQR renders a QR code to the writer if it's a terminal.
// Non-terminal writers get no output and no error.
func RenderQR(w io.Writer, data string, cfg QRConfig) error {
	if !CanRenderQR(w) {
		return nil
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}
