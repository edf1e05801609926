package tron

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

type createTransactionRequest struct {
	OwnerAddress string `json:"owner_address"`
	ToAddress    string `json:"to_address"`
	Amount       int64  `json:"amount"`
	Visible      bool   `json:"visible"`
}

// transaction is the node's transaction envelope. raw_data is passed back
// untouched so the broadcast matches what the node built.
type transaction struct {
	TxID       string          `json:"txID"`
	RawData    json.RawMessage `json:"raw_data"`
	RawDataHex string          `json:"raw_data_hex"`
	Signature  []string        `json:"signature,omitempty"`
	Visible    bool            `json:"visible"`
	Error      string          `json:"Error,omitempty"`
}

type broadcastResponse struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send transfers amount TRX to the recipient and returns the transaction id.
func (c *Connector) Send(ctx context.Context, to, amount string) (string, error) {
	if err := ValidateAddress(to); err != nil {
		return "", err
	}
	sun, err := chain.ParsePositiveAmount(amount, decimals)
	if err != nil {
		return "", err
	}
	if !sun.IsInt64() {
		return "", walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{"amount": amount})
	}

	c.mu.RLock()
	client, key, from := c.client, c.key, c.address
	c.mu.RUnlock()
	if key == nil || client == nil {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": "tron"})
	}

	var tx transaction
	err = client.PostJSON(ctx, "/wallet/createtransaction", createTransactionRequest{
		OwnerAddress: from,
		ToAddress:    to,
		Amount:       sun.Int64(),
		Visible:      true,
	}, &tx)
	if err != nil {
		return "", fmt.Errorf("creating tron transaction: %w", err)
	}
	if tx.Error != "" || tx.TxID == "" {
		return "", rejected(tx.Error)
	}

	hash, err := verifyTxID(tx)
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("signing tron transaction: %w", err)
	}
	tx.Signature = []string{hex.EncodeToString(sig)}

	var resp broadcastResponse
	if err := client.PostJSON(ctx, "/wallet/broadcasttransaction", tx, &resp); err != nil {
		return "", fmt.Errorf("broadcasting tron transaction: %w", err)
	}
	if !resp.Result {
		msg := decodeMessage(resp.Message)
		if resp.Code != "" {
			msg = strings.TrimSpace(resp.Code + " " + msg)
		}
		return "", rejected(msg)
	}

	c.opts.Logger.Debug("tron broadcast %s: %s sun %s -> %s", tx.TxID, sun, from, to)
	if resp.TxID != "" {
		return resp.TxID, nil
	}
	return tx.TxID, nil
}

// verifyTxID checks that txID is sha256(raw_data_hex) and returns the hash to sign.
func verifyTxID(tx transaction) ([]byte, error) {
	want, err := hex.DecodeString(tx.TxID)
	if err != nil || len(want) != sha256.Size {
		return nil, rejected("malformed txID " + tx.TxID)
	}
	if tx.RawDataHex == "" {
		return want, nil
	}
	raw, err := hex.DecodeString(tx.RawDataHex)
	if err != nil {
		return nil, rejected("malformed raw_data_hex")
	}
	got := sha256.Sum256(raw)
	if !bytes.Equal(got[:], want) {
		return nil, rejected("txID does not match raw_data_hex")
	}
	return want, nil
}

// decodeMessage returns the node message, which TronGrid hex-encodes.
func decodeMessage(msg string) string {
	if b, err := hex.DecodeString(msg); err == nil {
		return string(b)
	}
	return msg
}

func rejected(msg string) error {
	if msg == "" {
		return walleterr.ErrTxRejected
	}
	return walleterr.WithDetails(walleterr.ErrTxRejected, map[string]string{"reason": msg})
}
