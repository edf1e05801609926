package bitcoin

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Send transfers amount BTC to the recipient with a fixed fee and returns
// the transaction id reported by the node.
func (c *Connector) Send(ctx context.Context, to, amount string) (string, error) {
	params := c.params()
	toAddr, err := DecodeAddress(to, params)
	if err != nil {
		return "", err
	}
	sats, err := chain.ParsePositiveAmount(amount, decimals)
	if err != nil {
		return "", err
	}
	if !sats.IsUint64() || sats.Uint64() < DustLimit {
		return "", walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": fmt.Sprintf("must be at least %d satoshis", DustLimit),
		})
	}
	if sats.Cmp(big.NewInt(btcutil.MaxSatoshi)) > 0 {
		return "", walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": "exceeds the 21M BTC supply",
		})
	}

	c.mu.RLock()
	key, from := c.key, c.address
	c.mu.RUnlock()
	if key == nil {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": "bitcoin"})
	}
	fromAddr, err := DecodeAddress(from, params)
	if err != nil {
		return "", err
	}

	utxos, err := c.ListUTXOs(ctx, from)
	if err != nil {
		return "", err
	}
	selected, change, err := SelectUTXOs(utxos, sats.Uint64(), FixedFee)
	if err != nil {
		return "", err
	}

	tx, err := BuildTransaction(selected, fromAddr, toAddr, sats.Uint64(), change, key)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("serializing transaction: %w", err)
	}

	client, err := c.endpoint()
	if err != nil {
		return "", err
	}
	txid, err := client.PostText(ctx, "/tx", hex.EncodeToString(buf.Bytes()))
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrTxRejected, err)
	}

	c.opts.Logger.Debug("bitcoin broadcast %s: %d inputs, %s sats to %s, change %d", txid, len(selected), sats, to, change)
	return txid, nil
}

// BuildTransaction builds and signs a transaction spending inputs owned by
// the P2PKH address from. A non-zero change is paid back to from.
func BuildTransaction(inputs []UTXO, from, to btcutil.Address, amount, change uint64, key *btcec.PrivateKey) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)

	for _, u := range inputs {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{"txid": u.TxID})
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, u.Vout), nil, nil))
	}

	toScript, err := txscript.PayToAddrScript(to)
	if err != nil {
		return nil, fmt.Errorf("recipient script: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(int64(amount), toScript)) //nolint:gosec // bounded by total supply

	fromScript, err := txscript.PayToAddrScript(from)
	if err != nil {
		return nil, fmt.Errorf("sender script: %w", err)
	}
	if change > 0 {
		tx.AddTxOut(wire.NewTxOut(int64(change), fromScript)) //nolint:gosec // bounded by total supply
	}

	for i := range tx.TxIn {
		sig, err := txscript.SignatureScript(tx, i, fromScript, txscript.SigHashAll, key, true)
		if err != nil {
			return nil, fmt.Errorf("signing input %d: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = sig
	}
	return tx, nil
}
