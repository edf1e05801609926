package aptos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	aptossdk "github.com/aptos-labs/aptos-go-sdk"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Balance returns the APT balance of address. Accounts that do not exist
// on chain yet hold nothing.
func (c *Connector) Balance(ctx context.Context, address string) (string, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return "", err
	}
	node, err := c.client()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	octas, err := node.AccountAPTBalance(addr)
	if err != nil {
		if isNotFound(err) {
			return "0", nil
		}
		return "", walleterr.WithCause(walleterr.ErrNetworkError, err)
	}
	return chain.FormatUint(octas, decimals), nil
}

// Send submits an aptos_account transfer and waits for it to commit. A
// committed but failed transaction is reported as rejected.
func (c *Connector) Send(ctx context.Context, to, amount string) (string, error) {
	dest, err := ParseAddress(to)
	if err != nil {
		return "", err
	}
	octas, err := chain.ParsePositiveAmount(amount, decimals)
	if err != nil {
		return "", err
	}
	if !octas.IsUint64() {
		return "", walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{"amount": amount})
	}

	c.mu.RLock()
	node, account := c.node, c.account
	c.mu.RUnlock()
	if account == nil || node == nil {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": "aptos"})
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload, err := aptossdk.CoinTransferPayload(nil, dest, octas.Uint64())
	if err != nil {
		return "", fmt.Errorf("building transfer payload: %w", err)
	}
	submitted, err := node.BuildSignAndSubmitTransaction(account, aptossdk.TransactionPayload{Payload: payload})
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrTxRejected, err)
	}

	committed, err := node.WaitForTransaction(submitted.Hash)
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("waiting for %s: %w", submitted.Hash, err))
	}
	if !committed.Success {
		return "", walleterr.WithDetails(walleterr.ErrTxRejected, map[string]string{
			"hash":      submitted.Hash,
			"vm_status": committed.VmStatus,
		})
	}

	c.opts.Logger.Debug("aptos committed %s: %s octas to %s", submitted.Hash, octas, to)
	return submitted.Hash, nil
}

func isNotFound(err error) bool {
	var httpErr *aptossdk.HttpError
	if errors.As(err, &httpErr) && httpErr.StatusCode == 404 {
		return true
	}
	return strings.Contains(err.Error(), "resource_not_found") || strings.Contains(err.Error(), "account_not_found")
}
