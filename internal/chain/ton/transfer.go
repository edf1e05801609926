package ton

import (
	"context"
	"fmt"
	"math/big"
	"net/url"

	"github.com/xssnick/tonutils-go/tlb"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

type balanceResponse struct {
	OK     bool   `json:"ok"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Balance returns the TON balance of address from toncenter.
func (c *Connector) Balance(ctx context.Context, address string) (string, error) {
	if _, err := ParseAddress(address); err != nil {
		return "", err
	}
	client, err := c.endpoint()
	if err != nil {
		return "", err
	}

	var resp balanceResponse
	if err := client.GetJSON(ctx, "/getAddressBalance?address="+url.QueryEscape(address), &resp); err != nil {
		return "", fmt.Errorf("fetching ton balance: %w", err)
	}
	if !resp.OK {
		return "", walleterr.WithDetails(walleterr.ErrNetworkError, map[string]string{"reason": resp.Error})
	}
	nano, ok := new(big.Int).SetString(resp.Result, 10)
	if !ok {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("unexpected balance %q", resp.Result))
	}
	return chain.FormatDecimalAmount(nano, decimals), nil
}

// Send transfers amount TON and returns the hex hash of the wallet
// transaction. Bounce follows the recipient address flag.
func (c *Connector) Send(ctx context.Context, to, amount string) (string, error) {
	dest, err := ParseAddress(to)
	if err != nil {
		return "", err
	}
	nano, err := chain.ParsePositiveAmount(amount, decimals)
	if err != nil {
		return "", err
	}

	c.mu.RLock()
	sender := c.sender
	c.mu.RUnlock()
	if sender == nil {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": "ton"})
	}

	hash, err := sender.Transfer(ctx, dest, tlb.FromNanoTON(nano), dest.IsBounceable(), "")
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrTxRejected, err)
	}

	c.opts.Logger.Debug("ton sent %s: %s nanoton to %s", hash, nano, to)
	return hash, nil
}
