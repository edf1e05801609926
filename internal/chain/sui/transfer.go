package sui

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/block-vision/sui-go-sdk/models"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Balance returns the total SUI balance of address.
func (c *Connector) Balance(ctx context.Context, address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	api, err := c.client()
	if err != nil {
		return "", err
	}

	resp, err := api.SuiXGetBalance(ctx, models.SuiXGetBalanceRequest{Owner: address, CoinType: CoinType})
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, err)
	}
	if resp.TotalBalance == "" {
		return "0", nil
	}
	mist, ok := new(big.Int).SetString(resp.TotalBalance, 10)
	if !ok {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("unexpected balance %q", resp.TotalBalance))
	}
	return chain.FormatDecimalAmount(mist, decimals), nil
}

// Send transfers amount SUI to the recipient, paying gas from the same coin,
// and returns the transaction digest.
func (c *Connector) Send(ctx context.Context, to, amount string) (string, error) {
	if err := ValidateAddress(to); err != nil {
		return "", err
	}
	mist, err := chain.ParsePositiveAmount(amount, decimals)
	if err != nil {
		return "", err
	}
	if !mist.IsUint64() {
		return "", walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{"amount": amount})
	}

	c.mu.RLock()
	api, s := c.api, c.signer
	c.mu.RUnlock()
	if s == nil || api == nil {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": "sui"})
	}

	coin, err := selectCoin(ctx, api, s.Address, mist.Uint64()+GasBudget)
	if err != nil {
		return "", err
	}

	txn, err := api.TransferSui(ctx, models.TransferSuiRequest{
		Signer:      s.Address,
		SuiObjectId: coin,
		GasBudget:   strconv.FormatUint(GasBudget, 10),
		Recipient:   to,
		Amount:      mist.String(),
	})
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrTxRejected, err)
	}

	resp, err := api.SignAndExecuteTransactionBlock(ctx, models.SignAndExecuteTransactionBlockRequest{
		TxnMetaData: txn,
		PriKey:      s.PriKey,
		Options:     models.SuiTransactionBlockOptions{ShowEffects: true},
		RequestType: "WaitForLocalExecution",
	})
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrTxRejected, err)
	}

	c.opts.Logger.Debug("sui executed %s: %s mist to %s", resp.Digest, mist, to)
	return resp.Digest, nil
}

// selectCoin returns the largest SUI coin object owned by owner, which must
// cover need on its own.
func selectCoin(ctx context.Context, api API, owner string, need uint64) (string, error) {
	coins, err := api.SuiXGetCoins(ctx, models.SuiXGetCoinsRequest{Owner: owner, CoinType: CoinType, Limit: 50})
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, err)
	}

	var best string
	var bestBalance uint64
	for _, coin := range coins.Data {
		v, err := strconv.ParseUint(coin.Balance, 10, 64)
		if err != nil {
			continue
		}
		if v > bestBalance {
			best, bestBalance = coin.CoinObjectId, v
		}
	}
	if best == "" || bestBalance < need {
		return "", walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
			"largest_coin": strconv.FormatUint(bestBalance, 10),
			"required":     strconv.FormatUint(need, 10),
		})
	}
	return best, nil
}
