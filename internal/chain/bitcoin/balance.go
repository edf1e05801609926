package bitcoin

import (
	"context"
	"fmt"

	"github.com/mrz1836/polywallet/internal/chain"
)

type txoStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int   `json:"tx_count"`
}

type addressResponse struct {
	Address      string   `json:"address"`
	ChainStats   txoStats `json:"chain_stats"`
	MempoolStats txoStats `json:"mempool_stats"`
}

// Satoshis returns confirmed plus unconfirmed funds, clamped at zero.
func (r addressResponse) Satoshis() uint64 {
	total := r.ChainStats.FundedTxoSum - r.ChainStats.SpentTxoSum +
		r.MempoolStats.FundedTxoSum - r.MempoolStats.SpentTxoSum
	if total < 0 {
		return 0
	}
	return uint64(total)
}

// Balance returns the BTC balance of address, including mempool activity.
func (c *Connector) Balance(ctx context.Context, address string) (string, error) {
	if _, err := DecodeAddress(address, c.params()); err != nil {
		return "", err
	}
	client, err := c.endpoint()
	if err != nil {
		return "", err
	}

	var resp addressResponse
	if err := client.GetJSON(ctx, "/address/"+address, &resp); err != nil {
		return "", fmt.Errorf("fetching bitcoin address: %w", err)
	}
	return chain.FormatUint(resp.Satoshis(), decimals), nil
}
