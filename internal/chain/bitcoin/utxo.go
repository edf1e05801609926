package bitcoin

import (
	"context"
	"fmt"
	"math"
	"sort"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const (
	// DustLimit is the minimum output value in satoshis.
	DustLimit = 546

	// FixedFee is the fee paid by every transfer, in satoshis.
	FixedFee = 10_000
)

// UTXO is an unspent output as reported by Esplora.
type UTXO struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  uint64 `json:"value"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
	} `json:"status"`
}

// ListUTXOs returns the unspent outputs of address.
func (c *Connector) ListUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	client, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	var utxos []UTXO
	if err := client.GetJSON(ctx, "/address/"+address+"/utxo", &utxos); err != nil {
		return nil, fmt.Errorf("listing bitcoin utxos: %w", err)
	}
	return utxos, nil
}

// SelectUTXOs picks outputs largest first until amount plus fee is covered.
// The returned change is zero when it would fall below DustLimit, in which
// case it is left to the miner.
func SelectUTXOs(utxos []UTXO, amount, fee uint64) (selected []UTXO, change uint64, err error) {
	if len(utxos) == 0 {
		return nil, 0, walleterr.ErrNoUTXOs
	}

	sorted := make([]UTXO, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	if amount > math.MaxUint64-fee {
		return nil, 0, walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{
			"amount": fmt.Sprint(amount),
			"reason": "amount plus fee overflows",
		})
	}
	need := amount + fee
	var total uint64
	for _, u := range sorted {
		selected = append(selected, u)
		total += u.Value
		if total >= need {
			break
		}
	}
	if total < need {
		return nil, 0, walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
			"available": fmt.Sprint(total),
			"required":  fmt.Sprint(need),
		})
	}

	change = total - need
	if change < DustLimit {
		change = 0
	}
	return selected, change, nil
}
