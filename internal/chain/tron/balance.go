package tron

import (
	"context"
	"fmt"

	"github.com/mrz1836/polywallet/internal/chain"
)

type accountsResponse struct {
	Data []struct {
		Balance int64 `json:"balance"`
	} `json:"data"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Balance returns the TRX balance of address. Accounts the node has never
// seen have no data and a zero balance.
func (c *Connector) Balance(ctx context.Context, address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	client, err := c.endpoint()
	if err != nil {
		return "", err
	}

	var resp accountsResponse
	if err := client.GetJSON(ctx, "/v1/accounts/"+address, &resp); err != nil {
		return "", fmt.Errorf("fetching tron account: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].Balance <= 0 {
		return "0", nil
	}
	return chain.FormatUint(uint64(resp.Data[0].Balance), decimals), nil
}
