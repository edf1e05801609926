package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// TransferGasLimit is the gas of a plain value transfer.
const TransferGasLimit = 21000

// Balance returns the native balance of address at the latest block.
func (c *Connector) Balance(ctx context.Context, address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	backend, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	wei, err := backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, err)
	}
	return chain.FormatDecimalAmount(wei, c.id.Decimals()), nil
}

// Send signs and submits a legacy EIP-155 transfer and returns its hash.
func (c *Connector) Send(ctx context.Context, to, amount string) (string, error) {
	if err := ValidateAddress(to); err != nil {
		return "", err
	}
	value, err := chain.ParsePositiveAmount(amount, c.id.Decimals())
	if err != nil {
		return "", err
	}

	c.mu.RLock()
	backend, key, from := c.backend, c.key, c.address
	c.mu.RUnlock()
	if key == nil || backend == nil {
		return "", walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": c.id.String()})
	}

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("nonce: %w", err))
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("gas price: %w", err))
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("chain id: %w", err))
	}

	balance, err := backend.BalanceAt(ctx, from, nil)
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrNetworkError, err)
	}
	cost := new(big.Int).Mul(gasPrice, big.NewInt(TransferGasLimit))
	cost.Add(cost, value)
	if balance.Cmp(cost) < 0 {
		return "", walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
			"available": chain.FormatDecimalAmount(balance, c.id.Decimals()),
			"required":  chain.FormatDecimalAmount(cost, c.id.Decimals()),
		})
	}

	recipient := common.HexToAddress(to)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      TransferGasLimit,
		To:       &recipient,
		Value:    value,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), key)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return "", walleterr.WithCause(walleterr.ErrTxRejected, err)
	}

	c.opts.Logger.Debug("%s sent %s: nonce %d, %s wei to %s", c.id, signed.Hash().Hex(), nonce, value, to)
	return signed.Hash().Hex(), nil
}
