package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/cache"
	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	sendTo     string
	sendAmount string
	sendYes    bool
)

// SendResult is the JSON shape of a completed send.
type SendResult struct {
	Chain       chain.ID      `json:"chain"`
	Network     chain.Network `json:"network"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Amount      string        `json:"amount"`
	Symbol      string        `json:"symbol"`
	TxHash      string        `json:"tx_hash"`
	ExplorerURL string        `json:"explorer_url,omitempty"`
	Balance     string        `json:"balance"`
}

// sendCmd sends a native transfer.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:   "send <chain> --to <address> --amount <amount>",
	Short: "Send native coins",
	Long: `Send a native transfer from the stored key of a chain. The amount is
in display units (TRX, TON, SUI, BTC, APT, ETH or BNB) and is checked
against the chain's decimals before anything is signed.

The transfer is recorded in the history database, and the connected
balance is refreshed once it has been broadcast.`,
	Example: `  polywallet send tron --to TJRabPrwbZy45sbavfcjinPJC18kjpRTv8 --amount 12.5
  polywallet send bitcoin --to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq --amount 0.0005 --yes`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeChains,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseChainArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := contextWithTimeout(cmd, config.DefaultRequestTimeout)
		defer cancel()

		return withCommandContext(func(cc *CommandContext) error {
			return runSend(ctx, cc, id, sendTo, sendAmount, sendYes)
		})
	},
}

func runSend(ctx context.Context, cc *CommandContext, id chain.ID, to, amount string, yes bool) error {
	to = keystore.SanitizeAddress(to)
	amount = strings.TrimSpace(amount)
	if to == "" {
		return walleterr.WithSuggestion(walleterr.ErrInvalidAddress, "pass the recipient with --to")
	}
	if amount == "" {
		return walleterr.ErrAmountRequired
	}
	if _, err := chain.ParsePositiveAmount(amount, id.Decimals()); err != nil {
		return err
	}

	keyCfg, stored, err := resolveKeyConfig(cc, id)
	if err != nil {
		return err
	}
	if !stored {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrKeyNotFound, map[string]string{"chain": id.String()}),
			fmt.Sprintf("run 'polywallet keys generate %s' or 'polywallet keys import %s' first", id, id),
		)
	}

	conn, err := cc.Registry.Connect(ctx, id, keyCfg)
	if err != nil {
		return err
	}

	if !yes {
		question := fmt.Sprintf("Send %s %s from %s to %s on %s %s?", amount, id.Symbol(), conn.Address, to, id, conn.Network)
		if !promptConfirmFn(question) {
			return walleterr.WithSuggestion(walleterr.ErrInvalidInput, "transfer cancelled")
		}
	}

	hash, err := cc.Registry.SendTransaction(ctx, id, to, amount)
	if err != nil {
		return err
	}

	result := SendResult{
		Chain:   id,
		Network: conn.Network,
		From:    conn.Address,
		To:      to,
		Amount:  amount,
		Symbol:  id.Symbol(),
		TxHash:  hash,
		Balance: conn.Balance,
	}
	if info, err := cc.Registry.ChainInfo(id, conn.Network); err == nil {
		result.ExplorerURL = info.TxURL(hash)
	}
	if updated, ok := cc.Registry.Connection(id); ok {
		result.Balance = updated.Balance
		if cc.Cache != nil {
			cc.Cache.Set(cache.BalanceCacheEntry{Chain: id, Network: updated.Network, Address: updated.Address, Balance: updated.Balance})
		}
	}

	return cc.Formatter.Result(result, func(w io.Writer) error {
		out(w, "%s %s %s sent to %s\n", output.Status("sent"), amount, id.Symbol(), to)
		out(w, "Tx hash:  %s\n", hash)
		if result.ExplorerURL != "" {
			out(w, "Explorer: %s\n", result.ExplorerURL)
		}
		out(w, "Balance:  %s %s\n", result.Balance, id.Symbol())
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in display units")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(sendCmd)
}
