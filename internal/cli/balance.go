package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/output"
	"github.com/mrz1836/polywallet/internal/service/balance"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// ErrNoAddresses is returned when a batch file holds no addresses.
var ErrNoAddresses = errors.New("no addresses to query")

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// balanceRefresh forces a fresh fetch, ignoring the cache.
	balanceRefresh bool
	// batchFile is the address list for balance batch, "-" for stdin.
	batchFile string
)

// balanceCmd reads one balance.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance <chain> [address]",
	Short: "Check a native balance",
	Long: `Check the native balance of an address. Without an address the chain
is connected with its stored key and the account balance is shown.

Balances are cached locally. A cached value is served while it is fresh
and used as a stale fallback when the network is unreachable.`,
	Example: `  polywallet balance tron TJRabPrwbZy45sbavfcjinPJC18kjpRTv8
  polywallet balance sui --refresh`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completeChains,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseChainArg(args[0])
		if err != nil {
			return err
		}
		address := ""
		if len(args) == 2 {
			address = keystore.SanitizeAddress(args[1])
		}
		ctx, cancel := contextWithTimeout(cmd, config.DefaultRequestTimeout)
		defer cancel()

		return withCommandContext(func(cc *CommandContext) error {
			return runBalance(ctx, cc, id, address, balanceRefresh)
		})
	},
}

// balanceBatchCmd reads many balances of one chain.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceBatchCmd = &cobra.Command{
	Use:   "batch <chain> --file <path>",
	Short: "Check balances for a list of addresses",
	Long: `Read one address per line from a file (or stdin with --file -) and
query every balance concurrently. Blank lines are skipped. Rows keep the
input order; lookups that fail show a zero balance and the error.

Sui lookups are sent in small groups with a pause between them to stay
under public RPC limits.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeChains,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseChainArg(args[0])
		if err != nil {
			return err
		}
		addresses, err := readAddressFile(batchFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		ctx, cancel := contextWithTimeout(cmd, config.DefaultRequestTimeout)
		defer cancel()

		return withCommandContext(func(cc *CommandContext) error {
			return runBalanceBatch(ctx, cc, id, addresses, balanceRefresh, cmd.ErrOrStderr())
		})
	},
}

func runBalance(ctx context.Context, cc *CommandContext, id chain.ID, address string, refresh bool) error {
	network := cc.Config.ConnectorConfig(id).NetworkOrDefault()

	if address == "" {
		conn, _, err := connectChain(ctx, cc, id)
		if err != nil {
			return err
		}
		address = conn.Address
		network = conn.Network
	} else if err := cc.Registry.Configure(id, cc.Config.ConnectorConfig(id)); err != nil {
		return err
	}

	row, err := cc.Balances(refresh).FetchBalance(ctx, id, network, address)
	if err != nil {
		return err
	}
	if row.Stale {
		output.Warnf("network unavailable; showing cached balance from %s", row.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return cc.Formatter.Result(row, func(w io.Writer) error {
		out(w, "%s %s\n", row.Balance, row.Symbol)
		if cc.Config.Output.Verbose {
			out(w, "address: %s\nsource:  %s\n", row.Address, rowSource(*row))
		}
		return nil
	})
}

func runBalanceBatch(ctx context.Context, cc *CommandContext, id chain.ID, addresses []string, refresh bool, progress io.Writer) error {
	if len(addresses) == 0 {
		return walleterr.WithCause(walleterr.ErrInvalidInput, ErrNoAddresses)
	}
	if err := cc.Registry.Configure(id, cc.Config.ConnectorConfig(id)); err != nil {
		return err
	}
	network := cc.Config.ConnectorConfig(id).NetworkOrDefault()

	var report balance.ProgressCallback
	if !cc.Formatter.IsJSON() && progress != nil {
		report = func(p balance.ProgressUpdate) {
			out(progress, "\r%d/%d addresses", p.Completed, p.Total)
			if p.Completed == p.Total {
				outln(progress)
			}
		}
	}

	rows := cc.Balances(refresh).FetchBatch(ctx, id, network, addresses, report)

	return cc.Formatter.Result(rows, func(w io.Writer) error {
		table := output.NewTable("ADDRESS", "BALANCE", "STATUS")
		for _, row := range rows {
			status := rowSource(row)
			if !row.OK() && !row.Stale {
				status = output.Status("error") + ": " + row.Error
			}
			table.AddRow(row.Address, row.Balance+" "+row.Symbol, status)
		}
		return table.Render(w)
	})
}

func rowSource(row balance.AddressBalance) string {
	switch {
	case row.Stale:
		return output.Status("stale")
	case row.Cached:
		return output.Status("cached")
	default:
		return output.Status("ok")
	}
}

// readAddressFile reads one address per line from path, or from stdin for
// "-". Blank lines are dropped here and again by the service.
func readAddressFile(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	switch path {
	case "":
		return nil, walleterr.WithSuggestion(walleterr.ErrInvalidInput, "pass --file <path> or --file - for stdin")
	case "-":
		r = stdin
	default:
		f, err := os.Open(path) //nolint:gosec // user-supplied path is the point
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, walleterr.WithDetails(walleterr.ErrNotFound, map[string]string{"file": path})
			}
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var addresses []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := keystore.SanitizeAddress(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			addresses = append(addresses, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return addresses, nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	balanceCmd.PersistentFlags().BoolVar(&balanceRefresh, "refresh", false, "ignore the cache and query the network")
	balanceBatchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "address list, one per line (- for stdin)")

	balanceCmd.AddCommand(balanceBatchCmd)
	rootCmd.AddCommand(balanceCmd)
}
