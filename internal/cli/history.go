package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/history"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	historyChain  string
	historyStatus string
	historyLimit  int
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List sent transactions",
	Long: `List the transfers sent through polywallet, newest first. Entries are
recorded before broadcast as pending; failed sends keep their error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter := history.Filter{Status: history.Status(historyStatus), Limit: historyLimit}
		if historyChain != "" {
			id, err := parseChainArg(historyChain)
			if err != nil {
				return err
			}
			filter.Chain = id.String()
		}
		return withCommandContext(func(cc *CommandContext) error {
			return runHistory(cmd.Context(), cc, filter)
		})
	},
}

func runHistory(ctx context.Context, cc *CommandContext, filter history.Filter) error {
	if cc.History == nil {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrNotFound, map[string]string{"resource": "history"}),
			"enable history in config.yaml (history.enabled: true)",
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := cc.History.List(ctx, filter)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*history.Entry{}
	}

	return cc.Formatter.Result(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			outln(w, "No transactions recorded.")
			return nil
		}
		table := output.NewTable("TIME", "CHAIN", "AMOUNT", "TO", "STATUS", "TX")
		for _, e := range entries {
			status := string(e.Status)
			if e.Status == history.StatusFailed && e.Error != "" {
				status += ": " + e.Error
			}
			table.AddRow(e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Chain, e.Amount.String(), e.To, output.Status(status), e.TxHash)
		}
		return table.Render(w)
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	historyCmd.Flags().StringVarP(&historyChain, "chain", "c", "", "only show one chain")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only show pending, sent or failed entries")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 50, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}
