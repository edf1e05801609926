package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// chainsAll lists every network instead of the selected one.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var chainsAll bool

// chainsCmd lists the network table.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List supported chains and their default endpoints",
	Long: `List every supported chain with its symbol, decimals and default RPC
endpoint for the selected network. Use --all to include both networks.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runChains(formatter, cfg.Network, chainsAll)
	},
}

func runChains(f *output.Formatter, network chain.Network, all bool) error {
	var infos []chain.Info
	for _, info := range chain.Networks() {
		if all || info.Network == network {
			infos = append(infos, info)
		}
	}

	return f.Result(infos, func(w io.Writer) error {
		table := output.NewTable("CHAIN", "NETWORK", "NAME", "SYMBOL", "DECIMALS", "RPC")
		for _, info := range infos {
			table.AddRow(info.Chain.String(), string(info.Network), info.Name, info.Symbol,
				strconv.Itoa(info.Decimals), info.RPCURL)
		}
		return table.Render(w)
	})
}

// parseChainArg resolves a chain argument, suggesting the closest name
// when it is not recognized.
func parseChainArg(s string) (chain.ID, error) {
	if id, ok := chain.ParseChainID(s); ok {
		return id, nil
	}

	names := make([]string, 0, len(chain.AllChains()))
	for _, id := range chain.AllChains() {
		names = append(names, id.String())
	}

	err := walleterr.WithDetails(walleterr.ErrChainNotSupported, map[string]string{"chain": s})
	if hint := keystore.Suggest(s, names); hint != "" {
		return "", walleterr.WithSuggestion(err, "did you mean '"+hint+"'?")
	}
	return "", walleterr.WithSuggestion(err, "supported chains: "+strings.Join(names, ", "))
}

// completeChains offers chain names for positional arguments.
func completeChains(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(chain.AllChains()))
	for _, id := range chain.AllChains() {
		names = append(names, id.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	chainsCmd.Flags().BoolVar(&chainsAll, "all", false, "include mainnet and testnet entries")
	rootCmd.AddCommand(chainsCmd)
}
