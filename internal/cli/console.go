package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// consolePrompt is printed before each line on a terminal.
const consolePrompt = "polywallet> "

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive session over one registry",
	Long: `Start an interactive session. Connections made in the console stay
open until you disconnect them or exit, so several chains can be used
side by side.

Commands:
  connect <chain>               connect with the stored key
  disconnect <chain>            drop a connection
  status                        list connections and balances
  balance <chain> [address]     read a balance
  update <chain>                refresh a connected balance
  send <chain> <to> <amount>    send native coins (asks to confirm)
  chains                        list supported chains
  metrics                       show operation counters
  help                          show this list
  exit | quit                   leave the console`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCommandContext(func(cc *CommandContext) error {
			interactive := output.CanRenderQR(cmd.OutOrStdout())
			return runConsole(cmd.Context(), cc, cmd.InOrStdin(), interactive)
		})
	},
}

type consoleHandler func(ctx context.Context, s *consoleSession, args []string) error

type consoleSession struct {
	cc       *CommandContext
	w        io.Writer
	handlers map[string]consoleHandler
}

func newConsoleSession(cc *CommandContext) *consoleSession {
	s := &consoleSession{cc: cc, w: cc.Out()}
	s.handlers = map[string]consoleHandler{
		"connect":    consoleConnect,
		"disconnect": consoleDisconnect,
		"status":     consoleStatus,
		"balance":    consoleBalance,
		"update":     consoleUpdate,
		"send":       consoleSend,
		"chains":     consoleChains,
		"metrics":    consoleMetrics,
	}
	return s
}

// runConsole reads commands from in until EOF or exit. Command errors are
// printed and the session continues.
func runConsole(ctx context.Context, cc *CommandContext, in io.Reader, interactive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := newConsoleSession(cc)
	scanner := bufio.NewScanner(in)

	for {
		if interactive {
			out(s.w, "%s", consolePrompt)
		}
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		name := strings.ToLower(fields[0])
		switch name {
		case "exit", "quit":
			return nil
		case "help", "?":
			s.help()
			continue
		}

		handler, ok := s.handlers[name]
		if !ok {
			out(s.w, "unknown command %q (type 'help')\n", name)
			continue
		}

		cmdCtx, cancel := context.WithTimeout(ctx, config.DefaultRequestTimeout)
		err := handler(cmdCtx, s, fields[1:])
		cancel()
		if err != nil {
			_ = output.FormatError(s.w, err, output.FormatText)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func (s *consoleSession) help() {
	names := make([]string, 0, len(s.handlers)+2)
	for name := range s.handlers {
		names = append(names, name)
	}
	names = append(names, "help", "exit")
	sort.Strings(names)
	outln(s.w, "commands:", strings.Join(names, ", "))
}

func consoleChainArg(args []string, usage string, minArgs int) (chain.ID, error) {
	if len(args) < minArgs {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput, "usage: "+usage)
	}
	return parseChainArg(args[0])
}

func consoleConnect(ctx context.Context, s *consoleSession, args []string) error {
	id, err := consoleChainArg(args, "connect <chain>", 1)
	if err != nil {
		return err
	}
	conn, stored, err := connectChain(ctx, s.cc, id)
	if err != nil {
		return err
	}
	if !stored {
		out(s.w, "%s no stored key for %s; using a session key\n", output.Status("pending"), id)
	}
	writeConnection(s.w, conn)
	return nil
}

func consoleDisconnect(ctx context.Context, s *consoleSession, args []string) error {
	id, err := consoleChainArg(args, "disconnect <chain>", 1)
	if err != nil {
		return err
	}
	if err := s.cc.Registry.Disconnect(ctx, id); err != nil {
		return err
	}
	out(s.w, "%s disconnected\n", id)
	return nil
}

func consoleStatus(_ context.Context, s *consoleSession, _ []string) error {
	conns := s.cc.Registry.Connections()
	if len(conns) == 0 {
		outln(s.w, "no chains connected")
		return nil
	}
	table := output.NewTable("CHAIN", "NETWORK", "ADDRESS", "BALANCE")
	for _, c := range conns {
		table.AddRow(c.Chain.String(), string(c.Network), c.Address, c.Balance+" "+c.Chain.Symbol())
	}
	return table.Render(s.w)
}

func consoleBalance(ctx context.Context, s *consoleSession, args []string) error {
	id, err := consoleChainArg(args, "balance <chain> [address]", 1)
	if err != nil {
		return err
	}
	address := ""
	if len(args) > 1 {
		address = args[1]
	} else if conn, ok := s.cc.Registry.Connection(id); ok {
		address = conn.Address
	} else {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": id.String()}),
			fmt.Sprintf("run 'connect %s' or pass an address", id),
		)
	}

	if !s.cc.connected(id) {
		if err := s.cc.Registry.Configure(id, s.cc.Config.ConnectorConfig(id)); err != nil {
			return err
		}
	}
	network := s.cc.Config.ConnectorConfig(id).NetworkOrDefault()
	if conn, ok := s.cc.Registry.Connection(id); ok {
		network = conn.Network
	}

	row, err := s.cc.Balances(false).FetchBalance(ctx, id, network, address)
	if err != nil {
		return err
	}
	out(s.w, "%s %s (%s)\n", row.Balance, row.Symbol, rowSource(*row))
	return nil
}

func consoleUpdate(ctx context.Context, s *consoleSession, args []string) error {
	id, err := consoleChainArg(args, "update <chain>", 1)
	if err != nil {
		return err
	}
	if !s.cc.connected(id) {
		return walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": id.String()})
	}
	s.cc.Registry.UpdateBalance(ctx, id)
	conn, _ := s.cc.Registry.Connection(id)
	out(s.w, "%s %s\n", conn.Balance, id.Symbol())
	return nil
}

func consoleSend(ctx context.Context, s *consoleSession, args []string) error {
	id, err := consoleChainArg(args, "send <chain> <to> <amount>", 3)
	if err != nil {
		return err
	}
	if !s.cc.connected(id) {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrNotConnected, map[string]string{"chain": id.String()}),
			fmt.Sprintf("run 'connect %s' first", id),
		)
	}
	to, amount := args[1], args[2]
	if !promptConfirmFn(fmt.Sprintf("Send %s %s to %s?", amount, id.Symbol(), to)) {
		outln(s.w, "cancelled")
		return nil
	}

	hash, err := s.cc.Registry.SendTransaction(ctx, id, to, amount)
	if err != nil {
		return err
	}
	out(s.w, "%s %s\n", output.Status("sent"), hash)
	if conn, ok := s.cc.Registry.Connection(id); ok {
		out(s.w, "balance: %s %s\n", conn.Balance, id.Symbol())
	}
	return nil
}

func consoleChains(_ context.Context, s *consoleSession, _ []string) error {
	names := make([]string, 0)
	for _, id := range s.cc.Registry.SupportedChains() {
		names = append(names, id.String())
	}
	outln(s.w, strings.Join(names, " "))
	return nil
}

func consoleMetrics(_ context.Context, s *consoleSession, _ []string) error {
	if s.cc.Metrics == nil {
		outln(s.w, "metrics disabled")
		return nil
	}
	snap := s.cc.Metrics.Snapshot()
	out(s.w, "connects: %d (%d failed)\n", snap.ConnectsTotal, snap.ConnectErrors)
	out(s.w, "balances: %d (%d failed)\n", snap.BalancesTotal, snap.BalanceErrors)
	out(s.w, "sends:    %d (%d failed)\n", snap.SendsTotal, snap.SendErrors)
	out(s.w, "latency:  %.1fms avg\n", s.cc.Metrics.LatencyAvgMs())
	out(s.w, "cache:    %d hits, %d misses\n", snap.CacheHits, snap.CacheMisses)
	return nil
}

func (c *CommandContext) connected(id chain.ID) bool {
	_, ok := c.Registry.Connection(id)
	return ok
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(consoleCmd)
}
