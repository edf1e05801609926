// Package cli implements the polywallet command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	networkFlag  string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	buildInfo BuildInfo
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetBuildInfo records the version reported by "polywallet version".
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "polywallet",
	Short: "One wallet front end for Tron, TON, Sui, Bitcoin and Aptos",
	Long: `polywallet connects to several blockchains through one registry and
lets you read balances and send native transfers on each of them.

Supported chains: tron, ton, sui, bitcoin, aptos, ethereum, bsc.

Example:
  polywallet keys generate tron
  polywallet connect tron
  polywallet balance sui 0x5c1e...
  polywallet send bitcoin --to bc1q... --amount 0.001`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	walkCommands(rootCmd, enrichParentLong)

	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return walleterr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}
	home = config.ExpandHome(home)

	if err := config.LoadDotEnv(home); err != nil {
		return walleterr.WithCause(walleterr.ErrConfigInvalid, err)
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case errors.Is(err, walleterr.ErrConfigNotFound):
		cfg = config.Defaults()
		cfg.Home = home
	case err != nil:
		return err
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if networkFlag != "" {
		n, ok := chain.ParseNetwork(networkFlag)
		if !ok {
			return walleterr.WithSuggestion(
				walleterr.WithDetails(walleterr.ErrUnknownNetwork, map[string]string{"network": networkFlag}),
				"use mainnet or testnet",
			)
		}
		cfg.Network = n
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.LogPath())
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}
	config.ConfigureSubsystemLogs(logLevel, cfg.LogPath())

	output.SetColor(cfg.Output.Color, os.Stdout)
	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), os.Stdout)

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the polywallet version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v := formatVersion(buildInfo)
		if formatter != nil && formatter.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]string{"version": v})
		}
		outln(cmd.OutOrStdout(), "polywallet", v)
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "polywallet data directory (default: ~/.polywallet)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network: mainnet or testnet (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(versionCmd)
}
