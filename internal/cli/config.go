package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const redacted = "[redacted]"

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration",
	Long: `The configuration lives in $POLYWALLET_HOME/config.yaml. Environment
variables (POLYWALLET_*) and a .env file in the home directory override it.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after environment overrides and flags.
Private keys, mnemonics and API keys are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runConfigShow(formatter, cfg)
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runConfigInit(formatter, cfg.Home, configForce)
	},
}

func runConfigShow(f *output.Formatter, c *config.Config) error {
	view := redactedCopy(c)
	return f.Result(view, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	})
}

func runConfigInit(f *output.Formatter, home string, force bool) error {
	path := config.Path(config.ExpandHome(home))
	if _, err := os.Stat(path); err == nil && !force {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{"path": path, "reason": "config already exists"}),
			"pass --force to overwrite it",
		)
	}

	c := config.Defaults()
	c.Home = home
	if err := config.Save(c, path); err != nil {
		return err
	}
	return output.FormatSuccess(f.Writer(), "wrote "+path, f.Format())
}

// redactedCopy returns cfg with secrets replaced.
func redactedCopy(c *config.Config) *config.Config {
	cp := *c
	cp.Chains = make(map[string]chain.ConnectorConfig, len(c.Chains))
	for k, v := range c.Chains {
		if v.PrivateKey != "" {
			v.PrivateKey = redacted
		}
		if v.Mnemonic != "" {
			v.Mnemonic = redacted
		}
		if v.APIKey != "" {
			v.APIKey = redacted
		}
		cp.Chains[k] = v
	}
	if cp.History.DSN != "" && cp.History.Driver == "postgres" {
		cp.History.DSN = redacted
	}
	return &cp
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
