package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	keysForce      bool
	keysImportFile string
)

// KeyInfo is the public view of a stored key. It never carries the secret.
type KeyInfo struct {
	Chain     chain.ID      `json:"chain"`
	Network   chain.Network `json:"network"`
	Address   string        `json:"address,omitempty"`
	PublicKey string        `json:"public_key,omitempty"`
	Path      string        `json:"path"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encrypted chain keys",
	Long: `Generate, import and inspect the per-chain keys polywallet signs with.
Keys are encrypted with an age scrypt passphrase (POLYWALLET_PASSPHRASE or
an interactive prompt) and stored under $POLYWALLET_HOME/keys.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysGenerateCmd = &cobra.Command{
	Use:               "generate <chain>",
	Short:             "Generate and store a new key",
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
			return runKeysGenerate(ctx, cc, id, keysForce)
		})
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysImportCmd = &cobra.Command{
	Use:   "import <chain>",
	Short: "Import a mnemonic, WIF or hex private key",
	Long: `Import existing key material for a chain. The secret is read from
--file, from a hidden prompt on a terminal, or from the first line of stdin.
Mnemonics derive the first BIP44 account for tron, bitcoin and EVM chains.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeChains,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseChainArg(args[0])
		if err != nil {
			return err
		}
		secret, err := readImportSecret(keysImportFile)
		if err != nil {
			return err
		}
		ctx, cancel := contextWithTimeout(cmd, config.DefaultRequestTimeout)
		defer cancel()
		return withCommandContext(func(cc *CommandContext) error {
			return runKeysImport(ctx, cc, id, secret, keysForce)
		})
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysShowCmd = &cobra.Command{
	Use:               "show <chain>",
	Short:             "Show the address of a stored key",
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
			return runKeysShow(ctx, cc, id)
		})
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withCommandContext(runKeysList)
	},
}

func runKeysGenerate(ctx context.Context, cc *CommandContext, id chain.ID, force bool) error {
	base := cc.Config.ConnectorConfig(id)
	network := base.NetworkOrDefault()
	if err := ensureNoKey(cc, id, network, force); err != nil {
		return err
	}

	// Drop any config key material so the connector generates one.
	base.PrivateKey, base.Mnemonic = "", ""
	account, err := connectAccount(ctx, cc, id, base)
	if err != nil {
		return err
	}
	if !account.Generated || account.Secret == "" {
		return walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{"chain": id.String(), "reason": "connector returned no key material"})
	}

	info, err := saveKey(cc, id, network, account.Secret, account)
	if err != nil {
		return err
	}
	return writeKeyInfo(cc, info, "generated")
}

func runKeysImport(ctx context.Context, cc *CommandContext, id chain.ID, secret string, force bool) error {
	base := cc.Config.ConnectorConfig(id)
	network := base.NetworkOrDefault()
	if err := ensureNoKey(cc, id, network, force); err != nil {
		return err
	}

	base.PrivateKey, base.Mnemonic = "", ""
	keyCfg := keystore.SecretConfig(id, secret, base)
	if !keyCfg.HasKeyMaterial() {
		return walleterr.WithSuggestion(walleterr.ErrInvalidKey, "expected a 12/24-word mnemonic, a WIF key or a 64-character hex key")
	}
	if keyCfg.Mnemonic != "" && id != chain.TON {
		if err := keystore.ValidateMnemonic(keyCfg.Mnemonic); err != nil {
			return err
		}
	}

	account, err := connectAccount(ctx, cc, id, keyCfg)
	if err != nil {
		return err
	}

	material := keyCfg.PrivateKey
	if keyCfg.Mnemonic != "" {
		material = keyCfg.Mnemonic
	}
	info, err := saveKey(cc, id, network, material, account)
	if err != nil {
		return err
	}
	return writeKeyInfo(cc, info, "imported")
}

func runKeysShow(ctx context.Context, cc *CommandContext, id chain.ID) error {
	keyCfg, stored, err := resolveKeyConfig(cc, id)
	if err != nil {
		return err
	}
	network := keyCfg.NetworkOrDefault()
	if !stored {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrKeyNotFound, map[string]string{"chain": id.String(), "network": string(network)}),
			fmt.Sprintf("run 'polywallet keys generate %s'", id),
		)
	}

	account, err := connectAccount(ctx, cc, id, keyCfg)
	if err != nil {
		return err
	}
	return writeKeyInfo(cc, KeyInfo{
		Chain:     id,
		Network:   network,
		Address:   account.Address,
		PublicKey: account.PublicKey,
		Path:      cc.Keys.Dir(),
	}, "")
}

func runKeysList(cc *CommandContext) error {
	entries, err := cc.Keys.List()
	if err != nil {
		return err
	}
	infos := make([]KeyInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, KeyInfo{Chain: e.Chain, Network: e.Network, Path: e.Path})
	}

	return cc.Formatter.Result(infos, func(w io.Writer) error {
		if len(infos) == 0 {
			outln(w, "No keys stored. Run 'polywallet keys generate <chain>'.")
			return nil
		}
		table := output.NewTable("CHAIN", "NETWORK", "FILE")
		for _, info := range infos {
			table.AddRow(info.Chain.String(), string(info.Network), info.Path)
		}
		return table.Render(w)
	})
}

func ensureNoKey(cc *CommandContext, id chain.ID, network chain.Network, force bool) error {
	if force || !cc.Keys.Exists(id, network) {
		return nil
	}
	return walleterr.WithSuggestion(
		walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{"chain": id.String(), "network": string(network), "reason": "key already exists"}),
		"pass --force to replace it",
	)
}

// connectAccount connects the bare connector to derive the account, then
// releases it. The registry's connection table is left untouched.
func connectAccount(ctx context.Context, cc *CommandContext, id chain.ID, cfg chain.ConnectorConfig) (*chain.Account, error) {
	c, err := cc.Registry.Connector(id)
	if err != nil {
		return nil, err
	}
	account, err := c.Connect(ctx, cfg)
	if err != nil {
		return nil, walleterr.Wrap(err, "connect %s failed", id)
	}
	if err := c.Disconnect(ctx); err != nil {
		cc.Logger.Error("disconnect %s: %v", id, err)
	}
	return account, nil
}

func saveKey(cc *CommandContext, id chain.ID, network chain.Network, secret string, account *chain.Account) (KeyInfo, error) {
	pass, prompted, err := cc.passphrase(true)
	if err != nil {
		return KeyInfo{}, err
	}

	buf := []byte(secret)
	defer keystore.Zero(buf)
	if err := cc.Keys.Save(id, network, buf, pass); err != nil {
		return KeyInfo{}, err
	}
	if prompted {
		cc.rememberPassphrase(pass)
	}
	cc.Logger.Debug("stored %s %s key for %s", id, network, account.Address)

	return KeyInfo{
		Chain:     id,
		Network:   network,
		Address:   account.Address,
		PublicKey: account.PublicKey,
		Path:      cc.Keys.Dir(),
	}, nil
}

func writeKeyInfo(cc *CommandContext, info KeyInfo, verb string) error {
	return cc.Formatter.Result(info, func(w io.Writer) error {
		if verb != "" {
			out(w, "%s %s key for %s (%s)\n", output.Status("ok"), verb, info.Chain, info.Network)
		}
		out(w, "Address:    %s\n", info.Address)
		if info.PublicKey != "" {
			out(w, "Public key: %s\n", info.PublicKey)
		}
		out(w, "Keystore:   %s\n", info.Path)
		return nil
	})
}

func readImportSecret(path string) (string, error) {
	if path == "" {
		return promptSecretFn()
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return "", walleterr.WithCause(walleterr.ErrInvalidInput, err)
	}
	defer keystore.Zero(data)
	return strings.TrimSpace(string(data)), nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	keysGenerateCmd.Flags().BoolVar(&keysForce, "force", false, "replace an existing key")
	keysImportCmd.Flags().BoolVar(&keysForce, "force", false, "replace an existing key")
	keysImportCmd.Flags().StringVar(&keysImportFile, "file", "", "read the secret from a file")

	keysCmd.AddCommand(keysGenerateCmd, keysImportCmd, keysShowCmd, keysListCmd)
	rootCmd.AddCommand(keysCmd)
}
