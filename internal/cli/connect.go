package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/output"
	"github.com/mrz1836/polywallet/internal/wallet"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var connectQR bool

// connectCmd connects one chain and prints the connection.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect <chain>",
	Short: "Connect to a chain and show the account",
	Long: `Connect to a chain with the stored key (or the key material in the
config file) and show the address, public key and current balance.

Without a stored key the connector generates a throwaway account for the
session. Run "polywallet keys generate <chain>" to keep one.`,
	Example: `  polywallet connect tron
  polywallet connect sui --network testnet --qr`,
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
			return runConnect(ctx, cc, id, connectQR)
		})
	},
}

func runConnect(ctx context.Context, cc *CommandContext, id chain.ID, qr bool) error {
	conn, stored, err := connectChain(ctx, cc, id)
	if err != nil {
		return err
	}
	if !stored {
		output.Warnf("no stored key for %s; this session uses a new key that is not saved (run 'polywallet keys generate %s')", id, id)
	}

	return cc.Formatter.Result(conn, func(w io.Writer) error {
		writeConnection(w, conn)
		if qr {
			return output.RenderQR(w, output.PaymentURI(id, conn.Address), output.DefaultQRConfig())
		}
		return nil
	})
}

// resolveKeyConfig returns the connector config of id with key material
// filled from the config file or the keystore. stored is false when
// neither has a key.
func resolveKeyConfig(cc *CommandContext, id chain.ID) (cfg chain.ConnectorConfig, stored bool, err error) {
	cfg = cc.Config.ConnectorConfig(id)
	if cfg.HasKeyMaterial() {
		return cfg, true, nil
	}

	network := cfg.NetworkOrDefault()
	if !cc.Keys.Exists(id, network) {
		return cfg, false, nil
	}

	pass, prompted, err := cc.passphrase(false)
	if err != nil {
		return cfg, false, err
	}
	secret, err := cc.Keys.Load(id, network, pass)
	if errors.Is(err, walleterr.ErrDecryptionFailed) {
		cc.forgetPassphrase()
	}
	if err != nil {
		return cfg, false, err
	}
	defer secret.Destroy()
	if prompted {
		cc.rememberPassphrase(pass)
	}

	cc.Logger.Debug("loaded %s %s key from keystore", id, network)
	return keystore.SecretConfig(id, secret.String(), cfg), true, nil
}

// connectChain connects id through the registry with its resolved key.
func connectChain(ctx context.Context, cc *CommandContext, id chain.ID) (*wallet.Connection, bool, error) {
	keyCfg, stored, err := resolveKeyConfig(cc, id)
	if err != nil {
		return nil, false, err
	}
	conn, err := cc.Registry.Connect(ctx, id, keyCfg)
	if err != nil {
		return nil, stored, err
	}
	return conn, stored, nil
}

func writeConnection(w io.Writer, conn *wallet.Connection) {
	out(w, "Chain:        %s (%s)\n", conn.Chain, conn.Network)
	out(w, "Status:       %s\n", output.Status(statusWord(conn.Connected)))
	out(w, "Address:      %s\n", conn.Address)
	if conn.PublicKey != "" {
		out(w, "Public key:   %s\n", conn.PublicKey)
	}
	out(w, "Balance:      %s %s\n", conn.Balance, conn.Chain.Symbol())
	if !conn.ConnectedAt.IsZero() {
		out(w, "Connected at: %s\n", conn.ConnectedAt.Format(time.RFC3339))
	}
}

func statusWord(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	connectCmd.Flags().BoolVar(&connectQR, "qr", false, "show the address as a QR code (terminal only)")
	rootCmd.AddCommand(connectCmd)
}
