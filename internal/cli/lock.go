package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/session"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Forget the cached keystore passphrase",
	Long: `After the keystore passphrase is entered once it is cached in the OS
keychain for session.ttl (15 minutes by default). lock ends that session
so the next command asks again.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withCommandContext(runLock)
	},
}

// LockResult is the JSON shape of "lock".
type LockResult struct {
	Enabled bool `json:"enabled"`
	Ended   int  `json:"ended"`
}

func runLock(cc *CommandContext) error {
	result := LockResult{Enabled: cc.Sessions != nil}
	if cc.Sessions != nil {
		result.Ended = cc.Sessions.EndAll()
	}
	return cc.Formatter.Result(result, func(w io.Writer) error {
		if !result.Enabled {
			outln(w, "Passphrase sessions are disabled.")
			return nil
		}
		out(w, "Ended %d session(s).\n", result.Ended)
		return nil
	})
}

// passphrase returns the keystore passphrase from the environment, an
// active session or a prompt, in that order. prompted is true only for
// the last.
func (c *CommandContext) passphrase(isNew bool) (pass string, prompted bool, err error) {
	if p := config.Passphrase(); p != "" {
		return p, false, nil
	}
	if c.Sessions != nil {
		if secret, _, err := c.Sessions.Get(session.KeystoreSession); err == nil {
			defer keystore.Zero(secret)
			return string(secret), false, nil
		}
	}
	pass, err = keystorePassphrase(isNew)
	return pass, err == nil, err
}

// rememberPassphrase starts a session for a passphrase that was verified
// against the keystore.
func (c *CommandContext) rememberPassphrase(pass string) {
	if c.Sessions == nil {
		return
	}
	buf := []byte(pass)
	defer keystore.Zero(buf)
	ttl := session.DefaultTTL
	if c.Config != nil {
		ttl = c.Config.Session.TTL
	}
	if err := c.Sessions.Start(session.KeystoreSession, buf, ttl); err != nil {
		c.Logger.Error("starting passphrase session: %v", err)
	}
}

func (c *CommandContext) forgetPassphrase() {
	if c.Sessions == nil {
		return
	}
	if err := c.Sessions.End(session.KeystoreSession); err != nil {
		c.Logger.Error("ending passphrase session: %v", err)
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(lockCmd)
}
