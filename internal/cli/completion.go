package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for polywallet.

Bash:
  $ source <(polywallet completion bash)
  $ polywallet completion bash > /etc/bash_completion.d/polywallet

Zsh:
  $ polywallet completion zsh > "${fpath[1]}/_polywallet"

Fish:
  $ polywallet completion fish > ~/.config/fish/completions/polywallet.fish

PowerShell:
  PS> polywallet completion powershell | Out-String | Invoke-Expression

Chain names complete after connect, balance, send and keys.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
	},
}

func writeCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)
}
