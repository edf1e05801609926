package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/polywallet/internal/keystore"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var mnemonicWords int

// MnemonicCheck is the result of "mnemonic check".
type MnemonicCheck struct {
	Valid      bool   `json:"valid"`
	Words      int    `json:"words"`
	Suggestion string `json:"suggestion,omitempty"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicCmd = &cobra.Command{
	Use:   "mnemonic",
	Short: "Generate or check BIP39 phrases",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a new BIP39 mnemonic",
	Long: `Print a new BIP39 mnemonic of 12 or 24 words. The phrase is shown once
and not stored; import it with "polywallet keys import <chain>".`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runMnemonicGenerate(formatter, mnemonicWords)
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicCheckCmd = &cobra.Command{
	Use:   "check [words...]",
	Short: "Validate a BIP39 mnemonic",
	Long: `Validate a mnemonic's word count, word list and checksum. Unknown words
get the closest BIP39 suggestion. Without arguments the phrase is read from
a hidden prompt or stdin.`,
	RunE: func(_ *cobra.Command, args []string) error {
		phrase := strings.Join(args, " ")
		if phrase == "" {
			var err error
			if phrase, err = promptSecretFn(); err != nil {
				return err
			}
		}
		return runMnemonicCheck(formatter, phrase)
	},
}

func runMnemonicGenerate(f *output.Formatter, words int) error {
	phrase, err := keystore.GenerateMnemonic(words)
	if err != nil {
		return walleterr.WithSuggestion(err, "use --words 12 or --words 24")
	}
	return f.Result(map[string]any{"mnemonic": phrase, "words": words}, func(w io.Writer) error {
		outln(w, phrase)
		return nil
	})
}

// runMnemonicCheck reports an invalid phrase as a result, not an error,
// so JSON callers get the suggestion in-band.
func runMnemonicCheck(f *output.Formatter, phrase string) error {
	result := MnemonicCheck{Words: len(strings.Fields(keystore.NormalizeMnemonic(phrase)))}
	if err := keystore.ValidateMnemonic(phrase); err != nil {
		result.Suggestion = walleterr.Suggestion(err)
		if result.Suggestion == "" {
			result.Suggestion = "a mnemonic has 12 or 24 words"
		}
	} else {
		result.Valid = true
	}

	return f.Result(result, func(w io.Writer) error {
		if result.Valid {
			out(w, "%s valid %d-word mnemonic\n", output.Status("ok"), result.Words)
			return nil
		}
		out(w, "%s invalid mnemonic (%d words)\n%s\n", output.Status("error"), result.Words, result.Suggestion)
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	mnemonicGenerateCmd.Flags().IntVarP(&mnemonicWords, "words", "w", 24, "number of words: 12 or 24")
	mnemonicCmd.AddCommand(mnemonicGenerateCmd, mnemonicCheckCmd)
	rootCmd.AddCommand(mnemonicCmd)
}
