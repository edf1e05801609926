package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/keystore"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// minPassphraseLen bounds new keystore passphrases.
const minPassphraseLen = 8

// Prompt seams, replaced in tests.
//
//nolint:gochecknoglobals // test seams
var (
	promptPasswordFn = promptPassword
	promptConfirmFn  = promptConfirm
	promptSecretFn   = promptSecret
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// promptPassword prompts for hidden input on the terminal.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// keystorePassphrase returns POLYWALLET_PASSPHRASE or prompts for one.
// New passphrases are asked twice and must be at least eight characters.
func keystorePassphrase(isNew bool) (string, error) {
	if p := config.Passphrase(); p != "" {
		return p, nil
	}

	pw, err := promptPasswordFn("Keystore passphrase: ")
	if err != nil {
		return "", err
	}
	defer keystore.Zero(pw)

	if !isNew {
		return string(pw), nil
	}

	if len(pw) < minPassphraseLen {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput, "passphrase must be at least 8 characters")
	}

	confirm, err := promptPasswordFn("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	defer keystore.Zero(confirm)

	if string(pw) != string(confirm) {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput, "passphrases do not match")
	}
	return string(pw), nil
}

// promptConfirm asks a yes/no question on stderr. Anything but y/yes is no.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// promptSecret reads key material: hidden on a terminal, one line otherwise.
func promptSecret() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // G115: Fd() returns uintptr
		secret, err := promptPasswordFn("Mnemonic, WIF or hex private key: ")
		if err != nil {
			return "", err
		}
		defer keystore.Zero(secret)
		return strings.TrimSpace(string(secret)), nil
	}
	return readSecretLine(os.Stdin)
}

func readSecretLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput, "no key material provided on stdin")
	}
	return strings.TrimSpace(line), nil
}
