package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/config"
	"github.com/mrz1836/polywallet/internal/history"
	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit: unknown, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.2.0 (commit: abc123, built: 2026-01-02)",
		formatVersion(BuildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02"}))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, walleterr.ExitSuccess},
		{errors.New("boom"), walleterr.ExitGeneral},
		{walleterr.ErrKeyNotFound, walleterr.ExitNotFound},
		{walleterr.ErrDecryptionFailed, walleterr.ExitAuth},
		{walleterr.Wrap(walleterr.ErrInvalidAddress, "send"), walleterr.ExitInput},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err))
	}
}

func TestParseChainArg(t *testing.T) {
	t.Parallel()

	id, err := parseChainArg("BTC")
	require.NoError(t, err)
	assert.Equal(t, chain.Bitcoin, id)

	_, err = parseChainArg("trom")
	require.ErrorIs(t, err, walleterr.ErrChainNotSupported)
	assert.Equal(t, "did you mean 'tron'?", walleterr.Suggestion(err))

	_, err = parseChainArg("polkadot")
	require.ErrorIs(t, err, walleterr.ErrChainNotSupported)
	assert.Contains(t, walleterr.Suggestion(err), "supported chains: ")
	assert.Equal(t, walleterr.ExitInput, walleterr.ExitCode(err))
}

func TestCompleteChains(t *testing.T) {
	t.Parallel()

	names, _ := completeChains(nil, nil, "")
	assert.Len(t, names, len(chain.AllChains()))
	assert.Contains(t, names, "aptos")

	names, _ = completeChains(nil, []string{"tron"}, "")
	assert.Empty(t, names)
}

func TestRunChains(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	require.NoError(t, runChains(output.NewFormatter(output.FormatText, buf), chain.Mainnet, false))
	assert.Contains(t, buf.String(), "TRX")
	assert.Contains(t, buf.String(), "aptos")
	assert.NotContains(t, buf.String(), "testnet")

	buf.Reset()
	require.NoError(t, runChains(output.NewFormatter(output.FormatJSON, buf), chain.Mainnet, true))
	var infos []chain.Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &infos))
	assert.Len(t, infos, len(chain.Networks()))
}

func TestRunMnemonicGenerate(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	require.NoError(t, runMnemonicGenerate(output.NewFormatter(output.FormatText, buf), 12))
	assert.Len(t, strings.Fields(buf.String()), 12)

	err := runMnemonicGenerate(output.NewFormatter(output.FormatText, buf), 13)
	require.ErrorIs(t, err, walleterr.ErrInvalidInput)
	assert.Contains(t, walleterr.Suggestion(err), "--words 12")
}

func TestRunMnemonicCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		phrase     string
		valid      bool
		words      int
		suggestion string
	}{
		{name: "valid", phrase: testMnemonic, valid: true, words: 12},
		{name: "typo", phrase: strings.Replace(testMnemonic, "about", "abuot", 1), words: 12, suggestion: "word 12"},
		{name: "short", phrase: "abandon", words: 1, suggestion: "12 or 24 words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			require.NoError(t, runMnemonicCheck(output.NewFormatter(output.FormatJSON, buf), tt.phrase))

			var got MnemonicCheck
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.words, got.Words)
			assert.Contains(t, got.Suggestion, tt.suggestion)
		})
	}
}

func TestRunHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	ctx := context.Background()
	require.NoError(t, runHistory(ctx, env.cc, history.Filter{}))
	assert.Contains(t, env.buf.String(), "No transactions recorded.")

	store, ok := env.cc.History.(*history.Store)
	require.True(t, ok)
	sent := history.NewEntry("tron", "mainnet", testAddress, "TDest", "1.5")
	require.NoError(t, store.Record(ctx, sent))
	require.NoError(t, store.SetTxHash(ctx, sent.ID, "aa11"))
	failed := history.NewEntry("sui", "testnet", "0x1", "0x2", "3")
	require.NoError(t, store.Record(ctx, failed))
	require.NoError(t, store.MarkFailed(ctx, failed.ID, errors.New("gas budget")))

	env.buf.Reset()
	require.NoError(t, runHistory(ctx, env.cc, history.Filter{}))
	assert.Contains(t, env.buf.String(), "aa11")
	assert.Contains(t, env.buf.String(), "failed: gas budget")

	env.buf.Reset()
	require.NoError(t, runHistory(ctx, env.cc, history.Filter{Chain: "tron"}))
	assert.Contains(t, env.buf.String(), "TDest")
	assert.NotContains(t, env.buf.String(), "gas budget")
}

func TestRunHistoryDisabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	env.cc.History = nil
	err := runHistory(context.Background(), env.cc, history.Filter{})
	require.ErrorIs(t, err, walleterr.ErrNotFound)
	assert.Contains(t, walleterr.Suggestion(err), "history.enabled")
}

func TestRunConfigShowRedacts(t *testing.T) {
	t.Parallel()

	c := config.Defaults()
	c.SetChain(chain.Tron, chain.ConnectorConfig{PrivateKey: "supersecretkey", APIKey: "trongrid-token", RPCURL: "https://api.trongrid.io"})
	c.SetChain(chain.Sui, chain.ConnectorConfig{Mnemonic: "twelve secret words"})
	c.History.Driver = "postgres"
	c.History.DSN = "postgres://u:pw@db/polywallet"

	buf := &bytes.Buffer{}
	require.NoError(t, runConfigShow(output.NewFormatter(output.FormatText, buf), c))

	text := buf.String()
	assert.Contains(t, text, "[redacted]")
	assert.Contains(t, text, "https://api.trongrid.io")
	for _, secret := range []string{"supersecretkey", "trongrid-token", "twelve secret words", "u:pw"} {
		assert.NotContains(t, text, secret)
	}
	assert.Equal(t, "supersecretkey", c.Chains["tron"].PrivateKey, "the live config is untouched")
}

func TestRunConfigInit(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	buf := &bytes.Buffer{}
	f := output.NewFormatter(output.FormatText, buf)

	require.NoError(t, runConfigInit(f, home, false))
	assert.Contains(t, buf.String(), "wrote "+filepath.Join(home, "config.yaml"))

	loaded, err := config.Load(config.Path(home))
	require.NoError(t, err)
	assert.Equal(t, chain.Mainnet, loaded.Network)

	err = runConfigInit(f, home, false)
	require.ErrorIs(t, err, walleterr.ErrInvalidInput)

	require.NoError(t, runConfigInit(f, home, true))
}

func TestWriteCompletion(t *testing.T) {
	t.Parallel()

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		buf := &bytes.Buffer{}
		require.NoError(t, writeCompletion(rootCmd, shell, buf), shell)
		assert.Contains(t, buf.String(), "polywallet", shell)
	}
}
