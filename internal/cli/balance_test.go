package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/cache"
	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/output"
	"github.com/mrz1836/polywallet/internal/service/balance"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

func TestRunBalanceAddress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	require.NoError(t, runBalance(context.Background(), env.cc, chain.Tron, testAddress, false))
	assert.Equal(t, "12.5 TRX\n", env.buf.String())

	entry, ok, _ := env.cc.Cache.Get(chain.Tron, chain.Mainnet, testAddress)
	require.True(t, ok)
	assert.Equal(t, "12.5", entry.Balance)
	assert.False(t, env.cc.connected(chain.Tron), "an explicit address does not connect")
}

func TestRunBalanceServesCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatJSON)
	env.cc.Cache.Set(cache.BalanceCacheEntry{Chain: chain.Tron, Network: chain.Mainnet, Address: testAddress, Balance: "99"})
	require.NoError(t, runBalance(context.Background(), env.cc, chain.Tron, testAddress, false))

	var row balance.AddressBalance
	require.NoError(t, json.Unmarshal(env.buf.Bytes(), &row))
	assert.Equal(t, "99", row.Balance)
	assert.True(t, row.Cached)
}

func TestRunBalanceRefreshBypassesCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	env.cc.Cache.Set(cache.BalanceCacheEntry{Chain: chain.Tron, Network: chain.Mainnet, Address: testAddress, Balance: "99"})
	require.NoError(t, runBalance(context.Background(), env.cc, chain.Tron, testAddress, true))
	assert.Equal(t, "12.5 TRX\n", env.buf.String())
}

func TestRunBalanceStaleFallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	env.cc.Cache.Set(cache.BalanceCacheEntry{Chain: chain.Tron, Network: chain.Mainnet, Address: testAddress, Balance: "7"})
	env.conn.balanceErr = walleterr.ErrNetworkError

	require.NoError(t, runBalance(context.Background(), env.cc, chain.Tron, testAddress, true))
	assert.Equal(t, "7 TRX\n", env.buf.String())
}

func TestRunBalanceNetworkErrorWithoutCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	env.conn.balanceErr = walleterr.ErrNetworkError

	err := runBalance(context.Background(), env.cc, chain.Tron, testAddress, true)
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
	assert.Empty(t, env.buf.String())
}

func TestRunBalanceConnectedAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	env.cc.Config.Output.Verbose = true
	require.NoError(t, runBalance(context.Background(), env.cc, chain.Tron, "", false))

	assert.Contains(t, env.buf.String(), "12.5 TRX")
	assert.Contains(t, env.buf.String(), "address: "+testAddress)
	assert.True(t, env.cc.connected(chain.Tron))
}

func TestRunBalanceBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	progress := &bytes.Buffer{}
	err := runBalanceBatch(context.Background(), env.cc, chain.Tron, []string{testAddress, "TEmpty"}, false, progress)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(env.buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ADDRESS")
	assert.Contains(t, lines[2], testAddress)
	assert.Contains(t, lines[2], "12.5 TRX")
	assert.Contains(t, lines[3], "TEmpty")
	assert.Contains(t, lines[3], "0 TRX")
	assert.Contains(t, progress.String(), "2/2 addresses")
}

func TestRunBalanceBatchErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatJSON)
	env.conn.balanceErr = walleterr.ErrTxRejected
	require.NoError(t, runBalanceBatch(context.Background(), env.cc, chain.Tron, []string{testAddress}, false, nil))

	var rows []balance.AddressBalance
	require.NoError(t, json.Unmarshal(env.buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "0", rows[0].Balance)
	assert.NotEmpty(t, rows[0].Error)
}

func TestRunBalanceBatchEmpty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, output.FormatText)
	err := runBalanceBatch(context.Background(), env.cc, chain.Tron, nil, false, nil)
	require.ErrorIs(t, err, walleterr.ErrInvalidInput)
	require.ErrorIs(t, err, ErrNoAddresses)
}

func TestReadAddressFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "addrs.txt")
	require.NoError(t, os.WriteFile(path, []byte("# watch list\nTAaa\n\n  \"TBbb\",\n"), 0o600))

	tests := []struct {
		name    string
		path    string
		stdin   string
		want    []string
		wantErr error
	}{
		{name: "file", path: path, want: []string{"TAaa", "TBbb"}},
		{name: "stdin", path: "-", stdin: "TCcc\nTDdd\n", want: []string{"TCcc", "TDdd"}},
		{name: "missing flag", path: "", wantErr: walleterr.ErrInvalidInput},
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope"), wantErr: walleterr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readAddressFile(tt.path, strings.NewReader(tt.stdin))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowSource(t *testing.T) {
	t.Parallel()

	assert.Contains(t, rowSource(balance.AddressBalance{}), "ok")
	assert.Contains(t, rowSource(balance.AddressBalance{Cached: true}), "cached")
	assert.Contains(t, rowSource(balance.AddressBalance{Cached: true, Stale: true}), "stale")
}
