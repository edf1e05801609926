package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/chain/chaintest"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type fakeBackend struct {
	mu       sync.Mutex
	balance  *big.Int
	nonce    uint64
	gasPrice *big.Int
	chainID  *big.Int
	sendErr  error
	sent     []*types.Transaction
	closed   bool
	url      string
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if f.balance == nil {
		return nil, errors.New("rpc down")
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func newTestConnector(id chain.ID, backend *fakeBackend) *Connector {
	return NewWithDialer(id, chaintest.Options(), func(_ context.Context, url string) (Backend, error) {
		backend.url = url
		return backend, nil
	})
}

func TestConnectMnemonic(t *testing.T) {
	t.Parallel()

	c := newTestConnector(chain.Ethereum, &fakeBackend{})
	account, err := c.Connect(context.Background(), chain.ConnectorConfig{Mnemonic: testMnemonic})
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", account.Address)
	assert.False(t, account.Generated)
	assert.Empty(t, account.Secret)
	assert.Equal(t, account.Address, c.Address())
}

func TestConnectGenerated(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	c := newTestConnector(chain.BSC, backend)
	account, err := c.Connect(context.Background(), chain.ConnectorConfig{Network: chain.Testnet})
	require.NoError(t, err)
	assert.True(t, account.Generated)
	assert.Len(t, account.Secret, 64)
	assert.Equal(t, "https://data-seed-prebsc-1-s1.binance.org:8545", backend.url)
	require.NoError(t, ValidateAddress(account.Address))

	again := newTestConnector(chain.BSC, &fakeBackend{})
	imported, err := again.Connect(context.Background(), chain.ConnectorConfig{PrivateKey: account.Secret})
	require.NoError(t, err)
	assert.Equal(t, account.Address, imported.Address)
}

func TestConnectErrors(t *testing.T) {
	t.Parallel()

	c := newTestConnector(chain.Ethereum, &fakeBackend{})
	_, err := c.Connect(context.Background(), chain.ConnectorConfig{PrivateKey: "abcd"})
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	failing := NewWithDialer(chain.Ethereum, chaintest.Options(), func(context.Context, string) (Backend, error) {
		return nil, errors.New("dial refused")
	})
	_, err = failing.Connect(context.Background(), chain.ConnectorConfig{})
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
}

func TestFailedReconnectKeepsBackend(t *testing.T) {
	t.Parallel()

	first := &fakeBackend{}
	dials := 0
	c := NewWithDialer(chain.Ethereum, chaintest.Options(), func(_ context.Context, url string) (Backend, error) {
		dials++
		first.url = url
		return first, nil
	})
	account, err := c.Connect(context.Background(), chain.ConnectorConfig{Mnemonic: testMnemonic})
	require.NoError(t, err)

	_, err = c.Connect(context.Background(), chain.ConnectorConfig{PrivateKey: "abcd", Network: chain.Testnet})
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	assert.Equal(t, account.Address, c.Address())
	assert.Equal(t, 1, dials)
	assert.False(t, first.closed)
	backend, err := c.client(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, backend)
}

func TestReconnectClosesPreviousBackend(t *testing.T) {
	t.Parallel()

	first, second := &fakeBackend{}, &fakeBackend{}
	backends := []*fakeBackend{first, second}
	c := NewWithDialer(chain.Ethereum, chaintest.Options(), func(context.Context, string) (Backend, error) {
		next := backends[0]
		backends = backends[1:]
		return next, nil
	})
	_, err := c.Connect(context.Background(), chain.ConnectorConfig{})
	require.NoError(t, err)
	_, err = c.Connect(context.Background(), chain.ConnectorConfig{Network: chain.Testnet})
	require.NoError(t, err)

	assert.True(t, first.closed)
	assert.False(t, second.closed)
}

func TestBalance(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{balance: big.NewInt(1_500_000_000_000_000_000)}
	c := newTestConnector(chain.Ethereum, backend)

	bal, err := c.Balance(context.Background(), "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal)
	assert.Equal(t, "https://eth.llamarpc.com", backend.url, "balance configures mainnet lazily")

	_, err = c.Balance(context.Background(), "0x1234")
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	backend.balance = nil
	_, err = c.Balance(context.Background(), "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
}

func TestSend(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		balance:  big.NewInt(1_000_000_000_000_000_000),
		nonce:    7,
		gasPrice: big.NewInt(1_000_000_000),
		chainID:  big.NewInt(56),
	}
	c := newTestConnector(chain.BSC, backend)
	account, err := c.Connect(context.Background(), chain.ConnectorConfig{Mnemonic: testMnemonic})
	require.NoError(t, err)

	to := "0x000000000000000000000000000000000000dEaD"
	hash, err := c.Send(context.Background(), to, "0.25")
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, tx.Hash().Hex(), hash)
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(TransferGasLimit), tx.Gas())
	assert.Equal(t, "250000000000000000", tx.Value().String())
	assert.True(t, strings.EqualFold(to, tx.To().Hex()))

	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(56)), tx)
	require.NoError(t, err)
	assert.Equal(t, account.Address, sender.Hex())
}

func TestSendErrors(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		balance:  big.NewInt(1000),
		gasPrice: big.NewInt(1),
		chainID:  big.NewInt(1),
	}
	c := newTestConnector(chain.Ethereum, backend)
	to := "0x000000000000000000000000000000000000dEaD"

	_, err := c.Send(context.Background(), to, "1")
	require.ErrorIs(t, err, walleterr.ErrNotConnected)

	_, err = c.Connect(context.Background(), chain.ConnectorConfig{Mnemonic: testMnemonic})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "not-an-address", "1")
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	_, err = c.Send(context.Background(), to, "0")
	require.ErrorIs(t, err, walleterr.ErrInvalidAmount)

	_, err = c.Send(context.Background(), to, "1")
	require.ErrorIs(t, err, walleterr.ErrInsufficientFunds)

	backend.balance = big.NewInt(1_000_000_000_000_000_000)
	backend.sendErr = errors.New("nonce too low")
	_, err = c.Send(context.Background(), to, "0.1")
	require.ErrorIs(t, err, walleterr.ErrTxRejected)
}

func TestDisconnectLeavesHeldKeyIntact(t *testing.T) {
	t.Parallel()

	c := newTestConnector(chain.Ethereum, &fakeBackend{})
	_, err := c.Connect(context.Background(), chain.ConnectorConfig{Mnemonic: testMnemonic})
	require.NoError(t, err)
	c.mu.RLock()
	held := c.key
	c.mu.RUnlock()

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Equal(t, 1, held.D.Sign(), "an in-flight send keeps a usable key")
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	c := newTestConnector(chain.Ethereum, backend)
	_, err := c.Connect(context.Background(), chain.ConnectorConfig{})
	require.NoError(t, err)

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Empty(t, c.Address())
	assert.True(t, backend.closed)
	require.NoError(t, c.Disconnect(context.Background()))
}
