package tron

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/chain/chaintest"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const (
	keyOne     = "0000000000000000000000000000000000000000000000000000000000000001"
	addressOne = "TMVQGm1qAQYVdetCeGRRkTWYYrLXuHK2HC"
	addressTwo = "TDvSsdrNM5eeXNL3czpa6AxLDHZA9nwe9K"
)

func connected(t *testing.T, srv *chaintest.Server) *Connector {
	t.Helper()
	c := New(chaintest.Options())
	_, err := c.Connect(context.Background(), chain.ConnectorConfig{RPCURL: srv.URL, PrivateKey: keyOne})
	require.NoError(t, err)
	return c
}

func TestAddressFromPublicKey(t *testing.T) {
	t.Parallel()

	key, err := crypto.HexToECDSA(keyOne)
	require.NoError(t, err)
	assert.Equal(t, addressOne, AddressFromPublicKey(&key.PublicKey))
}

func TestValidateAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"key one", addressOne, true},
		{"key two", addressTwo, true},
		{"bad checksum", addressOne[:len(addressOne)-1] + "J", false},
		{"bitcoin address", "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", false},
		{"hex", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateAddress(tc.address)
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
		})
	}
}

func TestConnectImportsKey(t *testing.T) {
	t.Parallel()

	c := New(chaintest.Options())
	account, err := c.Connect(context.Background(), chain.ConnectorConfig{PrivateKey: "0x" + keyOne})
	require.NoError(t, err)
	assert.Equal(t, addressOne, account.Address)
	assert.False(t, account.Generated)
	assert.Empty(t, account.Secret)
	assert.Equal(t, addressOne, c.Address())
	assert.Equal(t, chain.Tron, c.ID())
}

func TestConnectGeneratesKey(t *testing.T) {
	t.Parallel()

	c := New(chaintest.Options())
	account, err := c.Connect(context.Background(), chain.ConnectorConfig{Network: chain.Testnet})
	require.NoError(t, err)
	assert.True(t, account.Generated)
	require.Len(t, account.Secret, 64)
	require.NoError(t, ValidateAddress(account.Address))

	reconnected, err := New(chaintest.Options()).Connect(context.Background(), chain.ConnectorConfig{PrivateKey: account.Secret})
	require.NoError(t, err)
	assert.Equal(t, account.Address, reconnected.Address)
}

func TestConnectRejectsBadKey(t *testing.T) {
	t.Parallel()

	_, err := New(chaintest.Options()).Connect(context.Background(), chain.ConnectorConfig{PrivateKey: "abcd"})
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

func TestFailedReconnectKeepsEndpoint(t *testing.T) {
	t.Parallel()

	srv := chaintest.NewServer(t)
	c := connected(t, srv)

	_, err := c.Connect(context.Background(), chain.ConnectorConfig{PrivateKey: "abcd", Network: chain.Testnet})
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	assert.Equal(t, addressOne, c.Address())
	client, err := c.endpoint()
	require.NoError(t, err)
	assert.Equal(t, srv.URL, client.BaseURL())
}

func TestBalance(t *testing.T) {
	t.Parallel()

	srv := chaintest.NewServer(t)
	srv.JSON("GET /v1/accounts/"+addressOne, map[string]any{
		"success": true,
		"data":    []map[string]any{{"balance": 12_345_678}},
	})
	srv.JSON("GET /v1/accounts/"+addressTwo, map[string]any{"success": true, "data": []any{}})

	c := New(chaintest.Options())
	require.NoError(t, c.Configure(chain.ConnectorConfig{RPCURL: srv.URL}))

	bal, err := c.Balance(context.Background(), addressOne)
	require.NoError(t, err)
	assert.Equal(t, "12.345678", bal)

	bal, err = c.Balance(context.Background(), addressTwo)
	require.NoError(t, err)
	assert.Equal(t, "0", bal)
}

func TestBalanceSendsAPIKey(t *testing.T) {
	t.Parallel()

	srv := chaintest.NewServer(t)
	srv.Handle("GET /v1/accounts/"+addressOne, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get(apiKeyHeader))
		_, _ = w.Write([]byte(`{"data":[{"balance":1}]}`))
	})

	c := New(chaintest.Options())
	require.NoError(t, c.Configure(chain.ConnectorConfig{RPCURL: srv.URL, APIKey: "k"}))
	bal, err := c.Balance(context.Background(), addressOne)
	require.NoError(t, err)
	assert.Equal(t, "0.000001", bal)
}

func TestBalanceInvalidAddressSkipsNetwork(t *testing.T) {
	t.Parallel()

	srv := chaintest.NewServer(t)
	c := New(chaintest.Options())
	require.NoError(t, c.Configure(chain.ConnectorConfig{RPCURL: srv.URL}))

	_, err := c.Balance(context.Background(), "nope")
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
}

func signedTx(t *testing.T) (string, string) {
	t.Helper()
	rawHex := "0a02c2b82208f1f4d4a35fd5e5b840e8b6b5b0e8315a67080112630a2d747970652e676f6f676c65617069732e636f6d"
	raw, err := hex.DecodeString(rawHex)
	require.NoError(t, err)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), rawHex
}

func TestSend(t *testing.T) {
	t.Parallel()

	txID, rawHex := signedTx(t)
	srv := chaintest.NewServer(t)
	srv.JSON("POST /wallet/createtransaction", map[string]any{
		"txID":         txID,
		"raw_data":     map[string]any{"expiration": 1, "ref_block_bytes": "c2b8"},
		"raw_data_hex": rawHex,
		"visible":      true,
	})
	srv.Handle("POST /wallet/broadcasttransaction", func(w http.ResponseWriter, r *http.Request) {
		var tx transaction
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&tx))
		assert.JSONEq(t, `{"expiration":1,"ref_block_bytes":"c2b8"}`, string(tx.RawData))
		if assert.Len(t, tx.Signature, 1) {
			sig, err := hex.DecodeString(tx.Signature[0])
			assert.NoError(t, err)
			hash, _ := hex.DecodeString(txID)
			pub, err := crypto.SigToPub(hash, sig)
			if assert.NoError(t, err) {
				assert.Equal(t, addressOne, AddressFromPublicKey(pub))
			}
		}
		_, _ = w.Write([]byte(`{"result":true,"txid":"` + txID + `"}`))
	})

	c := connected(t, srv)
	hash, err := c.Send(context.Background(), addressTwo, "1.5")
	require.NoError(t, err)
	assert.Equal(t, txID, hash)

	bodies := srv.Bodies("POST /wallet/createtransaction")
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"owner_address":"`+addressOne+`","to_address":"`+addressTwo+`","amount":1500000,"visible":true}`, string(bodies[0]))
}

func TestSendBroadcastRejected(t *testing.T) {
	t.Parallel()

	txID, rawHex := signedTx(t)
	srv := chaintest.NewServer(t)
	srv.JSON("POST /wallet/createtransaction", map[string]any{"txID": txID, "raw_data": map[string]any{}, "raw_data_hex": rawHex})
	srv.JSON("POST /wallet/broadcasttransaction", map[string]any{
		"result":  false,
		"code":    "CONTRACT_VALIDATE_ERROR",
		"message": hex.EncodeToString([]byte("balance is not sufficient")),
	})

	_, err := connected(t, srv).Send(context.Background(), addressTwo, "1")
	require.ErrorIs(t, err, walleterr.ErrTxRejected)
	assert.Contains(t, err.Error(), "CONTRACT_VALIDATE_ERROR balance is not sufficient")
}

func TestSendCreateError(t *testing.T) {
	t.Parallel()

	srv := chaintest.NewServer(t)
	srv.JSON("POST /wallet/createtransaction", map[string]any{"Error": "account does not exist"})

	_, err := connected(t, srv).Send(context.Background(), addressTwo, "1")
	require.ErrorIs(t, err, walleterr.ErrTxRejected)
	assert.Contains(t, err.Error(), "account does not exist")
}

func TestSendRejectsTamperedTxID(t *testing.T) {
	t.Parallel()

	_, rawHex := signedTx(t)
	srv := chaintest.NewServer(t)
	srv.JSON("POST /wallet/createtransaction", map[string]any{"txID": strings.Repeat("ab", 32), "raw_data_hex": rawHex})

	_, err := connected(t, srv).Send(context.Background(), addressTwo, "1")
	require.ErrorIs(t, err, walleterr.ErrTxRejected)
	assert.Empty(t, srv.Bodies("POST /wallet/broadcasttransaction"))
}

func TestDisconnectLeavesHeldKeyIntact(t *testing.T) {
	t.Parallel()

	c := connected(t, chaintest.NewServer(t))
	c.mu.RLock()
	held := c.key
	c.mu.RUnlock()

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Empty(t, c.Address())
	assert.Equal(t, addressOne, AddressFromPublicKey(&held.PublicKey))
	assert.Equal(t, 1, held.D.Sign(), "an in-flight send keeps a usable key")
}

func TestSendValidation(t *testing.T) {
	t.Parallel()

	srv := chaintest.NewServer(t)
	c := connected(t, srv)

	_, err := c.Send(context.Background(), "bad", "1")
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	_, err = c.Send(context.Background(), addressTwo, "1.0000001")
	require.ErrorIs(t, err, walleterr.ErrInvalidAmount)

	_, err = c.Send(context.Background(), addressTwo, "0")
	require.ErrorIs(t, err, walleterr.ErrInvalidAmount)

	require.NoError(t, c.Disconnect(context.Background()))
	assert.Empty(t, c.Address())
	_, err = c.Send(context.Background(), addressTwo, "1")
	require.ErrorIs(t, err, walleterr.ErrNotConnected)
}
