package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/output"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

type failingWriter struct{}

func (failingWriter) Write(_ []byte) (n int, err error) {
	//nolint:err113 // Test error, not wrapped
	return 0, errors.New("write failed")
}

func TestFormatError_NilError(t *testing.T) {
	t.Parallel()

	for _, format := range []output.Format{output.FormatJSON, output.FormatText} {
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, nil, format))
		assert.Empty(t, buf.String())
	}
}

func TestFormatError_GenericError(t *testing.T) {
	t.Parallel()

	//nolint:err113 // Test error, intentionally not wrapped
	plain := errors.New("something went wrong")

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, plain, output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "GENERAL_ERROR", result.Error.Code)
	assert.Equal(t, "something went wrong", result.Error.Message)
	assert.Equal(t, walleterr.ExitGeneral, result.Error.ExitCode)
	assert.Empty(t, result.Error.Details)

	buf.Reset()
	require.NoError(t, output.FormatError(&buf, plain, output.FormatText))
	assert.Contains(t, buf.String(), "Error: something went wrong")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestFormatError_WalletError_JSON(t *testing.T) {
	t.Parallel()

	err := walleterr.WithSuggestion(
		walleterr.WithDetails(walleterr.ErrChainNotSupported, map[string]string{"chain": "polkadot"}),
		"supported chains: aptos, bitcoin",
	)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"error\""), "indented output")

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, walleterr.ErrChainNotSupported.Code, result.Error.Code)
	assert.Equal(t, walleterr.ErrChainNotSupported.Message, result.Error.Message)
	assert.Equal(t, map[string]string{"chain": "polkadot"}, result.Error.Details)
	assert.Equal(t, "supported chains: aptos, bitcoin", result.Error.Suggestion)
	assert.Equal(t, walleterr.ErrChainNotSupported.ExitCode, result.Error.ExitCode)
}

func TestFormatError_WalletError_Text(t *testing.T) {
	t.Parallel()

	err := walleterr.WithSuggestion(
		walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
			"required":  "1.5",
			"available": "0.2",
			"chain":     "sui",
		}),
		"fund the address first",
	)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatText))
	out := buf.String()

	assert.Contains(t, out, "Error: "+walleterr.ErrInsufficientFunds.Message)
	assert.Contains(t, out, "Suggestion: fund the address first")

	avail := strings.Index(out, "available: 0.2")
	chainIdx := strings.Index(out, "chain: sui")
	required := strings.Index(out, "required: 1.5")
	require.NotEqual(t, -1, avail)
	assert.Less(t, avail, chainIdx, "details are sorted")
	assert.Less(t, chainIdx, required, "details are sorted")
}

func TestFormatError_CauseInMessage(t *testing.T) {
	t.Parallel()

	//nolint:err113 // Test error
	err := walleterr.WithCause(walleterr.ErrNetworkError, errors.New("dial tcp: timeout"))

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Contains(t, result.Error.Message, "dial tcp: timeout")
}

func TestFormatError_WriterError(t *testing.T) {
	t.Parallel()

	err := output.FormatError(failingWriter{}, walleterr.ErrNotConnected, output.FormatText)
	require.Error(t, err)
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&buf, "connected", output.FormatJSON))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "connected", result["message"])

	buf.Reset()
	require.NoError(t, output.FormatSuccess(&buf, "connected", output.FormatText))
	assert.Equal(t, "connected\n", buf.String())

	require.Error(t, output.FormatSuccess(failingWriter{}, "x", output.FormatText))
}
