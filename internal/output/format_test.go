package output_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/polywallet/internal/output"
)

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)
	require.NoError(t, f.Print(map[string]string{"chain": "tron"}))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "tron", result["chain"])
	assert.True(t, f.IsJSON())
	assert.Equal(t, output.FormatJSON, f.Format())
	assert.Same(t, &buf, f.Writer())
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)
	require.NoError(t, f.Print("hello"))
	require.NoError(t, f.Printf("%s=%d\n", "n", 3))
	require.NoError(t, f.Println("bye"))
	assert.Equal(t, "hello\nn=3\nbye\n", buf.String())
	assert.False(t, f.IsJSON())
}

func TestFormatter_AutoResolvesForBuffers(t *testing.T) {
	t.Parallel()

	f := output.NewFormatter(output.FormatAuto, &bytes.Buffer{})
	assert.Equal(t, output.FormatJSON, f.Format())
}

func TestFormatter_Result(t *testing.T) {
	t.Parallel()

	payload := map[string]string{"balance": "1.5"}
	text := func(w io.Writer) error {
		_, err := io.WriteString(w, "balance: 1.5\n")
		return err
	}

	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatText, &buf).Result(payload, text))
	assert.Equal(t, "balance: 1.5\n", buf.String())

	buf.Reset()
	require.NoError(t, output.NewFormatter(output.FormatJSON, &buf).Result(payload, text))
	assert.Contains(t, buf.String(), `"balance": "1.5"`)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected output.Format
	}{
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{" text ", output.FormatText},
		{"auto", output.FormatAuto},
		{"", output.FormatAuto},
		{"yaml", output.FormatAuto},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, output.ParseFormat(tc.input))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, output.FormatText, output.DetectFormat(&bytes.Buffer{}, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&bytes.Buffer{}, output.FormatAuto))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&bytes.Buffer{}, ""))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, output.FormatJSON, output.DetectFormat(f, output.FormatAuto), "regular files are not terminals")
}

func TestTable_Basic(t *testing.T) {
	t.Parallel()

	table := output.NewTable("CHAIN", "BALANCE")
	table.AddRow("tron", "12.5")
	table.AddRow("bitcoin", "0.001")
	assert.Equal(t, 2, table.Len())

	lines := strings.Split(strings.TrimSuffix(table.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "CHAIN    BALANCE", lines[0])
	assert.Equal(t, "-------  -------", lines[1])
	assert.Equal(t, "tron     12.5", lines[2])
	assert.Equal(t, "bitcoin  0.001", lines[3])
}

func TestTable_Options(t *testing.T) {
	t.Parallel()

	table := output.NewTable("A", "B")
	table.SetNoHeader(true)
	table.SetSeparator(" | ")
	table.AddRow("x", "y")
	table.AddRow("long")
	assert.Equal(t, "x    | y\nlong |\n", table.String())
}

func TestTable_Unicode(t *testing.T) {
	t.Parallel()

	table := output.NewTable("N", "V")
	table.AddRow("été", "1")
	table.AddRow("abc", "2")
	lines := strings.Split(table.String(), "\n")
	assert.Equal(t, "été  1", lines[2])
	assert.Equal(t, "abc  2", lines[3])
}

func TestTable_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, output.NewTable().String())
}

func TestStatus(t *testing.T) {
	t.Parallel()
	assert.Contains(t, output.Status("connected"), "connected")
	assert.Equal(t, "unknown", output.Status("unknown"))
}
