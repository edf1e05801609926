package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table renders tabular data for text output.
type Table struct {
	headers   []string
	rows      [][]string
	noHeader  bool
	separator string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers:   headers,
		rows:      [][]string{},
		separator: "  ",
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// SetNoHeader suppresses the header row.
func (t *Table) SetNoHeader(noHeader bool) {
	t.noHeader = noHeader
}

// SetSeparator sets the column separator.
func (t *Table) SetSeparator(sep string) {
	t.separator = sep
}

// Render renders the table to the writer. Widths count runes, so
// multi-byte cells stay aligned.
func (t *Table) Render(w io.Writer) error {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return nil
	}

	widths := t.calculateWidths()

	if !t.noHeader && len(t.headers) > 0 {
		if err := t.renderRow(w, t.headers, widths, true); err != nil {
			return err
		}
		if err := t.renderSeparatorLine(w, widths); err != nil {
			return err
		}
	}

	for _, row := range t.rows {
		if err := t.renderRow(w, row, widths, false); err != nil {
			return err
		}
	}
	return nil
}

// String returns the table as a string.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table) calculateWidths() []int {
	numCols := len(t.headers)
	for _, row := range t.rows {
		numCols = max(numCols, len(row))
	}

	widths := make([]int, numCols)
	measure := func(cells []string) {
		for i, cell := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *Table) renderRow(w io.Writer, cells []string, widths []int, header bool) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(cell))
		if header {
			cell = headerColor.Sprint(cell)
		}
		parts[i] = cell + pad
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, t.separator), " "))
	return err
}

func (t *Table) renderSeparatorLine(w io.Writer, widths []int) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, t.separator))
	return err
}
