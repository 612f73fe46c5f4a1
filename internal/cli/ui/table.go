package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

func styled(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// Table represents a simple table for displaying tabular data
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		noColor: noColor,
	}
}

// AddRow adds a row to the table. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := styled(t.noColor, color.Bold, color.FgCyan)
	gray := styled(t.noColor, color.FgHiBlack)

	t.line(widths, func(i int, w int) { bold.Fprint(t.writer, padRight(t.headers[i], w)) })
	t.line(widths, func(_ int, w int) { gray.Fprint(t.writer, strings.Repeat("─", w)) })
	for _, row := range t.rows {
		t.line(widths, func(i int, w int) {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprint(t.writer, padRight(cell, w))
		})
	}
}

func (t *Table) line(widths []int, cell func(i, width int)) {
	for i, w := range widths {
		if i > 0 {
			fmt.Fprint(t.writer, "  ")
		}
		// the last column is not padded
		if i == len(widths)-1 {
			w = 0
		}
		cell(i, w)
	}
	fmt.Fprintln(t.writer)
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// KeyValueTable renders a simple key-value table (2 columns)
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		width = max(width, len(k))
	}

	cyan := styled(t.noColor, color.FgCyan)
	for i, k := range t.keys {
		cyan.Fprint(t.writer, padRight(k+":", width+1))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}

// List renders items as a bulleted list.
func List(w io.Writer, items []string, noColor bool) {
	cyan := styled(noColor, color.FgCyan)
	for _, item := range items {
		cyan.Fprint(w, "• ")
		fmt.Fprintln(w, item)
	}
}

// Divider renders a horizontal divider line
func Divider(w io.Writer, width int, noColor bool) {
	if width == 0 {
		width = 80
	}
	styled(noColor, color.FgHiBlack).Fprintln(w, strings.Repeat("─", width))
}

// Header renders a styled header
func Header(w io.Writer, title string, noColor bool) {
	styled(noColor, color.Bold, color.FgCyan).Fprintln(w, title)
	Divider(w, len(title), noColor)
}
