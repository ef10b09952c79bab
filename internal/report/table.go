// Package report serializes derived tables and renders charts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is an ordered-row, named-column tabular value.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// RightAlign reports which columns should be right-aligned when rendered:
// every column whose cells are all numeric or empty.
func (t Table) RightAlign() map[int]bool {
	out := make(map[int]bool, len(t.Columns))
	for i := range t.Columns {
		numeric := len(t.Rows) > 0
		for _, row := range t.Rows {
			if i >= len(row) {
				continue
			}
			if row[i] == "" {
				continue
			}
			if !isNumeric(row[i]) {
				numeric = false
				break
			}
		}
		out[i] = numeric
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '+':
		default:
			return false
		}
	}
	return true
}

// Render writes the table as aligned columns.
func Render(w io.Writer, t Table) error {
	if t.Name != "" {
		if _, err := fmt.Fprintln(w, t.Name); err != nil {
			return err
		}
	}
	for _, line := range formatTable(t.Columns, t.Rows, t.RightAlign()) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := runewidth.StringWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := strings.Repeat(" ", width-valueWidth)
	if rightAlign {
		return padding + value
	}
	return value + padding
}
