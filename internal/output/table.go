package output

import (
	"fmt"
	"io"
	"strings"
)

// Table renders aligned columns for the text output mode. Numeric
// columns read best right-aligned, so portfolio tables mark their
// amount and value columns with AlignRight.
type Table struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

// NewTable creates a table with the given header row.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: map[int]bool{}}
}

// AlignRight right-aligns the given zero-based columns.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow appends one row. Short rows render with empty trailing cells.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table: header, dashed underline, rows. Column
// widths fit the widest cell; trailing padding is trimmed so lines end
// at content.
func (t *Table) Render(w io.Writer) error {
	widths := t.widths()
	if len(widths) == 0 {
		return nil
	}

	underline := make([]string, len(t.headers))
	for i, h := range t.headers {
		underline[i] = strings.Repeat("-", len(h))
	}

	lines := [][]string{t.headers, underline}
	lines = append(lines, t.rows...)
	for _, cells := range lines {
		if _, err := fmt.Fprintln(w, t.formatLine(cells, widths)); err != nil {
			return err
		}
	}
	return nil
}

// String renders the table into a string.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for _, row := range t.rows {
		for len(widths) < len(row) {
			widths = append(widths, 0)
		}
	}

	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func (t *Table) formatLine(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if t.right[i] {
			parts[i] = fmt.Sprintf("%*s", width, cell)
		} else {
			parts[i] = fmt.Sprintf("%-*s", width, cell)
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
