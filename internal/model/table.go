package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// Cell is one table cell holding any number of text lines.
type Cell struct {
	lines []string
	open  bool
}

// Append adds text to the current line, opening one if needed.
func (c *Cell) Append(text string) *Cell {
	if c.open && len(c.lines) > 0 {
		c.lines[len(c.lines)-1] += text
	} else {
		c.lines = append(c.lines, text)
		c.open = true
	}
	return c
}

// AppendLine adds text and closes the line, so the next append starts a
// new one.
func (c *Cell) AppendLine(text string) *Cell {
	c.Append(text)
	c.open = false
	return c
}

// Lines returns the cell content.
func (c *Cell) Lines() []string { return c.lines }

func (c *Cell) String() string { return strings.Join(c.lines, "\n") }

// Row is one table row; cells are created on demand in column order.
type Row struct {
	cells []*Cell
}

// Cell appends and returns the next cell of the row.
func (r *Row) Cell() *Cell {
	c := &Cell{}
	r.cells = append(r.cells, c)
	return c
}

// Table is the tabular result representation every query renders to.
// wrap holds the maximum content width per column; zero disables
// wrapping for that column.
type Table struct {
	headers []string
	wrap    []int
	rows    []*Row
}

// NewTable allocates a table with the given headers and optional wrap
// positions.
func NewTable(headers []string, wrap []int) *Table {
	return &Table{headers: headers, wrap: wrap}
}

// AddRow appends an empty row.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

// Headers returns the column headers.
func (t *Table) Headers() []string { return t.headers }

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Render writes the table to w. The interrupt callback is polled per
// emitted row; on interruption nothing is written.
func (t *Table) Render(w io.Writer, interrupt InterruptFunc) error {
	rows := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		if interrupt() {
			return ErrInterrupted
		}
		rows = append(rows, t.renderRow(row))
	}

	lt := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(t.headers...).
		Rows(rows...)

	if _, err := fmt.Fprintln(w, lt.Render()); err != nil {
		return err
	}
	return nil
}

// WriteCSV exports the table; multi-line cells are flattened with
// semicolons.
func (t *Table) WriteCSV(w io.Writer, interrupt InterruptFunc) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.headers); err != nil {
		return err
	}
	for _, row := range t.rows {
		if interrupt() {
			return ErrInterrupted
		}
		record := make([]string, len(t.headers))
		for i := range record {
			if i < len(row.cells) {
				record[i] = strings.Join(row.cells[i].lines, "; ")
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// renderRow flattens a row into one string per column, applying the
// column wrap widths.
func (t *Table) renderRow(row *Row) []string {
	out := make([]string, len(t.headers))
	for i := range out {
		if i >= len(row.cells) {
			continue
		}
		lines := row.cells[i].lines
		if i < len(t.wrap) && t.wrap[i] > 0 {
			lines = wrapLines(lines, t.wrap[i])
		}
		out[i] = strings.Join(lines, "\n")
	}
	return out
}

// wrapLines breaks lines longer than width at word boundaries.
func wrapLines(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		if len(line) <= width {
			out = append(out, line)
			continue
		}
		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+1+len(word) <= width:
				current += " " + word
			default:
				out = append(out, current)
				current = word
			}
		}
		if current != "" {
			out = append(out, current)
		}
	}
	return out
}
