package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMissingColumn is returned when a required column is absent from a table
var ErrMissingColumn = errors.New("missing column")

// Table is a named grid of cells with ordered, named columns
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    [][]Cell{},
	}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// RequireColumns returns the positions of the named columns or ErrMissingColumn
func (t *Table) RequireColumns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos := t.ColumnIndex(name)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, name, t.Name)
		}
		idx[i] = pos
	}
	return idx, nil
}

// AppendRow adds a row, padding or truncating it to the column count
func (t *Table) AppendRow(row []Cell) {
	cells := make([]Cell, len(t.Columns))
	copy(cells, row)
	t.Rows = append(t.Rows, cells)
}

// Cell returns the value at row/column, or an empty cell when the column is absent
func (t *Table) Cell(row int, column string) Cell {
	pos := t.ColumnIndex(column)
	if pos < 0 || row < 0 || row >= len(t.Rows) {
		return Empty()
	}
	return t.Rows[row][pos]
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Columns)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]Cell, len(row))
		copy(cells, row)
		out.Rows[i] = cells
	}
	return out
}

// Select returns a new table with only the named columns, in the given order
func (t *Table) Select(columns []string) (*Table, error) {
	idx, err := t.RequireColumns(columns...)
	if err != nil {
		return nil, err
	}
	out := NewTable(t.Name, columns)
	for _, row := range t.Rows {
		cells := make([]Cell, len(idx))
		for i, pos := range idx {
			cells[i] = row[pos]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// Rename returns a copy with columns renamed according to renames (old -> new)
func (t *Table) Rename(renames map[string]string) *Table {
	out := t.Clone()
	for i, col := range out.Columns {
		if to, ok := renames[col]; ok {
			out.Columns[i] = to
		}
	}
	return out
}

// PromoteHeader returns a copy whose columns come from the first data row
func (t *Table) PromoteHeader() *Table {
	if len(t.Rows) == 0 {
		return t.Clone()
	}
	header := make([]string, len(t.Columns))
	for i := range header {
		var name string
		if i < len(t.Rows[0]) {
			name = strings.TrimSpace(t.Rows[0][i].String())
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = name
	}
	out := NewTable(t.Name, UniqueNames(header))
	for _, row := range t.Rows[1:] {
		out.AppendRow(row)
	}
	return out
}

// IsNumericColumn reports whether the column holds at least one number and
// nothing but numbers and empty cells
func (t *Table) IsNumericColumn(pos int) bool {
	seen := false
	for _, row := range t.Rows {
		switch row[pos].Kind() {
		case NumberCell:
			seen = true
		case TextCell:
			return false
		}
	}
	return seen
}

// HasNumbers reports whether the column holds at least one number
func (t *Table) HasNumbers(pos int) bool {
	for _, row := range t.Rows {
		if row[pos].Kind() == NumberCell {
			return true
		}
	}
	return false
}

// ColumnSum sums the numeric cells of a column
func (t *Table) ColumnSum(name string) decimal.Decimal {
	pos := t.ColumnIndex(name)
	total := decimal.Zero
	if pos < 0 {
		return total
	}
	for _, row := range t.Rows {
		total = total.Add(row[pos].DecimalOrZero())
	}
	return total
}

// UniqueNames disambiguates repeated names in first-seen order: the first
// occurrence keeps its name, later ones get ".1", ".2", ...
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	counters := make(map[string]int)
	out := make([]string, len(names))

	for i, name := range names {
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			out[i] = name
			continue
		}
		for {
			counters[name]++
			candidate := fmt.Sprintf("%s.%d", name, counters[name])
			if _, taken := seen[candidate]; !taken {
				seen[candidate] = struct{}{}
				out[i] = candidate
				break
			}
		}
	}
	return out
}
