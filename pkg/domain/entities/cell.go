package entities

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind classifies the value held by a Cell
type CellKind int

const (
	EmptyCell CellKind = iota
	TextCell
	NumberCell
)

// String method for CellKind enum
func (k CellKind) String() string {
	switch k {
	case EmptyCell:
		return "Empty"
	case TextCell:
		return "Text"
	case NumberCell:
		return "Number"
	default:
		return "Unknown"
	}
}

// Cell is one value of a Table. A number parsed from extract text keeps its
// source text so identifiers such as "00123" survive a round trip.
type Cell struct {
	kind CellKind
	text string
	num  decimal.Decimal
}

// Empty returns an empty cell
func Empty() Cell {
	return Cell{}
}

// Text creates a text cell; the empty string yields an empty cell
func Text(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{kind: TextCell, text: s}
}

// Number creates a numeric cell
func Number(d decimal.Decimal) Cell {
	return Cell{kind: NumberCell, num: d}
}

// Int creates a numeric cell from an integer
func Int(n int64) Cell {
	return Number(decimal.NewFromInt(n))
}

// ParseCell interprets raw extract text as a number when possible
func ParseCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{}
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		return Cell{kind: NumberCell, text: raw, num: d}
	}
	return Cell{kind: TextCell, text: raw}
}

// Kind returns the cell kind
func (c Cell) Kind() CellKind {
	return c.kind
}

// IsEmpty reports whether the cell holds no value
func (c Cell) IsEmpty() bool {
	return c.kind == EmptyCell
}

// IsNumber reports whether the cell holds a number
func (c Cell) IsNumber() bool {
	return c.kind == NumberCell
}

// String returns the textual form of the cell
func (c Cell) String() string {
	switch c.kind {
	case TextCell:
		return c.text
	case NumberCell:
		if c.text != "" {
			return c.text
		}
		return c.num.String()
	default:
		return ""
	}
}

// Decimal returns the numeric value and whether the cell is numeric
func (c Cell) Decimal() (decimal.Decimal, bool) {
	if c.kind != NumberCell {
		return decimal.Zero, false
	}
	return c.num, true
}

// DecimalOrZero returns the numeric value, treating non-numeric cells as zero
func (c Cell) DecimalOrZero() decimal.Decimal {
	d, _ := c.Decimal()
	return d
}

// Value returns the cell as a spreadsheet-friendly Go value: nil, string or float64.
// Numbers whose source text carries leading zeros stay text.
func (c Cell) Value() interface{} {
	switch c.kind {
	case TextCell:
		return c.text
	case NumberCell:
		if hasLeadingZero(strings.TrimSpace(c.text)) {
			return c.text
		}
		return c.num.InexactFloat64()
	default:
		return nil
	}
}

// MarshalJSON encodes empty cells as null and numbers as JSON numbers
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case TextCell:
		return json.Marshal(c.text)
	case NumberCell:
		return []byte(c.num.String()), nil
	default:
		return []byte("null"), nil
	}
}

func hasLeadingZero(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}
