package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

// ideographicSpace is the fullwidth space used by CJK spreadsheets
const ideographicSpace = "\u3000"

// Normalize canonicalizes an identity field for comparison. Nil maps to the
// empty string; the result never carries surrounding whitespace or quotes.
func Normalize(value interface{}) string {
	var s string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		s = v
	case entities.Cell:
		s = v.String()
	case fmt.Stringer:
		s = v.String()
	default:
		s = cast.ToString(v)
	}

	s = strings.ReplaceAll(s, ideographicSpace, " ")
	return strings.TrimFunc(s, isTrimmable)
}

// NormalizeKey builds a composite key from raw wafer, spec and part values
func NormalizeKey(wafer, spec, part interface{}) entities.CompositeKey {
	return entities.CompositeKey{
		Wafer: Normalize(wafer),
		Spec:  Normalize(spec),
		Part:  Normalize(part),
	}
}

func isTrimmable(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '\'', '"', '‘', '’', '“', '”', '＇', '＂':
		return true
	}
	return false
}

// KeyResolver extracts composite keys from rows of one table. It resolves the
// source-specific column names once so callers never carry them further.
type KeyResolver struct {
	wafer, spec, part int
}

// NewKeyResolver binds a field map to the columns of a table
func NewKeyResolver(table *entities.Table, fields entities.FieldMap) (*KeyResolver, error) {
	idx, err := table.RequireColumns(fields.Wafer, fields.Spec, fields.Part)
	if err != nil {
		return nil, err
	}
	return &KeyResolver{wafer: idx[0], spec: idx[1], part: idx[2]}, nil
}

// Key returns the normalized key of a row
func (r *KeyResolver) Key(row []entities.Cell) entities.CompositeKey {
	return NormalizeKey(row[r.wafer], row[r.spec], row[r.part])
}

// Keys returns the distinct keys of the table in first-seen order
func (r *KeyResolver) Keys(table *entities.Table) *entities.KeySet {
	set := entities.NewKeySet()
	for _, row := range table.Rows {
		set.Add(r.Key(row))
	}
	return set
}

// Positions returns the wafer, spec and part column positions
func (r *KeyResolver) Positions() []int {
	return []int{r.wafer, r.spec, r.part}
}
