package entities

import "fmt"

// AggFunc represents the aggregation applied to pivot measures
type AggFunc string

const (
	AggSum AggFunc = "sum"
)

// PivotSchema declares how one source extract is pivoted
type PivotSchema struct {
	Index       []string `yaml:"index"`
	ColumnField string   `yaml:"columns,omitempty"`
	DateFormat  string   `yaml:"date_format,omitempty"` // Go layout, e.g. "2006-01"
	Values      []string `yaml:"values"`
	AggFunc     AggFunc  `yaml:"aggfunc"`
}

// Bucketed reports whether the schema spreads measures over a column axis
func (s PivotSchema) Bucketed() bool {
	return s.ColumnField != ""
}

// Validate checks the schema for structural errors
func (s PivotSchema) Validate() error {
	if len(s.Index) == 0 {
		return fmt.Errorf("pivot schema needs at least one index field")
	}
	if len(s.Values) == 0 {
		return fmt.Errorf("pivot schema needs at least one value field")
	}
	if s.AggFunc != "" && s.AggFunc != AggSum {
		return fmt.Errorf("unsupported aggfunc: %s (expected: sum)", s.AggFunc)
	}
	if s.DateFormat != "" && s.ColumnField == "" {
		return fmt.Errorf("date_format requires a columns field")
	}
	return nil
}
