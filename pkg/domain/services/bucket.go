package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

// UnknownBucket is the label for values that cannot be resolved to a date
const UnknownBucket = "未知日期"

// DefaultMonthLayout formats bucket labels as year-month
const DefaultMonthLayout = "2006-01"

// Spreadsheet serial dates count days from 1899-12-30.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Largest serial a spreadsheet accepts (9999-12-31); bigger numbers are
// treated as compact text dates such as 20250115.
const maxSerial = 2958465

var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"20060102",
	"2006年1月2日",
	"01/02/2006",
	"2006-1",
	"2006/1",
	"2006年1月",
}

// BucketResolver turns date-like cells into bucket labels
type BucketResolver struct {
	layout  string
	unknown string
}

// NewBucketResolver creates a resolver formatting dates with layout
func NewBucketResolver(layout, unknownLabel string) *BucketResolver {
	if layout == "" {
		layout = DefaultMonthLayout
	}
	if unknownLabel == "" {
		unknownLabel = UnknownBucket
	}
	return &BucketResolver{layout: layout, unknown: unknownLabel}
}

// Label returns the bucket label of a cell; it never fails
func (b *BucketResolver) Label(c entities.Cell) string {
	t, ok := ResolveDate(c)
	if !ok {
		return b.unknown
	}
	return t.Format(b.layout)
}

// Unknown returns the sentinel label
func (b *BucketResolver) Unknown() string {
	return b.unknown
}

// ResolveDate interprets a cell as a calendar date. Numbers are spreadsheet
// serial day counts; text is parsed against the known layouts.
func ResolveDate(c entities.Cell) (time.Time, bool) {
	if d, ok := c.Decimal(); ok && d.LessThanOrEqual(decimal.NewFromInt(maxSerial)) {
		return serialToDate(d), true
	}

	s := strings.TrimSpace(c.String())
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func serialToDate(days decimal.Decimal) time.Time {
	whole := days.Floor()
	fraction := days.Sub(whole)
	seconds := fraction.Mul(decimal.NewFromInt(86400)).Round(0).IntPart()
	return spreadsheetEpoch.AddDate(0, 0, int(whole.IntPart())).Add(time.Duration(seconds) * time.Second)
}
