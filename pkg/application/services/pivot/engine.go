// Package pivot turns raw extracts into wide, time-bucketed aggregate tables.
package pivot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/services"
)

// Options configures a pivot engine for one run
type Options struct {
	// CutoffMonth ("YYYY-MM") enables history collapsing; empty disables it
	CutoffMonth string
	Labels      Labels
}

// Engine pivots extracts according to their schema
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine creates a pivot engine
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Labels = opts.Labels.WithDefaults()
	return &Engine{opts: opts, logger: logger}
}

type group struct {
	keys []string
	sums map[string][]decimal.Decimal // bucket -> per-measure sums
}

// Pivot groups the table by the schema index and sums every measure, spread
// over bucket columns when the schema names a column field. Missing
// key/bucket combinations are zero.
func (e *Engine) Pivot(table *entities.Table, schema entities.PivotSchema) (*entities.Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", table.Name, err)
	}

	indexPos, err := table.RequireColumns(schema.Index...)
	if err != nil {
		return nil, err
	}
	valuePos, err := table.RequireColumns(schema.Values...)
	if err != nil {
		return nil, err
	}
	bucketPos := -1
	if schema.Bucketed() {
		pos, err := table.RequireColumns(schema.ColumnField)
		if err != nil {
			return nil, err
		}
		bucketPos = pos[0]
	}

	label := e.bucketLabeler(schema)
	groups := make(map[string]*group)
	buckets := make(map[string]struct{})
	nonNumeric := 0

	for _, row := range table.Rows {
		keys := make([]string, len(indexPos))
		for i, pos := range indexPos {
			keys[i] = services.Normalize(row[pos])
		}
		id := strings.Join(keys, "\x1f")
		g, ok := groups[id]
		if !ok {
			g = &group{keys: keys, sums: make(map[string][]decimal.Decimal)}
			groups[id] = g
		}

		bucket := ""
		if bucketPos >= 0 {
			bucket = label(row[bucketPos])
		}
		buckets[bucket] = struct{}{}

		sums, ok := g.sums[bucket]
		if !ok {
			sums = make([]decimal.Decimal, len(valuePos))
			g.sums[bucket] = sums
		}
		for i, pos := range valuePos {
			cell := row[pos]
			if !cell.IsEmpty() && !cell.IsNumber() {
				nonNumeric++
			}
			sums[i] = sums[i].Add(cell.DecimalOrZero())
		}
	}

	if nonNumeric > 0 {
		e.logger.Warn("Non-numeric measure values counted as zero",
			zap.String("source", table.Name),
			zap.Int("cells", nonNumeric))
	}

	ordered := e.orderBuckets(buckets, schema.Bucketed())
	out := e.buildTable(table.Name, schema, groups, ordered)

	if e.shouldCollapse(schema) {
		e.logger.Info("Collapsing history columns",
			zap.String("source", table.Name),
			zap.String("cutoff", e.opts.CutoffMonth))
		out = CollapseHistory(out, len(schema.Index), e.opts.CutoffMonth, e.opts.Labels)
	}

	e.logger.Debug("Pivot created",
		zap.String("source", table.Name),
		zap.Int("rows", out.Len()),
		zap.Int("columns", len(out.Columns)))

	return out, nil
}

func (e *Engine) bucketLabeler(schema entities.PivotSchema) func(entities.Cell) string {
	unknown := e.opts.Labels.UnknownBucket
	if schema.DateFormat != "" {
		resolver := services.NewBucketResolver(schema.DateFormat, unknown)
		return resolver.Label
	}
	return func(c entities.Cell) string {
		if v := services.Normalize(c); v != "" {
			return v
		}
		return unknown
	}
}

// orderBuckets sorts labels ascending with the sentinel last
func (e *Engine) orderBuckets(buckets map[string]struct{}, bucketed bool) []string {
	if !bucketed {
		return []string{""}
	}
	unknown := e.opts.Labels.UnknownBucket
	ordered := make([]string, 0, len(buckets))
	hasUnknown := false
	for b := range buckets {
		if b == unknown {
			hasUnknown = true
			continue
		}
		ordered = append(ordered, b)
	}
	sort.Strings(ordered)
	if hasUnknown {
		ordered = append(ordered, unknown)
	}
	return ordered
}

func (e *Engine) buildTable(name string, schema entities.PivotSchema, groups map[string]*group, buckets []string) *entities.Table {
	columns := append([]string{}, schema.Index...)
	for _, measure := range schema.Values {
		for _, bucket := range buckets {
			if schema.Bucketed() {
				columns = append(columns, measure+"_"+bucket)
			} else {
				columns = append(columns, measure)
			}
		}
	}
	out := entities.NewTable(name, UniqueColumnNames(columns))

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return lessKeys(ordered[i].keys, ordered[j].keys)
	})

	for _, g := range ordered {
		row := make([]entities.Cell, 0, len(columns))
		for _, k := range g.keys {
			row = append(row, entities.Text(k))
		}
		for m := range schema.Values {
			for _, bucket := range buckets {
				total := decimal.Zero
				if sums, ok := g.sums[bucket]; ok {
					total = sums[m]
				}
				row = append(row, entities.Number(total))
			}
		}
		out.AppendRow(row)
	}
	return out
}

func (e *Engine) shouldCollapse(schema entities.PivotSchema) bool {
	if e.opts.CutoffMonth == "" {
		return false
	}
	for _, v := range schema.Values {
		if strings.Contains(v, e.opts.Labels.UnfulfilledMarker) {
			return true
		}
	}
	return false
}

func lessKeys(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// UniqueColumnNames disambiguates repeated names in first-seen order
func UniqueColumnNames(names []string) []string {
	return entities.UniqueNames(names)
}
