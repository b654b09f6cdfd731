// Package remap rewrites stale product identities through the mapping table
// and re-aggregates rows that collapse onto the same identity.
package remap

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/repositories"
	"github.com/vsinha/opsreport/pkg/domain/services"
)

// Options controls re-aggregation
type Options struct {
	// GroupBy names pass-through columns that stay part of the grouping key,
	// e.g. the remaining pivot index fields and the bucket column
	GroupBy []string
}

// Remapper applies mapping rules to extracts
type Remapper struct {
	logger *zap.Logger
}

// NewRemapper creates a remapper
func NewRemapper(logger *zap.Logger) *Remapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remapper{logger: logger}
}

type aggregate struct {
	row []entities.Cell
}

// Remap normalizes the key columns of table, rewrites every key that has an
// active rule and re-aggregates rows by key plus opts.GroupBy: numeric
// columns are summed and the rest keep the first row's value. The returned
// set holds the new keys of rewritten rows. A table without the key columns
// is returned unchanged with an empty set.
func (r *Remapper) Remap(
	table *entities.Table,
	rules repositories.MappingRepository,
	fields entities.FieldMap,
	opts Options,
) (*entities.Table, *entities.KeySet) {
	mapped := entities.NewKeySet()

	resolver, err := services.NewKeyResolver(table, fields)
	if err != nil {
		r.logger.Warn("Skipping remap, key columns missing",
			zap.String("source", table.Name),
			zap.Error(err))
		return table, mapped
	}
	keyPos := resolver.Positions()

	grouping := make(map[int]bool, len(keyPos)+len(opts.GroupBy))
	for _, pos := range keyPos {
		grouping[pos] = true
	}
	var groupPos []int
	for _, name := range opts.GroupBy {
		pos := table.ColumnIndex(name)
		if pos < 0 {
			r.logger.Debug("Group-by column absent",
				zap.String("source", table.Name),
				zap.String("column", name))
			continue
		}
		if !grouping[pos] {
			grouping[pos] = true
			groupPos = append(groupPos, pos)
		}
	}

	var sumPos []int
	for pos := range table.Columns {
		if !grouping[pos] && table.HasNumbers(pos) {
			sumPos = append(sumPos, pos)
		}
	}

	out := entities.NewTable(table.Name, table.Columns)
	groups := make(map[string]*aggregate)
	var order []*aggregate
	rewritten := 0

	for _, src := range table.Rows {
		key := resolver.Key(src)
		if rule, ok := rules.FindByOldKey(key); ok && !rule.Inert() {
			key = rule.New
			mapped.Add(key)
			rewritten++
		}

		parts := []string{key.Wafer, key.Spec, key.Part}
		for _, pos := range groupPos {
			parts = append(parts, services.Normalize(src[pos]))
		}
		id := strings.Join(parts, "\x1f")

		agg, exists := groups[id]
		if !exists {
			row := make([]entities.Cell, len(src))
			copy(row, src)
			row[keyPos[0]] = entities.Text(key.Wafer)
			row[keyPos[1]] = entities.Text(key.Spec)
			row[keyPos[2]] = entities.Text(key.Part)
			for _, pos := range sumPos {
				row[pos] = entities.Number(src[pos].DecimalOrZero())
			}
			agg = &aggregate{row: row}
			groups[id] = agg
			order = append(order, agg)
			continue
		}
		for _, pos := range sumPos {
			agg.row[pos] = entities.Number(sum(agg.row[pos], src[pos]))
		}
	}

	for _, agg := range order {
		out.AppendRow(agg.row)
	}

	r.logger.Info("Identity remap applied",
		zap.String("source", table.Name),
		zap.Int("rows_in", table.Len()),
		zap.Int("rows_out", out.Len()),
		zap.Int("rows_rewritten", rewritten),
		zap.Int("mapped_keys", mapped.Len()))

	return out, mapped
}

func sum(a, b entities.Cell) decimal.Decimal {
	return a.DecimalOrZero().Add(b.DecimalOrZero())
}
