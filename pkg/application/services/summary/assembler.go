package summary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/application/services/pivot"
	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/repositories"
	"github.com/vsinha/opsreport/pkg/domain/services"
)

// ErrMissingAnchor is returned when the unfulfilled-orders extract is absent
var ErrMissingAnchor = errors.New("anchor extract missing")

// Options names the source columns the summary takes
type Options struct {
	SafetyValues    []string     `yaml:"safety_values"`
	InventoryValues []string     `yaml:"inventory_values"`
	ForecastMarker  string       `yaml:"forecast_marker"`
	Labels          pivot.Labels `yaml:"-"`
}

// DefaultOptions returns the column names of the standard extracts
func DefaultOptions() Options {
	return Options{
		SafetyValues:    []string{"InvWaf", "InvPart"},
		InventoryValues: []string{"数量_HOLD仓", "数量_成品仓", "数量_半成品仓"},
		ForecastMarker:  "预测",
		Labels:          pivot.DefaultLabels(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.SafetyValues) == 0 {
		o.SafetyValues = d.SafetyValues
	}
	if len(o.InventoryValues) == 0 {
		o.InventoryValues = d.InventoryValues
	}
	if o.ForecastMarker == "" {
		o.ForecastMarker = d.ForecastMarker
	}
	o.Labels = o.Labels.WithDefaults()
	return o
}

// Source is one extract together with the columns carrying its key
type Source struct {
	Table  *entities.Table
	Fields entities.FieldMap
}

// Inputs are the extracts folded into a summary. Nil members are skipped.
type Inputs struct {
	Anchor            *Source // remapped raw unfulfilled orders
	Safety            *Source
	Unfulfilled       *Source // unfulfilled-orders pivot
	Forecast          *Source // raw forecast, header in the first data row
	FinishedInventory *Source // finished-goods inventory pivot
	WIP               repositories.WIPRepository
	Rules             repositories.MappingRepository
}

// Assembler builds the summary table
type Assembler struct {
	opts   Options
	logger *zap.Logger
}

// NewAssembler creates an assembler
func NewAssembler(opts Options, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{opts: opts.withDefaults(), logger: logger}
}

type reducer int

const (
	reduceSum reducer = iota
	reduceFirst
)

// Assemble seeds the summary with the distinct anchor keys and left-joins the
// secondary sources in fixed order: safety stock, unfulfilled totals,
// forecast, finished inventory, WIP. A failing secondary source is logged and
// left out; only a missing anchor is an error.
func (a *Assembler) Assemble(in Inputs) (*Summary, error) {
	if in.Anchor == nil || in.Anchor.Table == nil {
		return nil, ErrMissingAnchor
	}
	resolver, err := services.NewKeyResolver(in.Anchor.Table, in.Anchor.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAnchor, err)
	}
	s := newSummary(resolver.Keys(in.Anchor.Table))

	steps := []struct {
		source string
		input  *Source
		merge  func(*Summary, Source) error
	}{
		{entities.SourceSafetyStock, in.Safety, a.mergeSafety},
		{entities.SourceUnfulfilledOrders, in.Unfulfilled, a.mergeUnfulfilled},
		{entities.SourceForecast, in.Forecast, a.mergeForecast},
		{entities.SourceFinishedInventory, in.FinishedInventory, a.mergeFinishedInventory},
	}
	for _, step := range steps {
		if step.input == nil || step.input.Table == nil {
			a.logger.Debug("Summary source absent", zap.String("source", step.source))
			continue
		}
		if err := step.merge(s, *step.input); err != nil {
			a.logger.Warn("Summary source skipped",
				zap.String("source", step.source),
				zap.Error(err))
		}
	}

	if in.WIP != nil {
		a.mergeWIP(s, in.WIP, in.Rules)
	}

	for _, m := range s.Merges {
		if m.Unmatched > 0 {
			a.logger.Info("Unmatched keys",
				zap.String("source", m.Source),
				zap.Int("count", m.Unmatched))
		}
	}
	a.logger.Info("Summary assembled",
		zap.Int("rows", s.Table.Len()),
		zap.Int("columns", len(s.Table.Columns)))

	return s, nil
}

func (a *Assembler) mergeSafety(s *Summary, src Source) error {
	src.Table = trimColumnNames(src.Table)
	added, err := a.join(s, entities.SourceSafetyStock, src, a.opts.SafetyValues, reduceSum)
	if err != nil {
		return err
	}
	s.addBand(BandSafety, added)
	return nil
}

func (a *Assembler) mergeUnfulfilled(s *Summary, src Source) error {
	table := src.Table
	keyPos, err := table.RequireColumns(src.Fields.Columns()...)
	if err != nil {
		return err
	}

	labels := a.opts.Labels
	var historical, rest []int
	for pos, col := range table.Columns {
		if !strings.Contains(col, labels.UnfulfilledMarker) || containsInt(keyPos, pos) {
			continue
		}
		if col == labels.HistoricalUnfulfilled {
			historical = append(historical, pos)
		} else {
			rest = append(rest, pos)
		}
	}
	valuePos := append(historical, rest...)

	columns := append(src.Fields.Columns(), TotalUnfulfilledColumn)
	for _, pos := range valuePos {
		columns = append(columns, table.Columns[pos])
	}
	derived := entities.NewTable(table.Name, columns)
	for _, row := range table.Rows {
		cells := []entities.Cell{row[keyPos[0]], row[keyPos[1]], row[keyPos[2]]}
		total := decimal.Zero
		for _, pos := range valuePos {
			total = total.Add(row[pos].DecimalOrZero())
		}
		cells = append(cells, entities.Number(total))
		for _, pos := range valuePos {
			cells = append(cells, row[pos])
		}
		derived.AppendRow(cells)
	}

	added, err := a.join(s, entities.SourceUnfulfilledOrders, Source{Table: derived, Fields: src.Fields}, columns[3:], reduceSum)
	if err != nil {
		return err
	}
	s.addBand(BandUnfulfilled, added)
	return nil
}

func (a *Assembler) mergeForecast(s *Summary, src Source) error {
	src.Table = trimColumnNames(src.Table.PromoteHeader())

	keyPos, err := src.Table.RequireColumns(src.Fields.Columns()...)
	if err != nil {
		return err
	}
	var values []string
	for pos, col := range src.Table.Columns {
		if strings.Contains(col, a.opts.ForecastMarker) && !containsInt(keyPos, pos) {
			values = append(values, col)
		}
	}
	if len(values) == 0 {
		a.logger.Warn("No forecast columns found",
			zap.String("marker", a.opts.ForecastMarker),
			zap.Strings("columns", src.Table.Columns))
		s.record(entities.SourceForecast, entities.NewKeySet(), entities.NewKeySet())
		return nil
	}

	added, err := a.join(s, entities.SourceForecast, src, values, reduceFirst)
	if err != nil {
		return err
	}
	s.addBand(BandForecast, added)
	return nil
}

func (a *Assembler) mergeFinishedInventory(s *Summary, src Source) error {
	src.Table = trimColumnNames(src.Table)

	var present, missing []string
	for _, col := range a.opts.InventoryValues {
		if src.Table.HasColumn(col) {
			present = append(present, col)
		} else {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		a.logger.Warn("Finished inventory columns missing",
			zap.Strings("missing", missing))
	}
	if len(present) == 0 {
		return fmt.Errorf("%w: none of %v in %s", entities.ErrMissingColumn, a.opts.InventoryValues, src.Table.Name)
	}

	added, err := a.join(s, entities.SourceFinishedInventory, src, present, reduceSum)
	if err != nil {
		return err
	}
	s.addBand(BandFinishedInventory, added)
	return nil
}

func (a *Assembler) mergeWIP(s *Summary, wip repositories.WIPRepository, rules repositories.MappingRepository) {
	added := s.addColumns([]string{WIPColumn, SemiFinishedColumn}, entities.Number(decimal.Zero))
	col := s.Table.ColumnIndex(added[0])

	for _, key := range s.AnchorKeys.Keys() {
		if qty, ok := wip.Quantity(key); ok {
			row, _ := s.Row(key)
			s.Table.Rows[row][col] = entities.Number(qty)
		}
	}

	unmatched := wip.Keys().Difference(s.AnchorKeys)
	if rules != nil {
		semiUnmatched, resolutions := ResolveSemiFinished(s, rules, wip)
		s.SemiFinishedUnmatched = semiUnmatched
		s.SemiFinished = resolutions
		if semiUnmatched.Len() > 0 {
			a.logger.Warn("Semi-finished rules without a summary row",
				zap.Int("count", semiUnmatched.Len()))
		}
		for _, r := range resolutions {
			a.logger.Debug("Semi-finished lookup",
				zap.String("semi_finished", r.Rule.SemiFinished),
				zap.Stringer("new", r.Rule.New),
				zap.String("tier", string(r.Tier)),
				zap.String("quantity", r.Quantity.String()))
		}
	}

	s.record(entities.SourceFinishedProducts, wip.Keys(), unmatched)
	s.addBand(BandWIP, added)
}

// join reduces src to one row per key, left-joins the values onto the summary
// and records the source keys that found no anchor row
func (a *Assembler) join(s *Summary, source string, src Source, values []string, reduce reducer) ([]string, error) {
	resolver, err := services.NewKeyResolver(src.Table, src.Fields)
	if err != nil {
		return nil, err
	}
	valuePos, err := src.Table.RequireColumns(values...)
	if err != nil {
		return nil, err
	}

	reduced := make(map[entities.CompositeKey][]entities.Cell)
	for _, row := range src.Table.Rows {
		key := resolver.Key(row)
		acc, seen := reduced[key]
		if !seen {
			acc = make([]entities.Cell, len(valuePos))
			for i, pos := range valuePos {
				if reduce == reduceSum {
					acc[i] = entities.Number(row[pos].DecimalOrZero())
				} else {
					acc[i] = row[pos]
				}
			}
			reduced[key] = acc
			continue
		}
		if reduce == reduceSum {
			for i, pos := range valuePos {
				acc[i] = entities.Number(acc[i].DecimalOrZero().Add(row[pos].DecimalOrZero()))
			}
		}
	}

	added := s.addColumns(values, entities.Empty())
	first := len(s.Table.Columns) - len(added)
	for key, cells := range reduced {
		row, ok := s.Row(key)
		if !ok {
			continue
		}
		copy(s.Table.Rows[row][first:], cells)
	}

	keys := resolver.Keys(src.Table)
	s.record(source, keys, keys.Difference(s.AnchorKeys))
	return added, nil
}

// trimColumnNames normalizes header text such as " InvWaf"
func trimColumnNames(table *entities.Table) *entities.Table {
	renames := make(map[string]string)
	for _, col := range table.Columns {
		if n := services.Normalize(col); n != col {
			renames[col] = n
		}
	}
	if len(renames) == 0 {
		return table
	}
	return table.Rename(renames)
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
