// Package orchestration runs one reconciliation report from loaded extracts
// to the sheets handed to the output writers.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/application/dto"
	"github.com/vsinha/opsreport/pkg/application/services/pivot"
	"github.com/vsinha/opsreport/pkg/application/services/remap"
	"github.com/vsinha/opsreport/pkg/application/services/summary"
	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/repositories"
	"github.com/vsinha/opsreport/pkg/infrastructure/config"
	"github.com/vsinha/opsreport/pkg/infrastructure/events"
	"github.com/vsinha/opsreport/pkg/infrastructure/repositories/memory"
)

// ErrUnconfiguredSource marks an input that no configured source claims
var ErrUnconfiguredSource = errors.New("unconfigured source")

// ReportOrchestrator coordinates loading, remapping, pivoting and summary assembly
type ReportOrchestrator struct {
	cfg      *config.Config
	extracts repositories.ExtractRepository
	logger   *zap.Logger
}

// NewReportOrchestrator creates a new report orchestrator
func NewReportOrchestrator(
	cfg *config.Config,
	extracts repositories.ExtractRepository,
	logger *zap.Logger,
) *ReportOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportOrchestrator{cfg: cfg, extracts: extracts, logger: logger}
}

// run holds the state of one report run
type run struct {
	id     string
	logger *zap.Logger
	store  *events.InMemoryEventStore
	result *dto.ReportResult

	raw       map[string]*entities.Table // loaded extracts
	remapped  map[string]*entities.Table // raw extracts after identity remap
	pivots    map[string]*entities.Table
	rules     *memory.MappingRepository
	mappingOK bool
}

func (r *run) emit(eventType string, data interface{}) {
	_ = r.store.AppendEvent(r.id, events.NewEvent(eventType, r.id, data))
}

// RunReport processes the extracts in inputs (source name -> path). Sources
// are handled in configuration order. Per-source failures are recorded and
// skipped; a missing anchor extract fails the run.
func (o *ReportOrchestrator) RunReport(ctx context.Context, inputs map[string]string) (*dto.ReportResult, error) {
	id := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", id))
	store := events.NewInMemoryEventStore(logger)
	store.Subscribe(events.AllEventTypes, events.NewLoggingHandler(logger))

	r := &run{
		id:     id,
		logger: logger,
		store:  store,
		result: &dto.ReportResult{
			RunID:       id,
			GeneratedAt: time.Now(),
			CutoffMonth: o.cfg.CutoffMonth,
			Mapped:      make(map[string]*entities.KeySet),
		},
		raw:      make(map[string]*entities.Table),
		remapped: make(map[string]*entities.Table),
		pivots:   make(map[string]*entities.Table),
	}

	logger.Info("Starting report run",
		zap.Int("inputs", len(inputs)),
		zap.String("cutoff_month", o.cfg.CutoffMonth))

	names := make([]string, 0, len(inputs))
	for source := range inputs {
		names = append(names, source)
	}
	sort.Strings(names)
	for _, source := range names {
		path := inputs[source]
		if _, ok := o.cfg.Source(source); !ok {
			logger.Warn("Skipping unconfigured source", zap.String("source", source), zap.String("path", path))
			r.skip(source, path, ErrUnconfiguredSource.Error())
		}
	}

	if err := o.load(ctx, r, inputs); err != nil {
		return nil, err
	}
	if _, ok := r.raw[entities.SourceUnfulfilledOrders]; !ok {
		return nil, fmt.Errorf("%w: %s", summary.ErrMissingAnchor, entities.SourceUnfulfilledOrders)
	}

	o.loadRules(r)

	if err := o.pivotSources(ctx, r); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := o.assemble(r)
	if err != nil {
		return nil, err
	}
	r.result.Summary = s
	o.buildSheets(r)

	r.result.Events = store.ReadAllEvents()
	logger.Info("Report run complete",
		zap.Int("sheets", len(r.result.Sheets)),
		zap.Int("summary_rows", s.Table.Len()),
		zap.Int("unmatched", s.AllUnmatched().Len()))

	return r.result, nil
}

func (o *ReportOrchestrator) load(ctx context.Context, r *run, inputs map[string]string) error {
	for _, sc := range o.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, ok := inputs[sc.Name]
		if !ok {
			r.logger.Debug("Source not provided", zap.String("source", sc.Name))
			r.skip(sc.Name, "", "not provided")
			continue
		}
		table, err := o.extracts.Load(sc.Name, path)
		if err != nil {
			r.logger.Warn("Failed to load source", zap.String("source", sc.Name), zap.Error(err))
			r.fail(sc.Name, path, err)
			continue
		}
		r.raw[sc.Name] = table
		r.result.Sources = append(r.result.Sources, dto.SourceStatus{
			Source: sc.Name, Path: path, Status: dto.StatusLoaded, Rows: table.Len(),
		})
		r.emit(events.SourceLoadedEvent, events.SourceLoaded{Source: sc.Name, Path: path, Rows: table.Len()})
	}
	return nil
}

func (o *ReportOrchestrator) loadRules(r *run) {
	mapping, ok := r.raw[entities.SourceMapping]
	if !ok {
		return
	}
	rules, err := remap.ParseRules(mapping)
	if err != nil {
		r.logger.Warn("Mapping extract rejected, identities are not remapped", zap.Error(err))
		r.emit(events.SourceFailedEvent, events.SourceFailed{Source: entities.SourceMapping, Error: err.Error()})
		return
	}
	repo := memory.NewMappingRepository(len(rules))
	if err := repo.LoadRules(rules); err != nil {
		r.logger.Warn("Failed to index mapping rules", zap.Error(err))
		return
	}
	for _, key := range repo.DuplicateOldKeys() {
		r.logger.Warn("Duplicate mapping rule, first one applies", zap.Stringer("old", key))
	}
	r.rules = repo
	r.mappingOK = true
	r.logger.Info("Mapping rules loaded", zap.Int("rules", len(rules)))
}

func (o *ReportOrchestrator) pivotSources(ctx context.Context, r *run) error {
	engine := pivot.NewEngine(pivot.Options{CutoffMonth: o.cfg.CutoffMonth, Labels: o.cfg.Labels}, r.logger)
	remapper := remap.NewRemapper(r.logger)

	for _, sc := range o.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		table, ok := r.raw[sc.Name]
		if !ok {
			continue
		}

		if sc.Remap && r.mappingOK && !sc.Fields.IsZero() {
			opts := remap.Options{}
			if sc.Pivot != nil {
				opts.GroupBy = groupByColumns(*sc.Pivot, sc.Fields)
			}
			remapped, mapped := remapper.Remap(table, r.rules, sc.Fields, opts)
			r.result.Mapped[sc.Name] = mapped
			r.emit(events.RemapAppliedEvent, events.RemapApplied{
				Source: sc.Name, RowsIn: table.Len(), RowsOut: remapped.Len(), MappedKeys: mapped.Len(),
			})
			table = remapped
		}
		r.remapped[sc.Name] = table

		if sc.Pivot == nil {
			continue
		}
		pivoted, err := engine.Pivot(table, *sc.Pivot)
		if err != nil {
			r.logger.Warn("Pivot failed, sheet omitted", zap.String("source", sc.Name), zap.Error(err))
			r.emit(events.SourceFailedEvent, events.SourceFailed{Source: sc.Name, Error: err.Error()})
			r.markFailed(sc.Name, err)
			continue
		}
		r.pivots[sc.Name] = pivoted
		r.emit(events.PivotCreatedEvent, events.PivotCreated{
			Source: sc.Name, Rows: pivoted.Len(), Columns: len(pivoted.Columns),
		})
	}
	return nil
}

func (o *ReportOrchestrator) assemble(r *run) (*summary.Summary, error) {
	opts := o.cfg.Summary
	opts.Labels = o.cfg.Labels
	assembler := summary.NewAssembler(opts, r.logger)

	in := summary.Inputs{
		Anchor:            o.source(entities.SourceUnfulfilledOrders, r.remapped),
		Safety:            o.source(entities.SourceSafetyStock, r.raw),
		Unfulfilled:       o.source(entities.SourceUnfulfilledOrders, r.pivots),
		Forecast:          o.source(entities.SourceForecast, r.raw),
		FinishedInventory: o.source(entities.SourceFinishedInventory, r.pivots),
	}

	if wipTable, ok := r.pivots[entities.SourceFinishedProducts]; ok {
		sc, _ := o.cfg.Source(entities.SourceFinishedProducts)
		wip := memory.NewWIPRepository()
		if err := wip.LoadWIP(wipTable, sc.Fields); err != nil {
			r.logger.Warn("WIP not indexed", zap.Error(err))
		} else {
			in.WIP = wip
		}
	}
	if r.mappingOK {
		in.Rules = r.rules
	}

	s, err := assembler.Assemble(in)
	if err != nil {
		return nil, err
	}

	for _, m := range s.Merges {
		r.emit(events.SummaryMergedEvent, events.SummaryMerged{
			Source: m.Source, Matched: m.Keys - m.Unmatched, Unmatched: m.Unmatched,
		})
	}
	for _, res := range s.SemiFinished {
		r.emit(events.SemiFinishedResolvedEvent, events.SemiFinishedResolved{
			SemiFinished: res.Rule.SemiFinished,
			New:          res.Rule.New,
			Old:          res.Rule.Old,
			Tier:         string(res.Tier),
			Quantity:     res.Quantity.String(),
			Written:      res.Written,
		})
	}
	return s, nil
}

// buildSheets lays out the workbook: pivots in configuration order with the
// summary after the unfulfilled-orders pivot, then the auxiliary extracts
func (o *ReportOrchestrator) buildSheets(r *run) {
	s := r.result.Summary
	for _, sc := range o.cfg.Sources {
		pivoted, ok := r.pivots[sc.Name]
		if !ok {
			continue
		}
		r.result.Sheets = append(r.result.Sheets, dto.Sheet{
			Name:      sheetName(sc),
			Source:    sc.Name,
			Kind:      dto.PivotSheet,
			Table:     pivoted,
			KeyFields: sc.Fields,
			Unmatched: s.Unmatched[sc.Name],
			Mapped:    r.result.Mapped[sc.Name],
		})
		if sc.Name == entities.SourceUnfulfilledOrders {
			r.result.Sheets = append(r.result.Sheets, dto.Sheet{
				Name:      s.Table.Name,
				Source:    sc.Name,
				Kind:      dto.SummarySheet,
				Table:     s.Table,
				KeyFields: entities.IdentityColumns,
				Mapped:    r.result.Mapped[sc.Name],
				Bands:     s.Bands,
			})
		}
	}

	for _, name := range []string{entities.SourceMapping, entities.SourceForecast, entities.SourceSafetyStock} {
		table, ok := r.raw[name]
		if !ok {
			continue
		}
		sc, _ := o.cfg.Source(name)
		switch name {
		case entities.SourceMapping:
			if normalized, err := remap.NormalizeMappingTable(table); err == nil {
				table = normalized
			}
		case entities.SourceForecast:
			table = table.PromoteHeader()
		}
		r.result.Sheets = append(r.result.Sheets, dto.Sheet{
			Name:      sheetName(sc),
			Source:    name,
			Kind:      dto.PassThroughSheet,
			Table:     table,
			KeyFields: sc.Fields,
			Unmatched: s.Unmatched[name],
		})
	}
}

func (o *ReportOrchestrator) source(name string, tables map[string]*entities.Table) *summary.Source {
	table, ok := tables[name]
	if !ok {
		return nil
	}
	sc, _ := o.cfg.Source(name)
	return &summary.Source{Table: table, Fields: sc.Fields}
}

func (r *run) skip(source, path, reason string) {
	r.result.Sources = append(r.result.Sources, dto.SourceStatus{Source: source, Path: path, Status: dto.StatusSkipped, Error: reason})
	r.emit(events.SourceSkippedEvent, events.SourceSkipped{Source: source, Reason: reason})
}

func (r *run) fail(source, path string, err error) {
	r.result.Sources = append(r.result.Sources, dto.SourceStatus{Source: source, Path: path, Status: dto.StatusFailed, Error: err.Error()})
	r.emit(events.SourceFailedEvent, events.SourceFailed{Source: source, Error: err.Error()})
}

// markFailed turns a loaded source into a failed one after a later step broke
func (r *run) markFailed(source string, err error) {
	for i := range r.result.Sources {
		if r.result.Sources[i].Source == source {
			r.result.Sources[i].Status = dto.StatusFailed
			r.result.Sources[i].Error = err.Error()
		}
	}
}

// groupByColumns returns the pivot index fields and bucket column that are
// not key columns; remapping keeps them in the grouping so buckets survive
func groupByColumns(schema entities.PivotSchema, fields entities.FieldMap) []string {
	keys := make(map[string]bool)
	for _, c := range fields.Columns() {
		keys[c] = true
	}
	var cols []string
	for _, c := range schema.Index {
		if !keys[c] {
			cols = append(cols, c)
		}
	}
	if schema.ColumnField != "" && !keys[schema.ColumnField] {
		cols = append(cols, schema.ColumnField)
	}
	return cols
}

func sheetName(sc config.SourceConfig) string {
	if sc.Sheet != "" {
		return sc.Sheet
	}
	return sc.Name
}
