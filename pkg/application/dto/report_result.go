package dto

import (
	"time"

	"github.com/vsinha/opsreport/pkg/application/services/summary"
	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/infrastructure/events"
)

// SheetKind tells the writer how a sheet was produced
type SheetKind string

const (
	PivotSheet       SheetKind = "pivot"
	SummarySheet     SheetKind = "summary"
	PassThroughSheet SheetKind = "passthrough"
)

// Sheet is one table of the report with the keys to highlight
type Sheet struct {
	Name      string            `json:"name"`
	Source    string            `json:"source"`
	Kind      SheetKind         `json:"kind"`
	Table     *entities.Table   `json:"table"`
	KeyFields entities.FieldMap `json:"key_fields"`
	Unmatched *entities.KeySet  `json:"unmatched,omitempty"`
	Mapped    *entities.KeySet  `json:"mapped,omitempty"`
	Bands     []summary.Band    `json:"bands,omitempty"`
}

// SourceStatus values
const (
	StatusLoaded  = "loaded"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// SourceStatus reports what happened to one configured source
type SourceStatus struct {
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// ReportResult contains the complete output of a report run
type ReportResult struct {
	RunID       string                      `json:"run_id"`
	GeneratedAt time.Time                   `json:"generated_at"`
	CutoffMonth string                      `json:"cutoff_month,omitempty"`
	Sheets      []Sheet                     `json:"sheets"`
	Summary     *summary.Summary            `json:"summary"`
	Mapped      map[string]*entities.KeySet `json:"mapped"`
	Sources     []SourceStatus              `json:"sources"`
	Events      []events.Event              `json:"events"`
}

// Sheet returns the sheet produced for a source and kind
func (r *ReportResult) Sheet(source string, kind SheetKind) (*Sheet, bool) {
	for i := range r.Sheets {
		if r.Sheets[i].Source == source && r.Sheets[i].Kind == kind {
			return &r.Sheets[i], true
		}
	}
	return nil, false
}

// Status returns the status of a source
func (r *ReportResult) Status(source string) (SourceStatus, bool) {
	for _, s := range r.Sources {
		if s.Source == source {
			return s, true
		}
	}
	return SourceStatus{}, false
}
