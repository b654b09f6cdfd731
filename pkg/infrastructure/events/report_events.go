package events

import (
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

const (
	SourceLoadedEvent  = "source.loaded"
	SourceSkippedEvent = "source.skipped"
	SourceFailedEvent  = "source.failed"

	RemapAppliedEvent = "remap.applied"
	PivotCreatedEvent = "pivot.created"

	SummaryMergedEvent        = "summary.merged"
	SemiFinishedResolvedEvent = "semifinished.resolved"
)

// AllEventTypes lists every event a report run emits
var AllEventTypes = []string{
	SourceLoadedEvent, SourceSkippedEvent, SourceFailedEvent,
	RemapAppliedEvent, PivotCreatedEvent,
	SummaryMergedEvent, SemiFinishedResolvedEvent,
}

type SourceLoaded struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
}

type SourceSkipped struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

type SourceFailed struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type RemapApplied struct {
	Source     string `json:"source"`
	RowsIn     int    `json:"rows_in"`
	RowsOut    int    `json:"rows_out"`
	MappedKeys int    `json:"mapped_keys"`
}

type PivotCreated struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

type SummaryMerged struct {
	Source    string `json:"source"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
}

type SemiFinishedResolved struct {
	SemiFinished string                `json:"semi_finished"`
	New          entities.CompositeKey `json:"new"`
	Old          entities.CompositeKey `json:"old"`
	Tier         string                `json:"tier"`
	Quantity     string                `json:"quantity"`
	Written      bool                  `json:"written"`
}

// LoggingHandler mirrors events to the debug log
type LoggingHandler struct {
	logger *zap.Logger
}

func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

func (h *LoggingHandler) CanHandle(eventType string) bool {
	return true
}

func (h *LoggingHandler) Handle(event Event) error {
	h.logger.Debug("Run event",
		zap.String("type", event.Type()),
		zap.String("stream", event.StreamID()),
		zap.Int("version", event.Version()),
		zap.Any("data", event.Data()))
	return nil
}
