// Package summary folds the per-source extracts into one row per anchor
// identity and tracks which source keys found no anchor row.
package summary

import (
	"github.com/vsinha/opsreport/pkg/application/services/pivot"
	"github.com/vsinha/opsreport/pkg/domain/entities"
)

// Generated summary columns
const (
	TotalUnfulfilledColumn = "总未交订单"
	WIPColumn              = "成品在制"
	SemiFinishedColumn     = "半成品在制"
)

// Band labels of the summary header row
const (
	BandSafety            = "安全库存"
	BandUnfulfilled       = "未交订单"
	BandForecast          = "预测"
	BandFinishedInventory = "成品库存"
	BandWIP               = "成品在制"
)

// Band groups adjacent summary columns under one header label
type Band struct {
	Label   string   `json:"label"`
	Columns []string `json:"columns"`
}

// MergeStat records the outcome of folding one source into the summary
type MergeStat struct {
	Source    string `json:"source"`
	Keys      int    `json:"keys"`
	Unmatched int    `json:"unmatched"`
}

// Summary is the consolidated report table with its bookkeeping
type Summary struct {
	Table        *entities.Table             `json:"table"`
	Bands        []Band                      `json:"bands"`
	AnchorKeys   *entities.KeySet            `json:"anchor_keys"`
	Unmatched    map[string]*entities.KeySet `json:"unmatched"`
	Merges       []MergeStat                 `json:"merges"`
	SemiFinished []Resolution                `json:"semi_finished,omitempty"`

	// New keys of semi-finished rules that matched no summary row
	SemiFinishedUnmatched *entities.KeySet `json:"semi_finished_unmatched,omitempty"`

	rows map[entities.CompositeKey]int
}

func newSummary(anchor *entities.KeySet) *Summary {
	id := entities.IdentityColumns
	s := &Summary{
		Table:      entities.NewTable("汇总", id.Columns()),
		AnchorKeys: anchor,
		Unmatched:  make(map[string]*entities.KeySet),
		rows:       make(map[entities.CompositeKey]int, anchor.Len()),
	}
	for i, key := range anchor.Keys() {
		s.Table.AppendRow([]entities.Cell{entities.Text(key.Wafer), entities.Text(key.Spec), entities.Text(key.Part)})
		s.rows[key] = i
	}
	return s
}

// Row returns the row index of an anchor key
func (s *Summary) Row(key entities.CompositeKey) (int, bool) {
	i, ok := s.rows[key]
	return i, ok
}

// Sources returns the merged sources in merge order
func (s *Summary) Sources() []string {
	out := make([]string, 0, len(s.Merges))
	for _, m := range s.Merges {
		out = append(out, m.Source)
	}
	return out
}

// AllUnmatched returns the union of every source's unmatched keys
func (s *Summary) AllUnmatched() *entities.KeySet {
	all := entities.NewKeySet()
	for _, source := range s.Sources() {
		all.Union(s.Unmatched[source])
	}
	return all
}

// addColumns appends empty columns and returns their final, collision-free names
func (s *Summary) addColumns(names []string, fill entities.Cell) []string {
	existing := len(s.Table.Columns)
	all := pivot.UniqueColumnNames(append(append([]string{}, s.Table.Columns...), names...))
	added := all[existing:]
	s.Table.Columns = all
	for i, row := range s.Table.Rows {
		for range added {
			row = append(row, fill)
		}
		s.Table.Rows[i] = row
	}
	return added
}

func (s *Summary) record(source string, keys, unmatched *entities.KeySet) {
	s.Unmatched[source] = unmatched
	s.Merges = append(s.Merges, MergeStat{Source: source, Keys: keys.Len(), Unmatched: unmatched.Len()})
}

func (s *Summary) addBand(label string, columns []string) {
	if len(columns) == 0 {
		return
	}
	s.Bands = append(s.Bands, Band{Label: label, Columns: columns})
}
