package memory

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/repositories"
	"github.com/vsinha/opsreport/pkg/domain/services"
)

// WIPRepository indexes a work-in-progress table by composite key. Every
// numeric non-key column contributes to the quantity of its row.
type WIPRepository struct {
	quantities map[entities.CompositeKey]decimal.Decimal
	keys       *entities.KeySet
}

// NewWIPRepository creates an empty WIP repository
func NewWIPRepository() *WIPRepository {
	return &WIPRepository{
		quantities: make(map[entities.CompositeKey]decimal.Decimal),
		keys:       entities.NewKeySet(),
	}
}

// Verify interface compliance
var _ repositories.WIPRepository = (*WIPRepository)(nil)

// LoadWIP indexes the table. Rows sharing a key are summed.
func (r *WIPRepository) LoadWIP(table *entities.Table, fields entities.FieldMap) error {
	resolver, err := services.NewKeyResolver(table, fields)
	if err != nil {
		return err
	}

	keyPos := make(map[int]bool)
	for _, pos := range resolver.Positions() {
		keyPos[pos] = true
	}
	var numeric []int
	for pos := range table.Columns {
		if !keyPos[pos] && table.IsNumericColumn(pos) {
			numeric = append(numeric, pos)
		}
	}

	for _, row := range table.Rows {
		key := resolver.Key(row)
		total := r.quantities[key]
		for _, pos := range numeric {
			total = total.Add(row[pos].DecimalOrZero())
		}
		r.quantities[key] = total
		r.keys.Add(key)
	}
	return nil
}

// Quantity returns the summed quantity for a key and whether any row had it
func (r *WIPRepository) Quantity(key entities.CompositeKey) (decimal.Decimal, bool) {
	qty, ok := r.quantities[key]
	return qty, ok
}

// Keys returns the indexed keys in first-seen order
func (r *WIPRepository) Keys() *entities.KeySet {
	return r.keys
}
