package repositories

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

// WIPRepository answers per-identity work-in-progress quantities
type WIPRepository interface {
	// LoadWIP indexes a WIP table once by the key columns named in fields
	LoadWIP(table *entities.Table, fields entities.FieldMap) error
	// Quantity returns the summed numeric quantity of every row with the key
	Quantity(key entities.CompositeKey) (decimal.Decimal, bool)
	Keys() *entities.KeySet
}
