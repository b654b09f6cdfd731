package remap

import (
	"errors"
	"fmt"

	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/services"
)

// ErrMalformedMapping is returned for mapping extracts without the nine leading columns
var ErrMalformedMapping = errors.New("malformed mapping extract")

// NormalizeMappingTable renames the first nine columns of a raw mapping
// extract to their canonical names. Extra trailing columns are kept.
func NormalizeMappingTable(table *entities.Table) (*entities.Table, error) {
	if len(table.Columns) < len(entities.MappingColumns) {
		return nil, fmt.Errorf("%w: %s has %d columns, need %d",
			ErrMalformedMapping, table.Name, len(table.Columns), len(entities.MappingColumns))
	}
	out := table.Clone()
	copy(out.Columns, entities.MappingColumns)
	return out, nil
}

// ParseRules reads mapping rules from a raw mapping extract. Blank rows are skipped.
func ParseRules(table *entities.Table) ([]*entities.MappingRule, error) {
	normalized, err := NormalizeMappingTable(table)
	if err != nil {
		return nil, err
	}

	rules := make([]*entities.MappingRule, 0, normalized.Len())
	for _, row := range normalized.Rows {
		// columns: old spec, old part, old wafer, new spec, new part, new wafer, vendor, PC, semi
		rule := &entities.MappingRule{
			Old:          services.NormalizeKey(row[2], row[0], row[1]),
			New:          services.NormalizeKey(row[5], row[3], row[4]),
			Vendor:       services.Normalize(row[6]),
			ProcessCode:  services.Normalize(row[7]),
			SemiFinished: services.Normalize(row[8]),
		}
		if rule.Old == (entities.CompositeKey{}) && rule.New == (entities.CompositeKey{}) {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
