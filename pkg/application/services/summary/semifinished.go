package summary

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/repositories"
)

// MatchTier names the identity that located a semi-finished WIP quantity
type MatchTier string

const (
	MatchNew  MatchTier = "new"
	MatchOld  MatchTier = "old"
	MatchNone MatchTier = "none"
)

// Resolution is the audit record of one semi-finished lookup
type Resolution struct {
	Rule     entities.MappingRule `json:"rule"`
	Tier     MatchTier            `json:"tier"`
	Quantity decimal.Decimal      `json:"quantity"`
	Written  bool                 `json:"written"`
}

// ResolveSemiFinished fills the semi-finished WIP column. For every rule that
// names a semi-finished product the WIP quantity is looked up under the new
// spec/wafer first, then the old spec/wafer, else 0, and written to the row of
// the rule's new identity. New identities without a summary row are returned.
// A later rule for the same identity overwrites an earlier one.
func ResolveSemiFinished(
	s *Summary,
	rules repositories.MappingRepository,
	wip repositories.WIPRepository,
) (*entities.KeySet, []Resolution) {
	unmatched := entities.NewKeySet()

	col := s.Table.ColumnIndex(SemiFinishedColumn)
	if col < 0 {
		s.addColumns([]string{SemiFinishedColumn}, entities.Number(decimal.Zero))
		col = len(s.Table.Columns) - 1
	}

	var resolutions []Resolution
	for _, rule := range rules.GetSemiFinishedRules() {
		tier, qty := lookupSemiFinished(rule, wip)
		res := Resolution{Rule: *rule, Tier: tier, Quantity: qty}

		if row, ok := s.Row(rule.New); ok {
			s.Table.Rows[row][col] = entities.Number(qty)
			res.Written = true
		} else {
			unmatched.Add(rule.New)
		}
		resolutions = append(resolutions, res)
	}
	return unmatched, resolutions
}

func lookupSemiFinished(rule *entities.MappingRule, wip repositories.WIPRepository) (MatchTier, decimal.Decimal) {
	candidates := []struct {
		tier MatchTier
		key  entities.CompositeKey
	}{
		{MatchNew, entities.CompositeKey{Wafer: rule.New.Wafer, Spec: rule.New.Spec, Part: rule.SemiFinished}},
		{MatchOld, entities.CompositeKey{Wafer: rule.Old.Wafer, Spec: rule.Old.Spec, Part: rule.SemiFinished}},
	}
	for _, c := range candidates {
		if c.key.Wafer == "" && c.key.Spec == "" {
			continue
		}
		if qty, ok := wip.Quantity(c.key); ok {
			return c.tier, qty
		}
	}
	return MatchNone, decimal.Zero
}
