package memory

import (
	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/repositories"
)

// MappingRepository provides in-memory identity rule storage indexed by old key
type MappingRepository struct {
	rules      []entities.MappingRule
	rulesMap   map[entities.CompositeKey]int
	duplicates []entities.CompositeKey
}

// NewMappingRepository creates a new in-memory mapping repository
func NewMappingRepository(expectedRules int) *MappingRepository {
	return &MappingRepository{
		rules:    make([]entities.MappingRule, 0, expectedRules),
		rulesMap: make(map[entities.CompositeKey]int, expectedRules),
	}
}

// Verify interface compliance
var _ repositories.MappingRepository = (*MappingRepository)(nil)

// LoadRules loads rules into the repository
func (r *MappingRepository) LoadRules(rules []*entities.MappingRule) error {
	for _, rule := range rules {
		r.AddRule(*rule)
	}
	return nil
}

// AddRule adds a rule. The first rule for an old key wins the lookup; later
// ones are still listed by GetAllRules.
func (r *MappingRepository) AddRule(rule entities.MappingRule) {
	if _, exists := r.rulesMap[rule.Old]; exists {
		r.duplicates = append(r.duplicates, rule.Old)
	} else {
		r.rulesMap[rule.Old] = len(r.rules)
	}
	r.rules = append(r.rules, rule)
}

// FindByOldKey returns the rule registered for a stale identity
func (r *MappingRepository) FindByOldKey(key entities.CompositeKey) (*entities.MappingRule, bool) {
	index, exists := r.rulesMap[key]
	if !exists {
		return nil, false
	}
	return &r.rules[index], true
}

// GetAllRules returns all rules in load order
func (r *MappingRepository) GetAllRules() []*entities.MappingRule {
	rules := make([]*entities.MappingRule, 0, len(r.rules))
	for i := range r.rules {
		rules = append(rules, &r.rules[i])
	}
	return rules
}

// GetSemiFinishedRules returns rules that name a semi-finished product
func (r *MappingRepository) GetSemiFinishedRules() []*entities.MappingRule {
	var rules []*entities.MappingRule
	for i := range r.rules {
		if r.rules[i].SemiFinished != "" {
			rules = append(rules, &r.rules[i])
		}
	}
	return rules
}

// DuplicateOldKeys lists old keys that appeared more than once
func (r *MappingRepository) DuplicateOldKeys() []entities.CompositeKey {
	return r.duplicates
}
