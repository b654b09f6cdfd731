package repositories

import "github.com/vsinha/opsreport/pkg/domain/entities"

// MappingRepository provides access to old -> new identity rules
type MappingRepository interface {
	LoadRules(rules []*entities.MappingRule) error
	// FindByOldKey returns the rule registered for a stale identity
	FindByOldKey(key entities.CompositeKey) (*entities.MappingRule, bool)
	GetAllRules() []*entities.MappingRule
	// GetSemiFinishedRules returns rules that name a semi-finished product, in load order
	GetSemiFinishedRules() []*entities.MappingRule
}
