package repositories

import "github.com/vsinha/opsreport/pkg/domain/entities"

// ExtractRepository reads one extract file into a table
type ExtractRepository interface {
	Load(source, path string) (*entities.Table, error)
}
