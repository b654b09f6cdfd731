// Package extract reads tabular extracts (XLSX and CSV) into tables and
// resolves extract files to configured sources.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

// ErrUnsupportedFormat is returned for files that are neither XLSX nor CSV
var ErrUnsupportedFormat = errors.New("unsupported extract format")

// Options configures extract loading
type Options struct {
	// Encoding of CSV files: auto, utf-8 or gbk
	Encoding string
}

// Loader handles loading extracts from disk
type Loader struct {
	opts   Options
	logger *zap.Logger
}

// NewLoader creates a new extract loader
func NewLoader(opts Options, logger *zap.Logger) *Loader {
	if opts.Encoding == "" {
		opts.Encoding = EncodingAuto
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{opts: opts, logger: logger}
}

// Load reads the first sheet of an XLSX file or a whole CSV file. The first
// row is the header.
func (l *Loader) Load(name, path string) (*entities.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path)
	case ".csv":
		records, err = readCSV(path, l.opts.Encoding)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	table := toTable(name, records)
	l.logger.Debug("Extract loaded",
		zap.String("source", name),
		zap.String("path", path),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)))
	return table, nil
}

// toTable turns raw records into a table. Blank header cells are named
// "Unnamed: N"; rows with no values are dropped.
func toTable(name string, records [][]string) *entities.Table {
	if len(records) == 0 {
		return entities.NewTable(name, nil)
	}

	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	for i := range header {
		if i < len(records[0]) {
			header[i] = strings.TrimSpace(records[0][i])
		}
		if header[i] == "" {
			header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	table := entities.NewTable(name, header)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		cells := make([]entities.Cell, len(record))
		for i, raw := range record {
			cells[i] = entities.ParseCell(raw)
		}
		table.AppendRow(cells)
	}
	return table
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
