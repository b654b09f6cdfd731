// Package output renders report results as a workbook, JSON or a terminal summary.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/application/dto"
	"github.com/vsinha/opsreport/pkg/infrastructure/config"
)

// Config holds configuration for output generation
type Config struct {
	Format  string
	Path    string // workbook or JSON file; empty JSON path means stdout
	Verbose bool
	Elapsed time.Duration
	Stdout  io.Writer
}

// Generate writes the result in the configured format and prints the run
// summary to Stdout
func Generate(result *dto.ReportResult, cfg Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	switch cfg.Format {
	case config.FormatXLSX, "":
		if cfg.Path == "" {
			return fmt.Errorf("output path required for %s format", config.FormatXLSX)
		}
		if err := NewWorkbookWriter(logger).Write(result, cfg.Path); err != nil {
			return err
		}
	case config.FormatJSON:
		if err := generateJSONOutput(result, cfg); err != nil {
			return err
		}
		if cfg.Path == "" {
			// stdout carries the JSON document
			return nil
		}
	default:
		return fmt.Errorf("unsupported output format: %s", cfg.Format)
	}

	PrintReport(cfg.Stdout, result, cfg)
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.ReportResult, cfg Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if cfg.Path == "" {
		fmt.Fprintln(cfg.Stdout, string(jsonData))
		return nil
	}

	if err := ensureDir(cfg.Path); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
