package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/application/services/orchestration"
	"github.com/vsinha/opsreport/pkg/infrastructure/config"
	"github.com/vsinha/opsreport/pkg/infrastructure/repositories/extract"
	"github.com/vsinha/opsreport/pkg/interfaces/cli/output"
)

// DefaultReportName is the stem of generated report files
const DefaultReportName = "运营数据订单-在制-库存汇总报告"

// Config holds configuration for the report command. Empty fields keep the
// value from the config file.
type Config struct {
	InputDir    string
	Files       []string // explicit source=path pairs
	Output      string
	Format      string
	CutoffMonth string
	Encoding    string
	Verbose     bool
}

// ReportCommand handles one report run from the command line
type ReportCommand struct {
	config Config
	cfg    *config.Config
	logger *zap.Logger
}

// NewReportCommand creates a new report command
func NewReportCommand(c Config, cfg *config.Config, logger *zap.Logger) *ReportCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCommand{config: c, cfg: cfg, logger: logger}
}

// Execute runs the report command
func (c *ReportCommand) Execute(ctx context.Context) error {
	c.applyOverrides()
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	inputs, err := c.resolveInputFiles()
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no extracts found in %q", c.cfg.InputDir)
	}

	loader := extract.NewLoader(extract.Options{Encoding: c.cfg.Encoding}, c.logger)
	orchestrator := orchestration.NewReportOrchestrator(c.cfg, loader, c.logger)

	startTime := time.Now()
	result, err := orchestrator.RunReport(ctx, inputs)
	if err != nil {
		return fmt.Errorf("report run failed: %w", err)
	}
	elapsed := time.Since(startTime)

	outputConfig := output.Config{
		Format:  c.cfg.Output.Format,
		Path:    c.outputPath(startTime),
		Verbose: c.config.Verbose,
		Elapsed: elapsed,
	}
	if err := output.Generate(result, outputConfig, c.logger); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

func (c *ReportCommand) applyOverrides() {
	if c.config.InputDir != "" {
		c.cfg.InputDir = c.config.InputDir
	}
	if c.config.Output != "" {
		c.cfg.Output.Path = c.config.Output
	}
	if c.config.Format != "" {
		c.cfg.Output.Format = c.config.Format
	}
	if c.config.CutoffMonth != "" {
		c.cfg.CutoffMonth = c.config.CutoffMonth
	}
	if c.config.Encoding != "" {
		c.cfg.Encoding = c.config.Encoding
	}
}

// resolveInputFiles discovers extracts in the input directory; explicit
// files override discovered ones
func (c *ReportCommand) resolveInputFiles() (map[string]string, error) {
	inputs := make(map[string]string)

	if c.cfg.InputDir != "" {
		discovery, err := extract.Discover(c.cfg.InputDir, c.cfg.Aliases())
		if err != nil {
			return nil, err
		}
		for source, path := range discovery.Sources {
			inputs[source] = path
		}
		for _, name := range discovery.Unconfigured {
			c.logger.Warn("Ignoring unrecognized extract", zap.String("file", name))
		}
		for _, name := range discovery.Duplicates {
			c.logger.Warn("Ignoring duplicate extract", zap.String("file", name))
		}
	}

	for _, pair := range c.config.Files {
		source, path, ok := strings.Cut(pair, "=")
		if !ok || source == "" || path == "" {
			return nil, fmt.Errorf("invalid --file %q (expected source=path)", pair)
		}
		inputs[source] = path
	}

	for _, source := range sortedKeys(inputs) {
		if _, err := os.Stat(inputs[source]); err != nil {
			return nil, fmt.Errorf("%s file not found: %s", source, inputs[source])
		}
		c.logger.Debug("Input resolved", zap.String("source", source), zap.String("path", inputs[source]))
	}
	return inputs, nil
}

// outputPath returns the configured path or a timestamped default; JSON
// without a path goes to stdout
func (c *ReportCommand) outputPath(now time.Time) string {
	if c.cfg.Output.Path != "" {
		return c.cfg.Output.Path
	}
	if c.cfg.Output.Format == config.FormatJSON {
		return ""
	}
	name := fmt.Sprintf("%s_%s.%s", DefaultReportName, now.Format("20060102_150405"), c.cfg.Output.Format)
	return filepath.Join(".", name)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
