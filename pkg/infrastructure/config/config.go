// Package config loads the report configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/opsreport/pkg/application/services/pivot"
	"github.com/vsinha/opsreport/pkg/application/services/summary"
	"github.com/vsinha/opsreport/pkg/domain/entities"
)

// Config holds all opsreport configuration.
type Config struct {
	// Input discovery
	InputDir string `yaml:"input_dir"`
	Encoding string `yaml:"encoding"` // auto, utf-8, gbk (CSV only)

	// CutoffMonth ("YYYY-MM") folds earlier order months into history columns
	CutoffMonth string `yaml:"cutoff_month"`

	Output  OutputConfig    `yaml:"output"`
	Labels  pivot.Labels    `yaml:"labels"`
	Summary summary.Options `yaml:"summary"`
	Sources []SourceConfig  `yaml:"sources"`
	Logging LoggingConfig   `yaml:"logging"`
}

// OutputConfig configures the report artifact.
type OutputConfig struct {
	Path   string `yaml:"path"` // empty: opsreport_<timestamp>.<format> in the working directory
	Format string `yaml:"format"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json, console
}

// SourceConfig declares one extract.
type SourceConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"` // file names or stems that resolve to this source
	Sheet   string   `yaml:"sheet,omitempty"`   // output sheet name; defaults to the first alias stem
	// Pivot is nil for auxiliary sources written through unchanged
	Pivot *entities.PivotSchema `yaml:"pivot,omitempty"`
	// Fields names the key columns; sources without fields are never remapped
	Fields entities.FieldMap `yaml:"fields,omitempty"`
	Remap  bool              `yaml:"remap"`
}

// Output formats
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatXLSX, FormatJSON}

// ValidEncodings lists the supported CSV encodings.
var ValidEncodings = []string{"auto", "utf-8", "gbk"}

var cutoffPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// DefaultConfig returns the configuration of the standard extract set.
func DefaultConfig() *Config {
	return &Config{
		InputDir: ".",
		Encoding: "auto",
		Output: OutputConfig{
			Format: FormatXLSX,
		},
		Labels:  pivot.DefaultLabels(),
		Summary: summary.DefaultOptions(),
		Sources: DefaultSources(),
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// DefaultSources returns the pivot schemas and field maps of the standard extracts.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:    entities.SourceUnfulfilledOrders,
			Aliases: []string{"赛卓-未交订单.xlsx", "weijiaodindan.xlsx"},
			Sheet:   "赛卓-未交订单",
			Pivot: &entities.PivotSchema{
				Index:       []string{"晶圆品名", "规格", "品名"},
				ColumnField: "预交货日",
				DateFormat:  "2006-01",
				Values:      []string{"订单数量", "未交订单数量"},
				AggFunc:     entities.AggSum,
			},
			Fields: entities.FieldMap{Wafer: "晶圆品名", Spec: "规格", Part: "品名"},
			Remap:  true,
		},
		{
			Name:    entities.SourceFinishedProducts,
			Aliases: []string{"赛卓-成品在制.xlsx", "chengpinzaizhi.xlsx"},
			Sheet:   "赛卓-成品在制",
			Pivot: &entities.PivotSchema{
				Index:       []string{"工作中心", "封装形式", "晶圆型号", "产品规格", "产品品名"},
				ColumnField: "预计完工日期",
				DateFormat:  "2006-01",
				Values:      []string{"未交"},
				AggFunc:     entities.AggSum,
			},
			Fields: entities.FieldMap{Wafer: "晶圆型号", Spec: "产品规格", Part: "产品品名"},
			Remap:  true,
		},
		{
			Name:    entities.SourceCPWIP,
			Aliases: []string{"赛卓-CP在制.xlsx", "CPzaizhi.xlsx"},
			Sheet:   "赛卓-CP在制",
			Pivot: &entities.PivotSchema{
				Index:       []string{"晶圆型号", "产品品名"},
				ColumnField: "预计完工日期",
				DateFormat:  "2006-01",
				Values:      []string{"未交"},
				AggFunc:     entities.AggSum,
			},
		},
		{
			Name:    entities.SourceFinishedInventory,
			Aliases: []string{"赛卓-成品库存.xlsx", "chengpinkucun.xlsx"},
			Sheet:   "赛卓-成品库存",
			Pivot: &entities.PivotSchema{
				Index:       []string{"WAFER品名", "规格", "品名"},
				ColumnField: "仓库名称",
				Values:      []string{"数量"},
				AggFunc:     entities.AggSum,
			},
			Fields: entities.FieldMap{Wafer: "WAFER品名", Spec: "规格", Part: "品名"},
			Remap:  true,
		},
		{
			Name:    entities.SourceWaferInventory,
			Aliases: []string{"赛卓-晶圆库存.xlsx", "jingyuankucun.xlsx"},
			Sheet:   "赛卓-晶圆库存",
			Pivot: &entities.PivotSchema{
				Index:       []string{"WAFER品名", "规格"},
				ColumnField: "仓库名称",
				Values:      []string{"数量"},
				AggFunc:     entities.AggSum,
			},
		},
		{
			Name:    entities.SourceForecast,
			Aliases: []string{"赛卓-预测.xlsx"},
			Sheet:   "赛卓-预测",
			Fields:  entities.FieldMap{Wafer: "晶圆品名", Spec: "产品型号", Part: "ProductionNO."},
		},
		{
			Name:    entities.SourceSafetyStock,
			Aliases: []string{"赛卓-安全库存.xlsx"},
			Sheet:   "赛卓-安全库存",
			Fields:  entities.FieldMap{Wafer: "WaferID", Spec: "OrderInformation", Part: "ProductionNO."},
		},
		{
			Name:    entities.SourceMapping,
			Aliases: []string{"赛卓-新旧料号.xlsx"},
			Sheet:   "赛卓-新旧料号",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Labels = cfg.Labels.WithDefaults()
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if month := os.Getenv("OPSREPORT_CUTOFF_MONTH"); month != "" {
		c.CutoffMonth = month
	}
	if dir := os.Getenv("OPSREPORT_INPUT_DIR"); dir != "" {
		c.InputDir = dir
	}
}

// Source returns the configuration of a named source.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Aliases returns the alias table: source name -> aliases.
func (c *Config) Aliases() map[string][]string {
	out := make(map[string][]string, len(c.Sources))
	for _, s := range c.Sources {
		out[s.Name] = s.Aliases
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CutoffMonth != "" && !cutoffPattern.MatchString(c.CutoffMonth) {
		return fmt.Errorf("invalid cutoff_month: %q (expected YYYY-MM)", c.CutoffMonth)
	}
	if !contains(ValidFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, ValidFormats)
	}
	if !contains(ValidEncodings, c.Encoding) {
		return fmt.Errorf("invalid encoding: %s (valid: %v)", c.Encoding, ValidEncodings)
	}

	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source without name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source: %s", s.Name)
		}
		seen[s.Name] = true

		if s.Pivot != nil {
			if err := s.Pivot.Validate(); err != nil {
				return fmt.Errorf("source %s: %w", s.Name, err)
			}
		}
		if s.Remap && s.Fields.IsZero() {
			return fmt.Errorf("source %s: remap requires fields", s.Name)
		}
	}

	if _, ok := c.Source(entities.SourceUnfulfilledOrders); !ok {
		return fmt.Errorf("source %s must be configured", entities.SourceUnfulfilledOrders)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
