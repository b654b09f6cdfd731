package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	orders, ok := cfg.Source(entities.SourceUnfulfilledOrders)
	require.True(t, ok)
	assert.Equal(t, "预交货日", orders.Pivot.ColumnField)
	assert.Equal(t, []string{"订单数量", "未交订单数量"}, orders.Pivot.Values)
	assert.True(t, orders.Remap)

	stock, ok := cfg.Source(entities.SourceFinishedInventory)
	require.True(t, ok)
	assert.Empty(t, stock.Pivot.DateFormat, "warehouse pivot is categorical")

	assert.Equal(t, "历史未交订单数量", cfg.Labels.HistoricalUnfulfilled)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("OPSREPORT_CUTOFF_MONTH", "")
	t.Setenv("OPSREPORT_INPUT_DIR", "")

	path := filepath.Join(t.TempDir(), "opsreport.yaml")

	cfg := DefaultConfig()
	cfg.CutoffMonth = "2025-02"
	cfg.Output.Format = FormatJSON
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-02", loaded.CutoffMonth)
	assert.Equal(t, FormatJSON, loaded.Output.Format)
	assert.Len(t, loaded.Sources, len(cfg.Sources))

	wip, ok := loaded.Source(entities.SourceFinishedProducts)
	require.True(t, ok)
	assert.Equal(t, "晶圆型号", wip.Fields.Wafer)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("OPSREPORT_CUTOFF_MONTH", "")
	t.Setenv("OPSREPORT_INPUT_DIR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Sources, cfg.Sources)
}

func TestLoad_PartialLabelsKeepDefaults(t *testing.T) {
	t.Setenv("OPSREPORT_CUTOFF_MONTH", "")
	t.Setenv("OPSREPORT_INPUT_DIR", "")

	path := filepath.Join(t.TempDir(), "opsreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  unknown_bucket: unknown\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "unknown", cfg.Labels.UnknownBucket)
	assert.Equal(t, "未交订单数量", cfg.Labels.UnfulfilledMarker)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPSREPORT_CUTOFF_MONTH", "2025-06")
	t.Setenv("OPSREPORT_INPUT_DIR", "/data/extracts")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "2025-06", cfg.CutoffMonth)
	assert.Equal(t, "/data/extracts", cfg.InputDir)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"valid_cutoff", func(c *Config) { c.CutoffMonth = "2025-12" }, false},
		{"bad_cutoff_month", func(c *Config) { c.CutoffMonth = "2025-13" }, true},
		{"bad_cutoff_format", func(c *Config) { c.CutoffMonth = "2025/02" }, true},
		{"bad_format", func(c *Config) { c.Output.Format = "csv" }, true},
		{"bad_encoding", func(c *Config) { c.Encoding = "latin1" }, true},
		{"duplicate_source", func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) }, true},
		{"remap_without_fields", func(c *Config) {
			c.Sources[0].Fields = entities.FieldMap{}
		}, true},
		{"bad_schema", func(c *Config) { c.Sources[0].Pivot.AggFunc = "mean" }, true},
		{"missing_anchor", func(c *Config) { c.Sources = c.Sources[1:] }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
