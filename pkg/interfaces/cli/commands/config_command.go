package commands

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/opsreport/pkg/infrastructure/config"
)

// InitConfig writes the default configuration to path. An existing file is
// kept unless force is set.
func InitConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
	}
	return config.DefaultConfig().Save(path)
}

// ShowConfig prints the effective configuration as YAML
func ShowConfig(w io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
