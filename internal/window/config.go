package window

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML window config. Absent fields fall back to
// DefaultConfig; the result is validated before it is returned.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read window config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse window config: %w", err)
	}
	def := DefaultConfig()
	if cfg.CurrentMonths == 0 {
		cfg.CurrentMonths = def.CurrentMonths
	}
	if cfg.Windows == nil {
		cfg.Windows = def.Windows
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
