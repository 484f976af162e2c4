// Package yaml loads botline configuration files.
package yaml

import (
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/botline"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors botline.Config; nil fields are absent from the file.
type fileConfig struct {
	BaseURL  *string        `yaml:"base_url"`
	Timeout  *time.Duration `yaml:"timeout"`
	AuthFile *string        `yaml:"auth_file"`
	Provider *string        `yaml:"provider"`
	Model    *string        `yaml:"model"`
}

// LoadConfig reads the YAML file at path, expands ${VAR} references from the
// environment, and overlays its values on botline.DefaultConfig. A missing
// file is reported with an error wrapping fs.ErrNotExist.
func LoadConfig(path string) (botline.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return botline.Config{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig overlays the YAML document in data on botline.DefaultConfig.
func ParseConfig(data []byte) (botline.Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return botline.Config{}, fmt.Errorf("invalid YAML: %w", err)
	}
	cfg := botline.DefaultConfig()
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.Timeout != nil {
		if *fc.Timeout < 0 {
			return botline.Config{}, fmt.Errorf("timeout must not be negative: %s", *fc.Timeout)
		}
		cfg.Timeout = *fc.Timeout
	}
	if fc.AuthFile != nil {
		cfg.AuthFile = *fc.AuthFile
	}
	if fc.Provider != nil {
		cfg.Provider = *fc.Provider
	}
	if fc.Model != nil {
		cfg.Model = *fc.Model
	}
	return cfg, nil
}
