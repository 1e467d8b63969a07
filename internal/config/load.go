package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns ~/.lastsignal/config.yaml, or config.toml when only
// the TOML file exists.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".lastsignal")

	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}
	tomlPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	return yamlPath, nil
}

// LoadConfig loads configuration from path, or from DefaultPath when path is
// empty. It applies defaults, then a sibling .env file, then file values with
// ${VAR} expansion, then environment overrides, then validates.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	// 1. Secrets from .env next to the config file (never overrides the environment)
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	// 2. Config file is required: outputs have no defaults
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// 3. Expand ${VAR} references and decode over the defaults
	cfg := DefaultConfig()
	if err := decode(path, []byte(ExpandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// 4. Environment overrides
	applyEnvOverrides(cfg)

	// 5. Validate
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// decode reads YAML directly. TOML is converted to a generic tree and
// re-encoded as YAML so both formats share one set of struct tags and the
// same duration parsing.
func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return err
		}
		if data, err = yaml.Marshal(tree.ToMap()); err != nil {
			return fmt.Errorf("normalise toml: %w", err)
		}
	}
	return yaml.Unmarshal(data, cfg)
}
