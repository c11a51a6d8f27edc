// Package config loads supervisor configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI needs to assemble a step controller.
type Config struct {
	// Model is the Anthropic model id for the decision collaborator.
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key. The key
	// itself never lives in the config file.
	APIKeyEnv string `yaml:"api_key_env"`
	// TokenBudget is the context budget for the pre-check; 0 means default.
	TokenBudget int `yaml:"token_budget"`
	// ArchiveDBPath is the SQLite archive location.
	ArchiveDBPath string `yaml:"archive_db_path"`
	// AuditLogDir is where interaction JSONL mirrors are written.
	AuditLogDir string `yaml:"audit_log_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:         "claude-sonnet-4-20250514",
		APIKeyEnv:     "ANTHROPIC_API_KEY",
		TokenBudget:   0,
		ArchiveDBPath: ".replicator/archive.db",
		AuditLogDir:   ".replicator/interactions",
	}
}

// Load reads the config file at path, layering it over the defaults. A
// missing file is not an error; defaults apply. Environment variables
// REPLICATOR_MODEL and REPLICATOR_ARCHIVE_DB override both.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if model := os.Getenv("REPLICATOR_MODEL"); model != "" {
		cfg.Model = model
	}
	if db := os.Getenv("REPLICATOR_ARCHIVE_DB"); db != "" {
		cfg.ArchiveDBPath = db
	}

	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	return cfg, nil
}

// APIKey resolves the configured API key, or "" when unset.
func (c *Config) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}
