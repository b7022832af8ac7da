package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	StateDir       string
	Debug          bool
	JSONLogs       bool
}

// fileConfig mirrors the optional YAML config file. Environment variables
// override anything set here.
type fileConfig struct {
	APIBaseURL     string `yaml:"api_base_url"`
	RequestTimeout string `yaml:"request_timeout"`
	StateDir       string `yaml:"state_dir"`
	Debug          bool   `yaml:"debug"`
	JSONLogs       bool   `yaml:"json_logs"`
}

// Load loads configuration from the config file (if present) and
// environment variables, env taking precedence.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:     "http://localhost:8000",
		RequestTimeout: 30 * time.Second,
		StateDir:       defaultStateDir(),
	}

	path := getEnv("TASKMASTER_CONFIG", filepath.Join(cfg.StateDir, "config.yaml"))
	if err := applyFile(cfg, path); err != nil {
		return nil, err
	}

	cfg.APIBaseURL = getEnv("TASKMASTER_API_URL", cfg.APIBaseURL)
	cfg.StateDir = getEnv("TASKMASTER_STATE_DIR", cfg.StateDir)
	cfg.Debug = getEnvBool("TASKMASTER_DEBUG", cfg.Debug)
	cfg.JSONLogs = getEnvBool("TASKMASTER_JSON_LOGS", cfg.JSONLogs)
	if v := os.Getenv("TASKMASTER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TASKMASTER_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if cfg.StateDir == "" {
		return nil, fmt.Errorf("state directory is required")
	}

	return cfg, nil
}

// SessionPath returns the location of the durable session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.json")
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.StateDir != "" {
		cfg.StateDir = fc.StateDir
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout in %s: %w", path, err)
		}
		cfg.RequestTimeout = d
	}
	cfg.Debug = fc.Debug
	cfg.JSONLogs = fc.JSONLogs

	return nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskmaster")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskmaster"
	}
	return filepath.Join(home, ".taskmaster")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
