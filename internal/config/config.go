// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// WatchConfig wires a watched folder to a pipeline for automatic ingestion.
type WatchConfig struct {
	Dir        string `yaml:"dir"`
	PipelineID string `yaml:"pipeline_id"`
}

// Config is the root application configuration.
type Config struct {
	ListenAddr     string      `yaml:"listen_addr"`
	DataDir        string      `yaml:"data_dir"`
	ModelServerURL string      `yaml:"model_server_url"`
	LogLevel       string      `yaml:"log_level"`
	Watch          WatchConfig `yaml:"watch"`
}

// Load reads the config at path. A missing file yields defaults; environment
// variables override file values either way.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddr:     ":8090",
		DataDir:        "./data",
		ModelServerURL: "http://localhost:11434",
		LogLevel:       "info",
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RAGDESK_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("RAGDESK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("RAGDESK_MODEL_SERVER_URL"); v != "" {
		cfg.ModelServerURL = v
	}
	if v := os.Getenv("RAGDESK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	def := defaults()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.ModelServerURL == "" {
		cfg.ModelServerURL = def.ModelServerURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}
