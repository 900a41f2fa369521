// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package config loads layered configuration: built-in defaults, an
// optional YAML file, then MOODFLICK_-prefixed environment variables,
// each layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/okhomenko/moodflick/internal/llm"
	"github.com/okhomenko/moodflick/internal/logging"
	"github.com/okhomenko/moodflick/internal/recommend"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moodflick/config.yaml",
	"/etc/moodflick/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "MOODFLICK_CONFIG_PATH"

// envPrefix namespaces all configuration environment variables.
const envPrefix = "MOODFLICK_"

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host" json:"host"`
	Port            int           `koanf:"port" json:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`

	// RateLimitPerMinute caps requests per client IP; 0 disables.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// DatabaseConfig controls SQLite persistence.
type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" for ephemeral.
	Path string `koanf:"path" json:"path"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server" json:"server"`
	Database  DatabaseConfig   `koanf:"database" json:"database"`
	Recommend recommend.Config `koanf:"recommend" json:"recommend"`
	LLM       llm.Config       `koanf:"llm" json:"llm"`
	Logging   logging.Config   `koanf:"logging" json:"logging"`
}

// defaultConfig returns all built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    15 * time.Second,
			RateLimitPerMinute: 120,
		},
		Database: DatabaseConfig{
			Path: "/data/moodflick.db",
		},
		Recommend: recommend.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Logging:   logging.DefaultConfig(),
	}
}

// Load builds configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
//
// Environment variables use the MOODFLICK_ prefix with double
// underscores for nesting: MOODFLICK_SERVER__PORT sets server.port,
// MOODFLICK_RECOMMEND__MAX_CANDIDATES sets recommend.max_candidates.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative, got %d", c.Server.RateLimitPerMinute)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps MOODFLICK_SECTION__KEY_NAME to section.key_name.
// The config path variable is excluded; it is read directly.
func envTransform(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	if key == "CONFIG_PATH" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}
