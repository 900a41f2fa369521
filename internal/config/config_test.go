// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.Epsilon != 0.30 {
		t.Errorf("Recommend.Epsilon = %v, want 0.30", cfg.Recommend.Epsilon)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitPerMinute = -1 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"bad epsilon", func(c *Config) { c.Recommend.Epsilon = 2.0 }},
		{"zero llm timeout", func(c *Config) { c.LLM.Timeout = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"MOODFLICK_SERVER__PORT", "server.port"},
		{"MOODFLICK_RECOMMEND__MAX_CANDIDATES", "recommend.max_candidates"},
		{"MOODFLICK_LLM__API_KEY", "llm.api_key"},
		{"MOODFLICK_CONFIG_PATH", ""},
	}

	for _, tt := range tests {
		tt := tt
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Load reads process-wide environment, so these cases run sequentially
// in one test.
func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
database:
  path: ` + filepath.Join(dir, "moodflick.db") + `
recommend:
  epsilon: 0.5
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("MOODFLICK_SERVER__PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env beats file)", cfg.Server.Port)
	}
	if cfg.Recommend.Epsilon != 0.5 {
		t.Errorf("Recommend.Epsilon = %v, want 0.5 (file beats defaults)", cfg.Recommend.Epsilon)
	}
	if cfg.Recommend.MaxCandidates != 500 {
		t.Errorf("Recommend.MaxCandidates = %d, want default 500", cfg.Recommend.MaxCandidates)
	}
}
