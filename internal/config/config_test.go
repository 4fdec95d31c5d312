// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"shutdown timeout zero", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"missing storage path", func(c *Config) { c.Storage.Path = "" }},
		{"gc interval zero", func(c *Config) { c.Storage.GCInterval = 0 }},
		{"gc ratio too high", func(c *Config) { c.Storage.GCDiscardRatio = 1.0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"rate limit zero", func(c *Config) { c.API.RateLimitRequests = 0 }},
		{"rate limit window zero", func(c *Config) { c.API.RateLimitWindow = 0 }},
		{"engine min views negative", func(c *Config) { c.Engine.MinViews = -1 }},
		{"viewstream buffer negative", func(c *Config) { c.ViewStream.OutputChannelBuffer = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestInMemoryStorageNeedsNoPath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Storage.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"WISHLANE_SERVER_PORT", "server.port"},
		{"WISHLANE_ENGINE_MIN_VIEWS", "engine.min_views"},
		{"WISHLANE_API_CORS_ORIGINS", "api.cors_origins"},
		{"WISHLANE_STORAGE_GC_DISCARD_RATIO", "storage.gc_discard_ratio"},
		{"WISHLANE_CONFIG_PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.env); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("WISHLANE_SERVER_PORT", "9090")
	t.Setenv("WISHLANE_ENGINE_MIN_VIEWS", "7")
	t.Setenv("WISHLANE_API_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WISHLANE_STORAGE_IN_MEMORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Engine.MinViews != 7 {
		t.Errorf("Engine.MinViews = %d, want 7", cfg.Engine.MinViews)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[0] != "https://a.example" {
		t.Errorf("API.CORSOrigins = %v", cfg.API.CORSOrigins)
	}
	if !cfg.Storage.InMemory {
		t.Error("Storage.InMemory = false, want true")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 3000
engine:
  cache_ttl: 1h
storage:
  in_memory: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WISHLANE_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Engine.CacheTTL != time.Hour {
		t.Errorf("Engine.CacheTTL = %s, want 1h", cfg.Engine.CacheTTL)
	}
	// Untouched sections keep their defaults.
	if cfg.Engine.MinViews != Default().Engine.MinViews {
		t.Errorf("Engine.MinViews = %d, want default", cfg.Engine.MinViews)
	}
}

func TestListenAddr(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8081
	if got := cfg.ListenAddr(); got != "127.0.0.1:8081" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:8081", got)
	}
}
