// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.MinViews != 5 {
		t.Errorf("MinViews = %d, want 5", cfg.MinViews)
	}
	if cfg.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", cfg.MaxResults)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative min views", func(c *Config) { c.MinViews = -1 }},
		{"zero history window", func(c *Config) { c.HistoryWindow = 0 }},
		{"exclusion smaller than history", func(c *Config) { c.ExclusionWindow = c.HistoryWindow - 1 }},
		{"zero max candidates", func(c *Config) { c.MaxCandidates = 0 }},
		{"zero max results", func(c *Config) { c.MaxResults = 0 }},
		{"zero top categories", func(c *Config) { c.TopCategories = 0 }},
		{"zero top keywords", func(c *Config) { c.TopKeywords = 0 }},
		{"zero token length", func(c *Config) { c.MinTokenLength = 0 }},
		{"zero cache ttl", func(c *Config) { c.CacheTTL = 0 }},
		{"zero store timeout", func(c *Config) { c.StoreTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.MinViews = 99
	clone.Breaker.Enabled = false

	if cfg.MinViews == 99 {
		t.Error("mutating the clone changed the original")
	}
	if !cfg.Breaker.Enabled {
		t.Error("mutating the clone's breaker changed the original")
	}
}
