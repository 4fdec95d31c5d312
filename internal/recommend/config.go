// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package recommend

import (
	"fmt"
	"time"
)

// Config contains all tunables for the recommendation engine. Every
// threshold that shapes behavior is explicit here rather than a literal in
// the code, so it can be tuned and tested without code changes.
type Config struct {
	// MinViews is the total number of recorded views (duplicates included)
	// a viewer needs before recommendations are attempted. Below this the
	// engine reports insufficient signal without touching the catalog.
	// Default: 5.
	MinViews int `json:"min_views" koanf:"min_views"`

	// HistoryWindow is how many of the viewer's most recent views feed the
	// preference analysis.
	// Default: 20.
	HistoryWindow int `json:"history_window" koanf:"history_window"`

	// ExclusionWindow is how many recent views are used to exclude
	// already-seen items from the candidate pool. Must be >= HistoryWindow.
	// Default: 500.
	ExclusionWindow int `json:"exclusion_window" koanf:"exclusion_window"`

	// MaxCandidates caps the candidate pool fetched from the catalog for
	// bounded ranking latency.
	// Default: 100.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// MaxResults is the maximum number of items in a ranked result.
	// Default: 10.
	MaxResults int `json:"max_results" koanf:"max_results"`

	// TopCategories is the number of category labels kept in a profile.
	// Default: 3.
	TopCategories int `json:"top_categories" koanf:"top_categories"`

	// TopKeywords is the number of keyword tokens kept in a profile.
	// Default: 10.
	TopKeywords int `json:"top_keywords" koanf:"top_keywords"`

	// MinTokenLength is the minimum rune length for a token to count as a
	// keyword. Shorter tokens are discarded, which cheaply filters stop
	// words and fragments without a stop-word list.
	// Default: 4.
	MinTokenLength int `json:"min_token_length" koanf:"min_token_length"`

	// CacheTTL is how long a computed result stays fresh. Expiration is
	// fixed, not sliding, and new views do not invalidate a fresh entry.
	// Default: 24h.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// StoreTimeout bounds each collaborator store call so the synchronous
	// request path cannot hang indefinitely.
	// Default: 5s.
	StoreTimeout time.Duration `json:"store_timeout" koanf:"store_timeout"`

	// Breaker configures the circuit breaker around store calls.
	Breaker BreakerConfig `json:"breaker" koanf:"breaker"`
}

// BreakerConfig contains circuit breaker parameters for collaborator I/O.
type BreakerConfig struct {
	// Enabled controls whether store calls pass through the breaker.
	// Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// MaxRequests is the number of probe requests allowed while half-open.
	// Default: 3.
	MaxRequests uint32 `json:"max_requests" koanf:"max_requests"`

	// Interval is the cyclic period for clearing failure counts while
	// closed. Default: 60s.
	Interval time.Duration `json:"interval" koanf:"interval"`

	// OpenTimeout is how long the breaker stays open before probing.
	// Default: 30s.
	OpenTimeout time.Duration `json:"open_timeout" koanf:"open_timeout"`

	// ConsecutiveFailures trips the breaker once reached.
	// Default: 5.
	ConsecutiveFailures uint32 `json:"consecutive_failures" koanf:"consecutive_failures"`
}

// DefaultConfig returns a Config with the reference behavior: a threshold of
// five views, a 20-view analysis window, a pool of 100 candidates, ten
// results and a 24 hour TTL.
func DefaultConfig() *Config {
	return &Config{
		MinViews:        5,
		HistoryWindow:   20,
		ExclusionWindow: 500,
		MaxCandidates:   100,
		MaxResults:      10,
		TopCategories:   3,
		TopKeywords:     10,
		MinTokenLength:  4,
		CacheTTL:        24 * time.Hour,
		StoreTimeout:    5 * time.Second,
		Breaker: BreakerConfig{
			Enabled:             true,
			MaxRequests:         3,
			Interval:            60 * time.Second,
			OpenTimeout:         30 * time.Second,
			ConsecutiveFailures: 5,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MinViews < 0 {
		return fmt.Errorf("min_views must be non-negative, got %d", c.MinViews)
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history_window must be positive, got %d", c.HistoryWindow)
	}
	if c.ExclusionWindow < c.HistoryWindow {
		return fmt.Errorf("exclusion_window must be >= history_window, got %d < %d", c.ExclusionWindow, c.HistoryWindow)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be positive, got %d", c.MaxCandidates)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be positive, got %d", c.MaxResults)
	}
	if c.TopCategories < 1 {
		return fmt.Errorf("top_categories must be positive, got %d", c.TopCategories)
	}
	if c.TopKeywords < 1 {
		return fmt.Errorf("top_keywords must be positive, got %d", c.TopKeywords)
	}
	if c.MinTokenLength < 1 {
		return fmt.Errorf("min_token_length must be positive, got %d", c.MinTokenLength)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", c.CacheTTL)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout must be positive, got %v", c.StoreTimeout)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	// All fields are value types
	out := *c
	return &out
}
