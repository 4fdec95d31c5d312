// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package services

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/wishlane/wishlane/internal/metrics"
)

// ValueLogGC matches the store's garbage collection hook.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// GCService periodically runs Badger value log garbage collection. Badger
// never reclaims value log space on its own, so a ticker drives it.
type GCService struct {
	store        ValueLogGC
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewGCService creates the garbage collection service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGCService(store ValueLogGC, interval time.Duration, discardRatio float64, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &GCService{
		store:        store,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "store-gc").Logger(),
	}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.runOnce()
		}
	}
}

// runOnce runs GC repeatedly until there is nothing left to rewrite. One
// call rewrites at most one value log file.
func (g *GCService) runOnce() {
	rewritten := 0
	for {
		err := g.store.RunValueLogGC(g.discardRatio)
		if err == nil {
			rewritten++
			metrics.RecordStoreGC("rewritten")
			continue
		}
		if errors.Is(err, badger.ErrNoRewrite) {
			if rewritten == 0 {
				metrics.RecordStoreGC("noop")
			}
			g.logger.Debug().Int("rewritten", rewritten).Msg("value log GC pass complete")
			return
		}
		metrics.RecordStoreGC("error")
		g.logger.Warn().Err(err).Msg("value log GC failed")
		return
	}
}

// String identifies the service in supervisor logs.
func (g *GCService) String() string {
	return "store-gc"
}
