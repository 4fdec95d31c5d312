// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// ErrStoreUnavailable is returned when the backing stores are unreachable
// and no cached result exists to fall back on. It is retryable: the caller
// should surface it as a transient failure, not a terminal empty state.
var ErrStoreUnavailable = errors.New("recommendation stores unavailable")

// Stores bundles the collaborator interfaces the engine consumes.
// Behavior, Catalog and Recommendations are required; Profiles is optional
// and may be nil, in which case the engine runs on behavioral signal alone.
type Stores struct {
	Behavior        BehaviorStore
	Catalog         CatalogStore
	Profiles        ProfileStore
	Recommendations RecommendationStore
}

// Engine coordinates the view gate, preference analysis, candidate ranking
// and the per-viewer result cache. It is safe for concurrent use.
//
// The engine is invoked synchronously per request; there is no background
// scheduler. Concurrent requests for the same viewer share a single
// recomputation through a per-key singleflight group, and cache writes are
// last-write-wins.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	analyzer *Analyzer

	behavior BehaviorStore
	catalog  CatalogStore
	profiles ProfileStore
	recs     RecommendationStore

	// breaker guards the read path against a flapping backend. Nil when
	// disabled in config.
	breaker *gobreaker.CircuitBreaker[any]
	group   singleflight.Group

	// now is the clock, injectable for tests.
	now func() time.Time

	requestCount   atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	staleFallbacks atomic.Int64
	errorCount     atomic.Int64
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, stores Stores, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if stores.Behavior == nil {
		return nil, fmt.Errorf("behavior store is required")
	}
	if stores.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if stores.Recommendations == nil {
		return nil, fmt.Errorf("recommendation store is required")
	}

	e := &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		analyzer: NewAnalyzer(cfg),
		behavior: stores.Behavior,
		catalog:  stores.Catalog,
		profiles: stores.Profiles,
		recs:     stores.Recommendations,
		now:      time.Now,
	}

	if cfg.Breaker.Enabled {
		failures := cfg.Breaker.ConsecutiveFailures
		e.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        "recommend-stores",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				e.logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		})
	}

	return e, nil
}

// RecordView appends one view event for the viewer. Duplicate views are
// allowed and intentionally inflate signal strength.
//
// Recording is best-effort telemetry, not a critical path: a storage error
// is logged and swallowed so it can never fail the caller's primary flow.
// A fresh view does not invalidate an unexpired cache entry; that staleness
// tolerance is deliberate.
func (e *Engine) RecordView(ctx context.Context, viewerID, itemID string) {
	if viewerID == "" || itemID == "" {
		e.logger.Debug().
			Str("viewer_id", viewerID).
			Str("item_id", itemID).
			Msg("dropping view event with missing identifiers")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	ev := ViewEvent{
		ViewerID: viewerID,
		ItemID:   itemID,
		ViewedAt: e.now().UTC(),
	}
	if err := e.behavior.AppendView(ctx, ev); err != nil {
		e.errorCount.Add(1)
		e.logger.Warn().
			Err(err).
			Str("viewer_id", viewerID).
			Str("item_id", itemID).
			Msg("failed to append view event")
	}
}

// GetRecommendations returns the viewer's recommendations, serving a fresh
// cache entry when one exists and recomputing otherwise.
func (e *Engine) GetRecommendations(ctx context.Context, viewerID string) (*Result, error) {
	return e.getOrCompute(ctx, viewerID, false)
}

// RefreshRecommendations bypasses the freshness check and forces a
// recomputation, overwriting any existing cache entry. The view gate still
// applies: a viewer below the threshold gets insufficient_signal.
func (e *Engine) RefreshRecommendations(ctx context.Context, viewerID string) (*Result, error) {
	return e.getOrCompute(ctx, viewerID, true)
}

func (e *Engine) getOrCompute(ctx context.Context, viewerID string, force bool) (*Result, error) {
	e.requestCount.Add(1)

	entry := e.cachedEntry(ctx, viewerID)
	if !force && entry != nil && !entry.Expired(e.now()) {
		e.cacheHits.Add(1)
		return &Result{
			Items:      copyItems(entry.Items),
			State:      StateFreshCache,
			ComputedAt: entry.ComputedAt,
		}, nil
	}
	e.cacheMisses.Add(1)

	// At most one concurrent recompute per viewer; concurrent callers share
	// the result.
	v, err, _ := e.group.Do(viewerID, func() (interface{}, error) {
		return e.recompute(ctx, viewerID, entry)
	})
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	res := v.(*Result)
	return &Result{
		Items:      copyItems(res.Items),
		State:      res.State,
		ComputedAt: res.ComputedAt,
		Stale:      res.Stale,
	}, nil
}

// recompute runs the gate -> analyze -> rank pipeline and upserts the cache
// entry. fallback is the previously cached entry, possibly expired, used to
// serve a degraded result when the stores fail mid-pipeline.
func (e *Engine) recompute(ctx context.Context, viewerID string, fallback *CacheEntry) (*Result, error) {
	count, err := e.countViews(ctx, viewerID)
	if err != nil {
		return e.degraded(viewerID, fallback, err)
	}
	if count < e.config.MinViews {
		// Terminal state, not an error. No cache write: the next request
		// re-checks the gate so fresh views take effect immediately.
		e.logger.Debug().
			Str("viewer_id", viewerID).
			Int("views", count).
			Int("required", e.config.MinViews).
			Msg("insufficient signal for recommendations")
		return &Result{State: StateInsufficientSignal}, nil
	}

	viewedIDs, err := e.recentViews(ctx, viewerID, e.config.ExclusionWindow)
	if err != nil {
		return e.degraded(viewerID, fallback, err)
	}

	windowIDs := viewedIDs
	if len(windowIDs) > e.config.HistoryWindow {
		windowIDs = windowIDs[:e.config.HistoryWindow]
	}
	history, err := e.historyItems(ctx, windowIDs)
	if err != nil {
		return e.degraded(viewerID, fallback, err)
	}

	profile := e.analyzer.Analyze(history, e.interestTags(ctx, viewerID))

	exclude := make(map[string]struct{}, len(viewedIDs))
	for _, id := range viewedIDs {
		exclude[id] = struct{}{}
	}

	candidates, err := e.publicCandidates(ctx, viewerID, exclude, e.config.MaxCandidates)
	if err != nil {
		return e.degraded(viewerID, fallback, err)
	}

	items := Rank(profile, candidates, exclude, e.config.MaxResults)

	now := e.now().UTC()
	entry := CacheEntry{
		ViewerID:   viewerID,
		Items:      items,
		ComputedAt: now,
		ExpiresAt:  now.Add(e.config.CacheTTL),
	}
	// An empty result is cached too, so a viewer with no eligible
	// candidates does not hammer the ranker until the TTL elapses.
	if err := e.putEntry(ctx, entry); err != nil {
		e.logger.Warn().
			Err(err).
			Str("viewer_id", viewerID).
			Msg("failed to store recommendation cache entry")
	}

	state := StateRecomputed
	if len(items) == 0 {
		state = StateEmpty
	}
	e.logger.Debug().
		Str("viewer_id", viewerID).
		Int("candidates", len(candidates)).
		Int("returned", len(items)).
		Str("state", state.String()).
		Msg("recommendations recomputed")

	return &Result{Items: items, State: state, ComputedAt: now}, nil
}

// degraded serves the last cached entry, expired or not, when the stores
// fail. With no entry to fall back on the failure surfaces as a retryable
// error.
func (e *Engine) degraded(viewerID string, fallback *CacheEntry, cause error) (*Result, error) {
	if fallback == nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
	}
	e.staleFallbacks.Add(1)
	e.logger.Warn().
		Err(cause).
		Str("viewer_id", viewerID).
		Time("computed_at", fallback.ComputedAt).
		Msg("stores unavailable, serving cached recommendations")
	return &Result{
		Items:      copyItems(fallback.Items),
		State:      StateFreshCache,
		ComputedAt: fallback.ComputedAt,
		Stale:      true,
	}, nil
}

// cachedEntry reads the viewer's cache entry. Read failures degrade to a
// miss; the recompute path decides whether that is fatal.
func (e *Engine) cachedEntry(ctx context.Context, viewerID string) *CacheEntry {
	ctx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	entry, err := e.recs.Get(ctx, viewerID)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("viewer_id", viewerID).
			Msg("failed to read recommendation cache entry")
		return nil
	}
	return entry
}

func (e *Engine) putEntry(ctx context.Context, entry CacheEntry) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()
	return e.recs.Put(ctx, entry)
}

// interestTags fetches optional profile store tags. Failures are logged and
// treated as "no tags": the profile store seeds analysis but is never load
// bearing.
func (e *Engine) interestTags(ctx context.Context, viewerID string) []string {
	if e.profiles == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	tags, err := e.profiles.InterestTags(ctx, viewerID)
	if err != nil {
		e.logger.Debug().
			Err(err).
			Str("viewer_id", viewerID).
			Msg("profile store unavailable, analyzing behavioral signal only")
		return nil
	}
	return tags
}

// historyItems resolves the viewed item IDs to catalog items, preserving
// the most-recent-first order and duplicates of the input. Items no longer
// present in the catalog are dropped.
func (e *Engine) historyItems(ctx context.Context, viewedIDs []string) ([]CatalogItem, error) {
	if len(viewedIDs) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(viewedIDs))
	seen := make(map[string]struct{}, len(viewedIDs))
	for _, id := range viewedIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	items, err := e.itemsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]CatalogItem, len(items))
	for _, item := range items {
		item.Normalize()
		byID[item.ID] = item
	}

	history := make([]CatalogItem, 0, len(viewedIDs))
	for _, id := range viewedIDs {
		if item, ok := byID[id]; ok {
			history = append(history, item)
		}
	}
	return history, nil
}

// --- breaker-guarded store accessors ---

func (e *Engine) countViews(ctx context.Context, viewerID string) (int, error) {
	v, err := e.execute(ctx, func(ctx context.Context) (any, error) {
		return e.behavior.CountViews(ctx, viewerID)
	})
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return v.(int), nil
}

func (e *Engine) recentViews(ctx context.Context, viewerID string, limit int) ([]string, error) {
	v, err := e.execute(ctx, func(ctx context.Context) (any, error) {
		return e.behavior.RecentViewedItemIDs(ctx, viewerID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("recent views: %w", err)
	}
	return v.([]string), nil
}

func (e *Engine) itemsByIDs(ctx context.Context, ids []string) ([]CatalogItem, error) {
	v, err := e.execute(ctx, func(ctx context.Context) (any, error) {
		return e.catalog.GetItemsByIDs(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve history items: %w", err)
	}
	return v.([]CatalogItem), nil
}

func (e *Engine) publicCandidates(ctx context.Context, excludeOwnerID string, excludeItemIDs map[string]struct{}, limit int) ([]CatalogItem, error) {
	v, err := e.execute(ctx, func(ctx context.Context) (any, error) {
		return e.catalog.GetPublicCandidates(ctx, excludeOwnerID, excludeItemIDs, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("get candidates: %w", err)
	}
	return v.([]CatalogItem), nil
}

// execute runs one store call with the configured timeout and, when
// enabled, the shared circuit breaker.
func (e *Engine) execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	if e.breaker == nil {
		return fn(ctx)
	}
	return e.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
}

// EngineMetrics is a snapshot of the engine's counters.
type EngineMetrics struct {
	Requests       int64 `json:"requests"`
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	StaleFallbacks int64 `json:"stale_fallbacks"`
	Errors         int64 `json:"errors"`
}

// GetMetrics returns the current engine counters.
func (e *Engine) GetMetrics() EngineMetrics {
	return EngineMetrics{
		Requests:       e.requestCount.Load(),
		CacheHits:      e.cacheHits.Load(),
		CacheMisses:    e.cacheMisses.Load(),
		StaleFallbacks: e.staleFallbacks.Load(),
		Errors:         e.errorCount.Load(),
	}
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

func copyItems(items []CatalogItem) []CatalogItem {
	out := make([]CatalogItem, len(items))
	copy(out, items)
	return out
}
