// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package recommend

import (
	"context"
	"math"
	"time"
)

// ViewEvent records a single item inspection by a viewer.
// Events are immutable and append-only; duplicates are allowed and
// intentionally inflate signal strength.
type ViewEvent struct {
	// ViewerID identifies the user who viewed the item.
	ViewerID string `json:"viewer_id"`

	// ItemID identifies the viewed catalog item.
	ItemID string `json:"item_id"`

	// ViewedAt is when the view occurred.
	ViewedAt time.Time `json:"viewed_at"`
}

// CatalogItem is a read-only snapshot of an item from the catalog store.
// The engine never mutates catalog items.
type CatalogItem struct {
	// ID is the unique item identifier.
	ID string `json:"id"`

	// OwnerID identifies the user whose wishlist holds the item.
	OwnerID string `json:"owner_id"`

	// Title is the item title.
	Title string `json:"title"`

	// Description is the free-form item description.
	Description string `json:"description,omitempty"`

	// Category is the item's category label.
	Category string `json:"category,omitempty"`

	// Price is the item price. Nil when the owner did not set one.
	Price *float64 `json:"price,omitempty"`

	// IsPublic marks the item as visible to other users.
	// Only public items are eligible recommendation candidates.
	IsPublic bool `json:"is_public"`

	// HighPriority marks the item as flagged by its owner.
	// Flagged items receive a small ranking bonus.
	HighPriority bool `json:"high_priority,omitempty"`
}

// Normalize maps malformed numeric fields to absent so the analyzer and
// ranker never see an unusable price. Negative, NaN and infinite prices are
// treated as "no price signal".
func (c *CatalogItem) Normalize() {
	if c.Price == nil {
		return
	}
	p := *c.Price
	if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		c.Price = nil
	}
}

// PriceBand is an inclusive price range derived from a viewer's history.
type PriceBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether the price falls within the band, bounds inclusive.
func (b PriceBand) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

// PreferenceProfile is the derived summary of a viewer's behavioral
// interests. It is ephemeral: recomputed on every cache miss and never
// persisted on its own.
type PreferenceProfile struct {
	// TopCategories holds up to three category labels, strongest first.
	TopCategories []string `json:"top_categories"`

	// PriceBands holds up to two overlapping price ranges.
	// Empty when the history carries no price signal.
	PriceBands []PriceBand `json:"price_bands"`

	// TopKeywords holds up to ten tokens, most frequent first.
	TopKeywords []string `json:"top_keywords"`
}

// IsEmpty reports whether the profile carries no signal at all.
func (p PreferenceProfile) IsEmpty() bool {
	return len(p.TopCategories) == 0 && len(p.PriceBands) == 0 && len(p.TopKeywords) == 0
}

// ScoredCandidate pairs a candidate item with its relevance score during
// ranking. It exists only while a ranking is in flight.
type ScoredCandidate struct {
	Item  CatalogItem `json:"item"`
	Score int         `json:"score"`
}

// State classifies the outcome of a recommendation request. The three
// empty-ish outcomes are deliberately distinct so the UI can render
// "need more views", "nothing found" and "try again later" separately.
type State int

const (
	// StateFreshCache means the result was served from an unexpired cache
	// entry without recomputation.
	StateFreshCache State = iota
	// StateRecomputed means the result was computed on this request and the
	// cache entry was overwritten.
	StateRecomputed
	// StateInsufficientSignal means the viewer has too few recorded views
	// for recommendations to be attempted.
	StateInsufficientSignal
	// StateEmpty means recomputation ran but produced no eligible
	// candidates. Empty results are cached like any other.
	StateEmpty
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateFreshCache:
		return "fresh_cache"
	case StateRecomputed:
		return "recomputed"
	case StateInsufficientSignal:
		return "insufficient_signal"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its wire name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Result is the outcome of GetRecommendations or RefreshRecommendations.
type Result struct {
	// Items is the ranked list of recommended items, best first.
	Items []CatalogItem `json:"items"`

	// State classifies how the result was produced.
	State State `json:"state"`

	// ComputedAt is when the underlying ranking was computed. For cached
	// results this is the original computation time, not the request time.
	ComputedAt time.Time `json:"computed_at,omitempty"`

	// Stale marks a result served from an expired cache entry because the
	// backing stores were unavailable.
	Stale bool `json:"stale,omitempty"`
}

// CacheEntry is the stored ranked result for one viewer. Entries are
// upserted keyed by viewer: at most one entry per viewer at any time.
type CacheEntry struct {
	ViewerID   string        `json:"viewer_id"`
	Items      []CatalogItem `json:"items"`
	ComputedAt time.Time     `json:"computed_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given instant.
// An expired entry is treated as absent by the freshness check, but remains
// readable for the degraded-mode fallback.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// BehaviorStore provides access to recorded view events.
type BehaviorStore interface {
	// AppendView appends one view event.
	AppendView(ctx context.Context, ev ViewEvent) error

	// CountViews returns the total number of recorded views for the viewer,
	// counting duplicates.
	CountViews(ctx context.Context, viewerID string) (int, error)

	// RecentViewedItemIDs returns item IDs of the viewer's most recent
	// views, most recent first, up to limit. Duplicates are preserved.
	RecentViewedItemIDs(ctx context.Context, viewerID string, limit int) ([]string, error)
}

// CatalogStore provides read access to catalog items.
type CatalogStore interface {
	// GetPublicCandidates returns public items not owned by excludeOwnerID
	// and not present in excludeItemIDs, up to limit. Iteration order must
	// be deterministic; the ranker preserves it for equal scores.
	GetPublicCandidates(ctx context.Context, excludeOwnerID string, excludeItemIDs map[string]struct{}, limit int) ([]CatalogItem, error)

	// GetItemsByIDs resolves item IDs to catalog items. Unknown IDs are
	// silently omitted.
	GetItemsByIDs(ctx context.Context, ids []string) ([]CatalogItem, error)
}

// ProfileStore provides long-lived user interest tags that seed the
// preference analysis alongside behavioral data. The store is optional: a
// nil ProfileStore means the engine operates on behavioral signal alone.
type ProfileStore interface {
	// InterestTags returns the viewer's declared interest tags.
	InterestTags(ctx context.Context, viewerID string) ([]string, error)
}

// RecommendationStore persists computed results per viewer.
// Writes must be last-write-wins and atomic per key: readers never observe a
// partial entry.
type RecommendationStore interface {
	// Get returns the entry for the viewer, or (nil, nil) when absent.
	// Expired entries are returned; expiry is the caller's concern.
	Get(ctx context.Context, viewerID string) (*CacheEntry, error)

	// Put upserts the entry keyed by entry.ViewerID.
	Put(ctx context.Context, entry CacheEntry) error
}
