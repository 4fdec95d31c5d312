// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/wishlane/wishlane/internal/recommend"
)

// MemoryStore is an in-process implementation of the store interfaces.
// Suitable for tests and ephemeral deployments; nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string][]recommend.ViewEvent
	items map[string]recommend.CatalogItem
	tags  map[string][]string
	recs  map[string]recommend.CacheEntry
}

var (
	_ recommend.BehaviorStore       = (*MemoryStore)(nil)
	_ recommend.CatalogStore        = (*MemoryStore)(nil)
	_ recommend.ProfileStore        = (*MemoryStore)(nil)
	_ recommend.RecommendationStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		views: make(map[string][]recommend.ViewEvent),
		items: make(map[string]recommend.CatalogItem),
		tags:  make(map[string][]string),
		recs:  make(map[string]recommend.CacheEntry),
	}
}

func (s *MemoryStore) AppendView(ctx context.Context, ev recommend.ViewEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[ev.ViewerID] = append(s.views[ev.ViewerID], ev)
	return nil
}

func (s *MemoryStore) CountViews(ctx context.Context, viewerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views[viewerID]), nil
}

func (s *MemoryStore) RecentViewedItemIDs(ctx context.Context, viewerID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.views[viewerID]
	ids := make([]string, 0, limit)
	for i := len(events) - 1; i >= 0 && len(ids) < limit; i-- {
		ids = append(ids, events[i].ItemID)
	}
	return ids, nil
}

func (s *MemoryStore) UpsertItem(ctx context.Context, item recommend.CatalogItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, id string) (*recommend.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// GetPublicCandidates mirrors the Badger backend's determinism guarantee by
// walking items in sorted ID order.
func (s *MemoryStore) GetPublicCandidates(ctx context.Context, excludeOwnerID string, excludeItemIDs map[string]struct{}, limit int) ([]recommend.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []recommend.CatalogItem
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		item := s.items[id]
		if !item.IsPublic || item.OwnerID == excludeOwnerID {
			continue
		}
		if _, seen := excludeItemIDs[id]; seen {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *MemoryStore) GetItemsByIDs(ctx context.Context, ids []string) ([]recommend.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []recommend.CatalogItem
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetInterestTags(ctx context.Context, viewerID string, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(tags))
	copy(cp, tags)
	s.tags[viewerID] = cp
	return nil
}

func (s *MemoryStore) InterestTags(ctx context.Context, viewerID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.tags[viewerID]
	if !ok {
		return nil, nil
	}
	cp := make([]string, len(stored))
	copy(cp, stored)
	return cp, nil
}

func (s *MemoryStore) Get(ctx context.Context, viewerID string) (*recommend.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.recs[viewerID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Put(ctx context.Context, entry recommend.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[entry.ViewerID] = entry
	return nil
}
