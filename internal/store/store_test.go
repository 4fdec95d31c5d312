// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishlane/wishlane/internal/recommend"
)

// backend is the union of the store interfaces plus the write paths, so
// one suite can exercise both implementations.
type backend interface {
	recommend.BehaviorStore
	recommend.CatalogStore
	recommend.ProfileStore
	recommend.RecommendationStore

	UpsertItem(ctx context.Context, item recommend.CatalogItem) error
	GetItem(ctx context.Context, id string) (*recommend.CatalogItem, error)
	DeleteItem(ctx context.Context, id string) error
	SetInterestTags(ctx context.Context, viewerID string, tags []string) error
}

func backends(t *testing.T) map[string]backend {
	t.Helper()

	badgerStore, err := NewBadgerStore(Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBadgerStore() error: %v", err)
	}
	t.Cleanup(func() {
		if err := badgerStore.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})

	return map[string]backend{
		"badger": badgerStore,
		"memory": NewMemoryStore(),
	}
}

func TestViewAppendAndCount(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()

			for i := 0; i < 7; i++ {
				ev := recommend.ViewEvent{
					ViewerID: "alice",
					ItemID:   fmt.Sprintf("item-%d", i%3), // duplicates on purpose
					ViewedAt: base.Add(time.Duration(i) * time.Second),
				}
				if err := b.AppendView(ctx, ev); err != nil {
					t.Fatalf("AppendView() error: %v", err)
				}
			}

			count, err := b.CountViews(ctx, "alice")
			if err != nil {
				t.Fatalf("CountViews() error: %v", err)
			}
			if count != 7 {
				t.Errorf("CountViews() = %d, want 7 (duplicates must count)", count)
			}

			count, err = b.CountViews(ctx, "bob")
			if err != nil {
				t.Fatalf("CountViews(bob) error: %v", err)
			}
			if count != 0 {
				t.Errorf("CountViews(bob) = %d, want 0", count)
			}
		})
	}
}

func TestRecentViewedItemIDsOrder(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()

			for i := 0; i < 5; i++ {
				ev := recommend.ViewEvent{
					ViewerID: "alice",
					ItemID:   fmt.Sprintf("item-%d", i),
					ViewedAt: base.Add(time.Duration(i) * time.Second),
				}
				if err := b.AppendView(ctx, ev); err != nil {
					t.Fatalf("AppendView() error: %v", err)
				}
			}

			got, err := b.RecentViewedItemIDs(ctx, "alice", 3)
			if err != nil {
				t.Fatalf("RecentViewedItemIDs() error: %v", err)
			}
			want := []string{"item-4", "item-3", "item-2"}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("RecentViewedItemIDs() = %v, want %v", got, want)
			}

			got, err = b.RecentViewedItemIDs(ctx, "alice", 0)
			if err != nil {
				t.Fatalf("RecentViewedItemIDs(limit=0) error: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("RecentViewedItemIDs(limit=0) = %v, want empty", got)
			}
		})
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			price := 49.99
			item := recommend.CatalogItem{
				ID:           "item-1",
				OwnerID:      "owner-a",
				Title:        "Wireless Keyboard",
				Description:  "tenkeyless",
				Category:     "electronics",
				Price:        &price,
				IsPublic:     true,
				HighPriority: true,
			}

			if err := b.UpsertItem(ctx, item); err != nil {
				t.Fatalf("UpsertItem() error: %v", err)
			}

			got, err := b.GetItem(ctx, "item-1")
			if err != nil {
				t.Fatalf("GetItem() error: %v", err)
			}
			if got.Title != item.Title || got.Category != item.Category || !got.HighPriority {
				t.Errorf("GetItem() = %+v, want %+v", got, item)
			}
			if got.Price == nil || *got.Price != price {
				t.Errorf("GetItem().Price = %v, want %v", got.Price, price)
			}

			// Upsert overwrites.
			item.Title = "Mechanical Keyboard"
			if err := b.UpsertItem(ctx, item); err != nil {
				t.Fatalf("second UpsertItem() error: %v", err)
			}
			got, err = b.GetItem(ctx, "item-1")
			if err != nil {
				t.Fatalf("GetItem() after upsert error: %v", err)
			}
			if got.Title != "Mechanical Keyboard" {
				t.Errorf("GetItem().Title = %q, want overwrite", got.Title)
			}

			if err := b.DeleteItem(ctx, "item-1"); err != nil {
				t.Fatalf("DeleteItem() error: %v", err)
			}
			if _, err := b.GetItem(ctx, "item-1"); !errors.Is(err, ErrItemNotFound) {
				t.Errorf("GetItem() after delete = %v, want ErrItemNotFound", err)
			}

			// Deleting again is a no-op.
			if err := b.DeleteItem(ctx, "item-1"); err != nil {
				t.Errorf("DeleteItem() on missing item error: %v", err)
			}
		})
	}
}

func TestGetPublicCandidatesFiltering(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			items := []recommend.CatalogItem{
				{ID: "a-public", OwnerID: "owner-a", IsPublic: true},
				{ID: "b-private", OwnerID: "owner-a", IsPublic: false},
				{ID: "c-own", OwnerID: "viewer-1", IsPublic: true},
				{ID: "d-viewed", OwnerID: "owner-b", IsPublic: true},
				{ID: "e-public", OwnerID: "owner-b", IsPublic: true},
			}
			for _, item := range items {
				if err := b.UpsertItem(ctx, item); err != nil {
					t.Fatalf("UpsertItem(%s) error: %v", item.ID, err)
				}
			}

			exclude := map[string]struct{}{"d-viewed": {}}
			got, err := b.GetPublicCandidates(ctx, "viewer-1", exclude, 10)
			if err != nil {
				t.Fatalf("GetPublicCandidates() error: %v", err)
			}

			gotIDs := make([]string, len(got))
			for i, item := range got {
				gotIDs[i] = item.ID
			}
			want := []string{"a-public", "e-public"}
			if !reflect.DeepEqual(gotIDs, want) {
				t.Errorf("GetPublicCandidates() = %v, want %v", gotIDs, want)
			}

			// Limit caps the pool.
			got, err = b.GetPublicCandidates(ctx, "viewer-1", nil, 1)
			if err != nil {
				t.Fatalf("GetPublicCandidates(limit=1) error: %v", err)
			}
			if len(got) != 1 {
				t.Errorf("GetPublicCandidates(limit=1) returned %d items", len(got))
			}
		})
	}
}

func TestGetItemsByIDsOmitsUnknown(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := b.UpsertItem(ctx, recommend.CatalogItem{ID: "known", OwnerID: "o"}); err != nil {
				t.Fatalf("UpsertItem() error: %v", err)
			}

			got, err := b.GetItemsByIDs(ctx, []string{"missing", "known", "also-missing"})
			if err != nil {
				t.Fatalf("GetItemsByIDs() error: %v", err)
			}
			if len(got) != 1 || got[0].ID != "known" {
				t.Errorf("GetItemsByIDs() = %v, want only %q", got, "known")
			}
		})
	}
}

func TestInterestTagsRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tags, err := b.InterestTags(ctx, "alice")
			if err != nil {
				t.Fatalf("InterestTags() before set error: %v", err)
			}
			if len(tags) != 0 {
				t.Errorf("InterestTags() before set = %v, want none", tags)
			}

			want := []string{"cycling", "books"}
			if err := b.SetInterestTags(ctx, "alice", want); err != nil {
				t.Fatalf("SetInterestTags() error: %v", err)
			}

			tags, err = b.InterestTags(ctx, "alice")
			if err != nil {
				t.Fatalf("InterestTags() error: %v", err)
			}
			if !reflect.DeepEqual(tags, want) {
				t.Errorf("InterestTags() = %v, want %v", tags, want)
			}
		})
	}
}

func TestRecommendationCacheUpsert(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			entry, err := b.Get(ctx, "alice")
			if err != nil {
				t.Fatalf("Get() on empty store error: %v", err)
			}
			if entry != nil {
				t.Errorf("Get() on empty store = %+v, want nil", entry)
			}

			now := time.Now().UTC().Truncate(time.Millisecond)
			first := recommend.CacheEntry{
				ViewerID:   "alice",
				Items:      []recommend.CatalogItem{{ID: "item-1"}},
				ComputedAt: now,
				ExpiresAt:  now.Add(24 * time.Hour),
			}
			if err := b.Put(ctx, first); err != nil {
				t.Fatalf("Put() error: %v", err)
			}

			entry, err = b.Get(ctx, "alice")
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if entry == nil || len(entry.Items) != 1 || entry.Items[0].ID != "item-1" {
				t.Fatalf("Get() = %+v, want the stored entry", entry)
			}
			if !entry.ComputedAt.Equal(first.ComputedAt) {
				t.Errorf("ComputedAt = %v, want %v", entry.ComputedAt, first.ComputedAt)
			}

			// Upsert replaces; one entry per viewer.
			second := first
			second.Items = nil
			if err := b.Put(ctx, second); err != nil {
				t.Fatalf("second Put() error: %v", err)
			}
			entry, err = b.Get(ctx, "alice")
			if err != nil {
				t.Fatalf("Get() after overwrite error: %v", err)
			}
			if len(entry.Items) != 0 {
				t.Errorf("Get() after overwrite has %d items, want 0", len(entry.Items))
			}
		})
	}
}

func TestExpiredEntryStillReadable(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			past := time.Now().Add(-48 * time.Hour)
			entry := recommend.CacheEntry{
				ViewerID:   "alice",
				Items:      []recommend.CatalogItem{{ID: "old"}},
				ComputedAt: past,
				ExpiresAt:  past.Add(24 * time.Hour),
			}
			if err := b.Put(ctx, entry); err != nil {
				t.Fatalf("Put() error: %v", err)
			}

			got, err := b.Get(ctx, "alice")
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got == nil {
				t.Fatal("expired entry evicted by the store, must stay readable for stale fallback")
			}
			if !got.Expired(time.Now()) {
				t.Error("entry should report expired")
			}
		})
	}
}

func TestContextCancellation(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if err := b.AppendView(ctx, recommend.ViewEvent{ViewerID: "a", ItemID: "b"}); err == nil {
				t.Error("AppendView() with canceled context succeeded")
			}
			if _, err := b.CountViews(ctx, "a"); err == nil {
				t.Error("CountViews() with canceled context succeeded")
			}
		})
	}
}

func TestViewsIsolatedBetweenPrefixRelatedViewers(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()

			// Viewer IDs are free-form: "a" must never see the signal of
			// "a:b" even though one is a prefix of the other's raw key.
			for i := 0; i < 3; i++ {
				ev := recommend.ViewEvent{
					ViewerID: "a:b",
					ItemID:   fmt.Sprintf("item-%d", i),
					ViewedAt: base.Add(time.Duration(i) * time.Second),
				}
				if err := b.AppendView(ctx, ev); err != nil {
					t.Fatalf("AppendView() error: %v", err)
				}
			}

			count, err := b.CountViews(ctx, "a")
			if err != nil {
				t.Fatalf("CountViews(a) error: %v", err)
			}
			if count != 0 {
				t.Errorf("CountViews(a) = %d, want 0 (views belong to a:b)", count)
			}

			ids, err := b.RecentViewedItemIDs(ctx, "a", 10)
			if err != nil {
				t.Fatalf("RecentViewedItemIDs(a) error: %v", err)
			}
			if len(ids) != 0 {
				t.Errorf("RecentViewedItemIDs(a) = %v, want empty", ids)
			}

			count, err = b.CountViews(ctx, "a:b")
			if err != nil {
				t.Fatalf("CountViews(a:b) error: %v", err)
			}
			if count != 3 {
				t.Errorf("CountViews(a:b) = %d, want 3", count)
			}
		})
	}
}

func TestInterestTagsReturnIsACopy(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := b.SetInterestTags(ctx, "alice", []string{"books", "cycling"}); err != nil {
				t.Fatalf("SetInterestTags() error: %v", err)
			}

			tags, err := b.InterestTags(ctx, "alice")
			if err != nil {
				t.Fatalf("InterestTags() error: %v", err)
			}
			tags[0] = "mutated"

			again, err := b.InterestTags(ctx, "alice")
			if err != nil {
				t.Fatalf("InterestTags() error: %v", err)
			}
			if !reflect.DeepEqual(again, []string{"books", "cycling"}) {
				t.Errorf("stored tags = %v, caller mutation leaked into the store", again)
			}
		})
	}
}
