// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wishlane/wishlane/internal/recommend"
)

// Key prefixes for BadgerDB storage. View event keys embed a nanosecond
// timestamp plus a UUID suffix so appends are unique and lexicographic key
// order matches chronological order.
const (
	viewKeyPrefix = "view:"
	itemKeyPrefix = "item:"
	tagsKeyPrefix = "tags:"
	recKeyPrefix  = "rec:"
)

// viewKeySpace returns the per-viewer key prefix for view events. Viewer
// IDs are free-form strings, so they are hex-encoded: the raw ID "a" would
// otherwise prefix-match the keys of viewer "a:b".
func viewKeySpace(viewerID string) []byte {
	return []byte(viewKeyPrefix + hex.EncodeToString([]byte(viewerID)) + ":")
}

// ErrItemNotFound is returned when a catalog item does not exist.
var ErrItemNotFound = errors.New("catalog item not found")

// Options configures the Badger-backed store.
type Options struct {
	// Path is the on-disk database directory. Ignored when InMemory is set.
	Path string

	// InMemory runs Badger without persistence. Used by tests and
	// ephemeral deployments.
	InMemory bool
}

// BadgerStore is the embedded persistence backend. A single instance
// implements all store interfaces consumed by the recommendation engine,
// plus the write paths used by the catalog and profile endpoints.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// compile-time interface checks
var (
	_ recommend.BehaviorStore       = (*BadgerStore)(nil)
	_ recommend.CatalogStore        = (*BadgerStore)(nil)
	_ recommend.ProfileStore        = (*BadgerStore)(nil)
	_ recommend.RecommendationStore = (*BadgerStore)(nil)
)

// NewBadgerStore opens the database at opts.Path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(opts Options, logger zerolog.Logger) (*BadgerStore, error) {
	storeLogger := logger.With().Str("component", "store").Logger()

	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(badgerLogger{logger: storeLogger})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	return &BadgerStore{db: db, logger: storeLogger}, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunValueLogGC runs one value log garbage collection cycle. Returns
// badger.ErrNoRewrite when nothing needed collecting.
func (s *BadgerStore) RunValueLogGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// --- BehaviorStore ---

// AppendView stores one view event. Events are append-only; keys encode
// the event time so a prefix scan yields chronological order.
func (s *BadgerStore) AppendView(ctx context.Context, ev recommend.ViewEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal view event: %w", err)
	}

	ts := ev.ViewedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	key := append(viewKeySpace(ev.ViewerID), fmt.Sprintf("%020d:%s", ts.UnixNano(), uuid.NewString())...)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// CountViews counts all recorded views for the viewer, duplicates included.
// A key-only prefix scan; values are never fetched.
func (s *BadgerStore) CountViews(ctx context.Context, viewerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := viewKeySpace(viewerID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return count, nil
}

// RecentViewedItemIDs returns the viewer's most recent viewed item IDs,
// newest first, up to limit. Duplicate item IDs are preserved.
func (s *BadgerStore) RecentViewedItemIDs(ctx context.Context, viewerID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := viewKeySpace(viewerID)
		// Reverse iteration starts just past the prefix range.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(ids) < limit; it.Next() {
			item := it.Item()
			var ev recommend.ViewEvent
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			})
			if err != nil {
				continue
			}
			ids = append(ids, ev.ItemID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recent views: %w", err)
	}
	return ids, nil
}

// --- CatalogStore ---

// UpsertItem stores or replaces a catalog item.
func (s *BadgerStore) UpsertItem(ctx context.Context, item recommend.CatalogItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal catalog item: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(itemKeyPrefix+item.ID), data)
	})
}

// GetItem fetches one catalog item by ID.
func (s *BadgerStore) GetItem(ctx context.Context, id string) (*recommend.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item recommend.CatalogItem
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get([]byte(itemKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		return entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &item)
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes a catalog item. Deleting a missing item is a no-op.
func (s *BadgerStore) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(itemKeyPrefix + id))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// GetPublicCandidates scans the catalog for public items not owned by
// excludeOwnerID and not already viewed, up to limit. Iteration follows key
// order, so the pool is deterministic for a given catalog state.
func (s *BadgerStore) GetPublicCandidates(ctx context.Context, excludeOwnerID string, excludeItemIDs map[string]struct{}, limit int) ([]recommend.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	var items []recommend.CatalogItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(itemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(items) < limit; it.Next() {
			var item recommend.CatalogItem
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				continue
			}
			if !item.IsPublic || item.OwnerID == excludeOwnerID {
				continue
			}
			if _, seen := excludeItemIDs[item.ID]; seen {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan candidates: %w", err)
	}
	return items, nil
}

// GetItemsByIDs resolves item IDs to catalog items. Unknown IDs are
// silently omitted.
func (s *BadgerStore) GetItemsByIDs(ctx context.Context, ids []string) ([]recommend.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []recommend.CatalogItem
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			entry, err := txn.Get([]byte(itemKeyPrefix + id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get item %q: %w", id, err)
			}
			var item recommend.CatalogItem
			err = entry.Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- ProfileStore ---

// SetInterestTags replaces the viewer's declared interest tags.
func (s *BadgerStore) SetInterestTags(ctx context.Context, viewerID string, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tagsKeyPrefix+viewerID), data)
	})
}

// InterestTags returns the viewer's declared interest tags, nil when none
// were ever set.
func (s *BadgerStore) InterestTags(ctx context.Context, viewerID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tags []string
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get([]byte(tagsKeyPrefix + viewerID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get tags: %w", err)
		}
		return entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &tags)
		})
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// --- RecommendationStore ---

// Get returns the viewer's cached entry, or (nil, nil) when absent.
// Entries are stored without a Badger TTL: expired entries must stay
// readable for the degraded-mode fallback, so expiry is the engine's
// decision, not the store's.
func (s *BadgerStore) Get(ctx context.Context, viewerID string) (*recommend.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry recommend.CacheEntry
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recKeyPrefix + viewerID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get cache entry: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// Put upserts the viewer's cached entry. Last write wins.
func (s *BadgerStore) Put(ctx context.Context, entry recommend.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recKeyPrefix+entry.ViewerID), data)
	})
}

// badgerLogger adapts zerolog to badger.Logger. Badger's INFO output is
// chatty, so it maps to debug.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(trimNewline(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(trimNewline(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(trimNewline(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(trimNewline(format), args...)
}

func trimNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
