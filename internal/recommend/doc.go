// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package recommend implements the preference-driven recommendation engine.
//
// The engine turns a viewer's raw product-viewing behavior into a ranked set
// of suggested items from other users' public catalogs. It is organized as a
// small pipeline behind a single entry point:
//
//  1. View gate: a viewer needs a minimum number of recorded views before any
//     recommendation is attempted (cold-start protection).
//  2. Preference analysis: a bounded window of the viewer's history is
//     reduced to a compact profile (top categories, price bands, keywords).
//  3. Candidate ranking: public items owned by other users are scored against
//     the profile with integer accumulation and a stable sort.
//  4. Caching: the ranked result is stored per viewer with a fixed TTL and
//     served without recomputation while fresh.
//
// The engine has no dependencies on other internal packages. All I/O goes
// through the BehaviorStore, CatalogStore, ProfileStore and
// RecommendationStore interfaces, which are implemented by the store package
// and by in-file mocks in tests.
package recommend
