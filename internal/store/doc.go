// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package store provides the persistence layer backing the recommendation
// engine: view events, catalog items, profile tags and cached results.
//
// Two implementations exist. BadgerStore persists to an embedded BadgerDB
// and is the production backend; MemoryStore keeps everything in process
// memory for tests and ephemeral deployments. Both satisfy the store
// interfaces declared by the recommend package.
package store
