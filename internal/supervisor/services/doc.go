// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package services wraps the long-running components as suture.Service
// implementations: the HTTP server, the view event pipeline and Badger
// value log garbage collection.
package services
