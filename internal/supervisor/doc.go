// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package supervisor builds the suture/v4 supervision tree for the
// application. The tree has three layers so failures stay contained: the
// data layer (store maintenance), the messaging layer (view pipeline) and
// the api layer (HTTP server). Supervisor events are logged through
// sutureslog bridged to the zerolog-backed slog handler.
package supervisor
