// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package api provides the HTTP surface: view ingestion, recommendation
// retrieval and refresh, catalog and profile management, health probes and
// Prometheus metrics. Routing is built on chi with go-chi/cors and
// go-chi/httprate for the cross-cutting concerns.
//
// Every response uses the models.APIResponse envelope. View recording is
// asynchronous: the handler publishes onto the viewstream pipeline and
// answers 202 before the event is persisted.
package api
