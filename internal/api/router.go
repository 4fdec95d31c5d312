// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP routes around a handler and a middleware
// factory.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router. A nil middleware config uses the secure
// defaults.
func NewRouter(handler *Handler, mwConfig *MiddlewareConfig) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(mwConfig),
	}
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS is global so
	// OPTIONS preflight is handled before routing.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health probes get a permissive rate limit so monitoring can poll
	// them frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Core API endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		// View ingestion.
		r.Post("/views", router.handler.RecordView)

		// Recommendations.
		r.Get("/recommendations/status", router.handler.GetRecommendationStatus)
		r.Get("/recommendations/config", router.handler.GetRecommendationConfig)
		r.Get("/recommendations/{viewerID}", router.handler.GetRecommendations)
		r.Post("/recommendations/{viewerID}/refresh", router.handler.RefreshRecommendations)

		// Catalog management.
		r.Put("/catalog/items", router.handler.UpsertCatalogItem)
		r.Get("/catalog/items/{itemID}", router.handler.GetCatalogItem)
		r.Delete("/catalog/items/{itemID}", router.handler.DeleteCatalogItem)

		// Viewer interest profiles.
		r.Put("/profiles/{viewerID}/tags", router.handler.SetInterestTags)
		r.Get("/profiles/{viewerID}/tags", router.handler.GetInterestTags)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
