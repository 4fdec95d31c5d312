// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package metrics provides Prometheus instrumentation for the view
// pipeline, the recommendation engine and the HTTP API. All collectors are
// registered on the default registry via promauto and exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// View pipeline metrics
	ViewsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlane_views_recorded_total",
			Help: "Total number of view events recorded",
		},
	)

	ViewsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlane_views_dropped_total",
			Help: "Total number of view events dropped before recording",
		},
		[]string{"reason"}, // "invalid", "unmarshal"
	)

	ViewPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlane_view_publish_failures_total",
			Help: "Total number of view events that failed to publish to the stream",
		},
	)

	// Recommendation engine metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlane_recommendation_requests_total",
			Help: "Total number of recommendation requests by result state",
		},
		[]string{"state"}, // "fresh_cache", "recomputed", "insufficient_signal", "empty"
	)

	RecommendationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlane_recommendation_errors_total",
			Help: "Total number of recommendation requests that failed outright",
		},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wishlane_recommendation_duration_seconds",
			Help:    "Recommendation request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"state"},
	)

	StaleFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlane_stale_fallbacks_total",
			Help: "Total number of results served from an expired cache entry because stores were unavailable",
		},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlane_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wishlane_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wishlane_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Storage metrics
	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlane_store_gc_runs_total",
			Help: "Total number of value log GC cycles by outcome",
		},
		[]string{"outcome"}, // "rewritten", "noop", "error"
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records one recommendation request outcome.
func RecordRecommendation(state string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(state).Inc()
	RecommendationDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// RecordStoreGC records the outcome of one value log GC cycle.
func RecordStoreGC(outcome string) {
	StoreGCRuns.WithLabelValues(outcome).Inc()
}
