// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wishlane/wishlane/internal/metrics"
	"github.com/wishlane/wishlane/internal/models"
	"github.com/wishlane/wishlane/internal/recommend"
	"github.com/wishlane/wishlane/internal/store"
	"github.com/wishlane/wishlane/internal/validation"
	"github.com/wishlane/wishlane/internal/viewstream"
)

// handlerTimeout bounds each request's downstream work.
const handlerTimeout = 10 * time.Second

// ViewPublisher publishes view events onto the pipeline. Satisfied by
// *viewstream.Pipeline.
type ViewPublisher interface {
	PublishView(ctx context.Context, ev viewstream.ViewRecorded) error
}

// CatalogAdmin is the catalog write surface. Satisfied by the store
// backends.
type CatalogAdmin interface {
	UpsertItem(ctx context.Context, item recommend.CatalogItem) error
	GetItem(ctx context.Context, id string) (*recommend.CatalogItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// ProfileAdmin is the interest tag surface. Satisfied by the store
// backends.
type ProfileAdmin interface {
	SetInterestTags(ctx context.Context, viewerID string, tags []string) error
	InterestTags(ctx context.Context, viewerID string) ([]string, error)
}

// Deps bundles the handler's collaborators.
type Deps struct {
	Engine   *recommend.Engine
	Views    ViewPublisher
	Catalog  CatalogAdmin
	Profiles ProfileAdmin

	// Ready reports backend readiness for the readiness probe. Nil means
	// always ready.
	Ready func(ctx context.Context) error

	Logger zerolog.Logger
}

// Handler implements all HTTP endpoints.
type Handler struct {
	engine   *recommend.Engine
	views    ViewPublisher
	catalog  CatalogAdmin
	profiles ProfileAdmin
	ready    func(ctx context.Context) error
	started  time.Time
	logger   zerolog.Logger
}

// NewHandler creates the endpoint handler.
func NewHandler(deps Deps) (*Handler, error) {
	if deps.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if deps.Views == nil {
		return nil, errors.New("view publisher is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog admin is required")
	}
	if deps.Profiles == nil {
		return nil, errors.New("profile admin is required")
	}

	return &Handler{
		engine:   deps.Engine,
		views:    deps.Views,
		catalog:  deps.Catalog,
		profiles: deps.Profiles,
		ready:    deps.Ready,
		started:  time.Now(),
		logger:   deps.Logger.With().Str("component", "api").Logger(),
	}, nil
}

// recommendationsPayload is the data section for recommendation responses.
type recommendationsPayload struct {
	ViewerID   string                  `json:"viewer_id"`
	Items      []recommend.CatalogItem `json:"items"`
	Count      int                     `json:"count"`
	State      recommend.State         `json:"state"`
	ComputedAt *time.Time              `json:"computed_at,omitempty"`
	Stale      bool                    `json:"stale,omitempty"`
}

func newRecommendationsPayload(viewerID string, res *recommend.Result) recommendationsPayload {
	items := res.Items
	if items == nil {
		items = []recommend.CatalogItem{}
	}
	payload := recommendationsPayload{
		ViewerID: viewerID,
		Items:    items,
		Count:    len(items),
		State:    res.State,
		Stale:    res.Stale,
	}
	if !res.ComputedAt.IsZero() {
		t := res.ComputedAt
		payload.ComputedAt = &t
	}
	return payload
}

// RecordView handles POST /api/v1/views.
// The view is published onto the pipeline and the handler answers 202
// immediately; persistence failures are pipeline-internal by contract.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req models.RecordViewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	ev := viewstream.NewViewRecorded(req.ViewerID, req.ItemID, time.Now().UTC())
	if err := h.views.PublishView(r.Context(), ev); err != nil {
		respondError(w, http.StatusInternalServerError, "PUBLISH_ERROR", "Failed to record view", err)
		return
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"event_id": ev.EventID,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetRecommendations handles GET /api/v1/recommendations/{viewerID}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	h.serveRecommendations(w, r, false)
}

// RefreshRecommendations handles POST /api/v1/recommendations/{viewerID}/refresh.
// It bypasses the freshness check and recomputes unconditionally.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	h.serveRecommendations(w, r, true)
}

func (h *Handler) serveRecommendations(w http.ResponseWriter, r *http.Request, refresh bool) {
	viewerID := chi.URLParam(r, "viewerID")
	if viewerID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_VIEWER_ID", "Viewer ID is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	var (
		res *recommend.Result
		err error
	)
	if refresh {
		res, err = h.engine.RefreshRecommendations(ctx, viewerID)
	} else {
		res, err = h.engine.GetRecommendations(ctx, viewerID)
	}
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecommendationErrors.Inc()
		if errors.Is(err, recommend.ErrStoreUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Recommendation stores are unavailable, try again later", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Failed to generate recommendations", err)
		return
	}

	metrics.RecordRecommendation(res.State.String(), elapsed)
	if res.Stale {
		metrics.StaleFallbacks.Inc()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   newRecommendationsPayload(viewerID, res),
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: elapsed.Milliseconds(),
		},
	})
}

// GetRecommendationStatus handles GET /api/v1/recommendations/status.
func (h *Handler) GetRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"metrics":        h.engine.GetMetrics(),
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetRecommendationConfig handles GET /api/v1/recommendations/config.
func (h *Handler) GetRecommendationConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.engine.GetConfig(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// UpsertCatalogItem handles PUT /api/v1/catalog/items.
func (h *Handler) UpsertCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	item := recommend.CatalogItem{
		ID:           req.ID,
		OwnerID:      req.OwnerID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		IsPublic:     req.IsPublic,
		HighPriority: req.HighPriority,
	}
	if err := h.catalog.UpsertItem(ctx, item); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to store catalog item", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     item,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetCatalogItem handles GET /api/v1/catalog/items/{itemID}.
func (h *Handler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	item, err := h.catalog.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Catalog item not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to load catalog item", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     item,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// DeleteCatalogItem handles DELETE /api/v1/catalog/items/{itemID}.
func (h *Handler) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := h.catalog.DeleteItem(ctx, itemID); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to delete catalog item", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"message": "Item deleted",
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// SetInterestTags handles PUT /api/v1/profiles/{viewerID}/tags.
func (h *Handler) SetInterestTags(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")
	if viewerID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_VIEWER_ID", "Viewer ID is required", nil)
		return
	}

	var req models.SetTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := h.profiles.SetInterestTags(ctx, viewerID, req.Tags); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to store interest tags", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"viewer_id": viewerID,
			"tags":      req.Tags,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetInterestTags handles GET /api/v1/profiles/{viewerID}/tags.
func (h *Handler) GetInterestTags(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	tags, err := h.profiles.InterestTags(ctx, viewerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to load interest tags", err)
		return
	}
	if tags == nil {
		tags = []string{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"viewer_id": viewerID,
			"tags":      tags,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive handles GET /api/v1/health/live. Process liveness only.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Checks backend readiness.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Backend is not ready", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
