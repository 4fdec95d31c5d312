// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package models holds the wire types shared across the HTTP surface.
package models

import "time"

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Data carries the endpoint-specific payload. Nil on errors.
	Data interface{} `json:"data,omitempty"`

	// Metadata carries response metadata.
	Metadata Metadata `json:"metadata"`

	// Error is set when Status is "error".
	Error *APIError `json:"error,omitempty"`
}

// Metadata carries per-response metadata.
type Metadata struct {
	// Timestamp is when the response was produced.
	Timestamp time.Time `json:"timestamp"`

	// QueryTimeMS is the server-side processing time in milliseconds.
	QueryTimeMS int64 `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	// Code is a stable machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Details carries optional structured context.
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecordViewRequest is the body for POST /api/v1/views.
type RecordViewRequest struct {
	ViewerID string `json:"viewer_id" validate:"required,max=128"`
	ItemID   string `json:"item_id" validate:"required,max=128"`
}

// UpsertItemRequest is the body for PUT /api/v1/catalog/items.
type UpsertItemRequest struct {
	ID           string   `json:"id" validate:"required,max=128"`
	OwnerID      string   `json:"owner_id" validate:"required,max=128"`
	Title        string   `json:"title" validate:"required,max=512"`
	Description  string   `json:"description" validate:"max=4096"`
	Category     string   `json:"category" validate:"max=128"`
	Price        *float64 `json:"price"`
	IsPublic     bool     `json:"is_public"`
	HighPriority bool     `json:"high_priority"`
}

// SetTagsRequest is the body for PUT /api/v1/profiles/{viewerID}/tags.
type SetTagsRequest struct {
	Tags []string `json:"tags" validate:"required,max=50,dive,min=1,max=128"`
}
