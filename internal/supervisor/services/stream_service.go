// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package services

import (
	"context"
	"fmt"
)

// StreamRunner matches *viewstream.Pipeline's lifecycle methods.
type StreamRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// StreamService runs the view event pipeline under supervision. If the
// pipeline's router dies, suture restarts the service and consumption
// resumes on the same pub/sub.
type StreamService struct {
	pipeline StreamRunner
}

// NewStreamService wraps a pipeline as a supervised service.
func NewStreamService(pipeline StreamRunner) *StreamService {
	return &StreamService{pipeline: pipeline}
}

// Serve implements suture.Service. Run blocks until the context is
// canceled or the router fails.
func (s *StreamService) Serve(ctx context.Context) error {
	if err := s.pipeline.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("view pipeline failed: %w", err)
	}
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *StreamService) String() string {
	return "view-pipeline"
}
