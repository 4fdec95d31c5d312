// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package viewstream

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/wishlane/wishlane/internal/metrics"
)

// Recorder consumes view events at the end of the pipeline. Satisfied by
// the recommendation engine.
type Recorder interface {
	RecordView(ctx context.Context, viewerID, itemID string)
}

// Config holds pipeline tunables.
type Config struct {
	// OutputChannelBuffer is the GoChannel subscriber buffer. A full
	// buffer blocks publishers, which backpressures the HTTP handler.
	// Default: 1024.
	OutputChannelBuffer int64 `json:"output_channel_buffer" koanf:"output_channel_buffer"`

	// CloseTimeout is how long to wait for in-flight messages on shutdown.
	// Default: 10s.
	CloseTimeout time.Duration `json:"close_timeout" koanf:"close_timeout"`

	// Retry configuration for transient handler failures.
	RetryMaxRetries      int           `json:"retry_max_retries" koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `json:"retry_initial_interval" koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `json:"retry_max_interval" koanf:"retry_max_interval"`
	RetryMultiplier      float64       `json:"retry_multiplier" koanf:"retry_multiplier"`
}

// DefaultConfig returns production defaults for the pipeline.
func DefaultConfig() *Config {
	return &Config{
		OutputChannelBuffer:  1024,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.OutputChannelBuffer < 0 {
		return fmt.Errorf("output_channel_buffer must be non-negative, got %d", c.OutputChannelBuffer)
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("close_timeout must be positive, got %v", c.CloseTimeout)
	}
	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("retry_max_retries must be non-negative, got %d", c.RetryMaxRetries)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Pipeline is the in-process view event pipeline: a GoChannel pub/sub plus
// a Watermill router that delivers events to the Recorder with panic
// recovery and bounded retry.
type Pipeline struct {
	pubSub   *gochannel.GoChannel
	router   *message.Router
	recorder Recorder
	logger   zerolog.Logger
}

// NewPipeline assembles the pipeline. Call Run to start consuming.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipeline(cfg *Config, recorder Recorder, logger zerolog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}

	wmLogger := NewLoggerAdapter(logger)

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputChannelBuffer,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	p := &Pipeline{
		pubSub:   pubSub,
		router:   router,
		recorder: recorder,
		logger:   logger.With().Str("component", "viewstream").Logger(),
	}

	// Recoverer first so a panicking handler becomes a retryable error.
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	router.AddConsumerHandler(
		"record-views",
		TopicViewRecorded,
		pubSub,
		p.handleViewRecorded,
	)

	return p, nil
}

// PublishView validates and publishes one view event onto the pipeline.
// The caller gets an error only when the event never made it onto the
// stream; downstream processing failures stay inside the pipeline.
func (p *Pipeline) PublishView(ctx context.Context, ev ViewRecorded) error {
	if err := ev.Validate(); err != nil {
		metrics.ViewsDropped.WithLabelValues("invalid").Inc()
		return err
	}
	if ev.ViewedAt.IsZero() {
		ev.ViewedAt = time.Now().UTC()
	}

	msg, err := ev.Message()
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	if err := p.pubSub.Publish(TopicViewRecorded, msg); err != nil {
		metrics.ViewPublishFailures.Inc()
		return fmt.Errorf("publish view event: %w", err)
	}
	return nil
}

// handleViewRecorded delivers one event to the recorder. Malformed
// payloads are dropped rather than retried; retrying cannot fix them.
func (p *Pipeline) handleViewRecorded(msg *message.Message) error {
	ev, err := UnmarshalViewRecorded(msg.Payload)
	if err != nil {
		metrics.ViewsDropped.WithLabelValues("unmarshal").Inc()
		p.logger.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("dropping malformed view event")
		return nil
	}

	p.recorder.RecordView(msg.Context(), ev.ViewerID, ev.ItemID)
	metrics.ViewsRecorded.Inc()
	return nil
}

// Run starts the router and blocks until ctx is canceled or Close is
// called.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running returns a channel that closes once the router is consuming.
func (p *Pipeline) Running() <-chan struct{} {
	return p.router.Running()
}

// Close stops the router and the pub/sub, waiting up to CloseTimeout for
// in-flight messages.
func (p *Pipeline) Close() error {
	if err := p.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return p.pubSub.Close()
}
