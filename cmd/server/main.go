// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Command server runs the Wishlane recommendation service: the Badger
// store, the view event pipeline, the recommendation engine and the HTTP
// API, all under a suture supervision tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wishlane/wishlane/internal/api"
	"github.com/wishlane/wishlane/internal/config"
	"github.com/wishlane/wishlane/internal/logging"
	"github.com/wishlane/wishlane/internal/recommend"
	"github.com/wishlane/wishlane/internal/store"
	"github.com/wishlane/wishlane/internal/supervisor"
	"github.com/wishlane/wishlane/internal/supervisor/services"
	"github.com/wishlane/wishlane/internal/viewstream"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)
	logger := logging.Logger()

	logger.Info().
		Str("listen_addr", cfg.ListenAddr()).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("starting wishlane")

	badgerStore, err := store.NewBadgerStore(store.Options{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := badgerStore.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close store")
		}
	}()

	engine, err := recommend.NewEngine(&cfg.Engine, recommend.Stores{
		Behavior:        badgerStore,
		Catalog:         badgerStore,
		Profiles:        badgerStore,
		Recommendations: badgerStore,
	}, logger)
	if err != nil {
		return err
	}

	pipeline, err := viewstream.NewPipeline(&cfg.ViewStream, engine, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pipeline.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close view pipeline")
		}
	}()

	handler, err := api.NewHandler(api.Deps{
		Engine:   engine,
		Views:    pipeline,
		Catalog:  badgerStore,
		Profiles: badgerStore,
		Ready: func(ctx context.Context) error {
			// A cheap read proves the store answers queries.
			_, rerr := badgerStore.InterestTags(ctx, "healthcheck")
			return rerr
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(handler, &api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.API.RateLimitRequests,
		RateLimitWindow:    cfg.API.RateLimitWindow,
		RateLimitDisabled:  cfg.API.RateLimitDisabled,
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewGCService(badgerStore, cfg.Storage.GCInterval, cfg.Storage.GCDiscardRatio, logger))
	tree.AddMessagingService(services.NewStreamService(pipeline))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("supervision tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
