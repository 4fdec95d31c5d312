// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// fakeHTTPServer blocks in ListenAndServe until Shutdown is called.
type fakeHTTPServer struct {
	listenErr error
	closed    chan struct{}
	shutdowns atomic.Int64
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{closed: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closed
	return errors.New("http: Server closed")
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.closed)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newFakeHTTPServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", srv.shutdowns.Load())
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	t.Parallel()

	srv := newFakeHTTPServer()
	srv.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
}

// fakeRunner blocks in Run until the context is canceled, or fails
// immediately when err is set.
type fakeRunner struct {
	err error
}

func (f *fakeRunner) Run(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeRunner) Close() error { return nil }

func TestStreamServiceStopsWithContext(t *testing.T) {
	t.Parallel()

	svc := NewStreamService(&fakeRunner{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStreamServiceReportsFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("router crashed")
	svc := NewStreamService(&fakeRunner{err: cause})

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, cause) {
		t.Errorf("Serve() = %v, want wrapped %v", err, cause)
	}
}

// fakeGCStore returns a scripted sequence of GC results.
type fakeGCStore struct {
	results []error
	calls   int
}

func (f *fakeGCStore) RunValueLogGC(float64) error {
	if f.calls >= len(f.results) {
		return badger.ErrNoRewrite
	}
	err := f.results[f.calls]
	f.calls++
	return err
}

func TestGCServiceRunsUntilNoRewrite(t *testing.T) {
	t.Parallel()

	store := &fakeGCStore{results: []error{nil, nil, badger.ErrNoRewrite}}
	svc := NewGCService(store, time.Minute, 0.5, zerolog.Nop())

	svc.runOnce()
	if store.calls != 3 {
		t.Errorf("GC calls = %d, want 3", store.calls)
	}
}

func TestGCServiceStopsOnError(t *testing.T) {
	t.Parallel()

	store := &fakeGCStore{results: []error{errors.New("disk full")}}
	svc := NewGCService(store, time.Minute, 0.5, zerolog.Nop())

	svc.runOnce()
	if store.calls != 1 {
		t.Errorf("GC calls = %d, want 1", store.calls)
	}
}

func TestGCServiceServeStopsWithContext(t *testing.T) {
	t.Parallel()

	svc := NewGCService(&fakeGCStore{}, 10*time.Millisecond, 0.5, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
}

func TestServiceNames(t *testing.T) {
	t.Parallel()

	if got := NewHTTPServerService(newFakeHTTPServer(), 0).String(); got != "http-server" {
		t.Errorf("http service name = %q", got)
	}
	if got := NewStreamService(&fakeRunner{}).String(); got != "view-pipeline" {
		t.Errorf("stream service name = %q", got)
	}
	if got := NewGCService(&fakeGCStore{}, 0, 0, zerolog.Nop()).String(); got != "store-gc" {
		t.Errorf("gc service name = %q", got)
	}
}
