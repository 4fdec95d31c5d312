// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

// Package viewstream carries view telemetry from the HTTP surface to the
// recommendation engine over an in-process Watermill pipeline.
//
// The API handler publishes a ViewRecorded event and responds immediately;
// a router consumer appends the view through the engine. Recording is
// best-effort by contract: pipeline failures are logged and counted, never
// surfaced to the viewer.
package viewstream
