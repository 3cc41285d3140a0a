// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

// Package metrics exposes Prometheus instrumentation for the feature
// engine:
//
//   - batch preprocessing throughput and latency
//   - per-feature-type parse counts
//   - parse errors by feature
//   - vocabulary file cache activity
//   - registry construction outcomes
//
// Collectors are registered with promauto at package load. Callers that
// embed the engine into a service can expose them through their own
// /metrics handler; the one-shot CLI simply leaves them unscraped.
package metrics
