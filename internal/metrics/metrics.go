// Featforge - Declarative Feature Engineering for Recommendation Data
// Copyright 2026 The Featforge Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/featforge/featforge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Preprocessing Metrics
	BatchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featforge_batches_processed_total",
			Help: "Total number of preprocessed batches",
		},
		[]string{"status"}, // "ok", "error"
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "featforge_batch_duration_seconds",
			Help:    "Wall time spent preprocessing one batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchExamples = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "featforge_batch_examples",
			Help:    "Number of examples per preprocessed batch",
			Buckets: []float64{1, 8, 32, 128, 512, 1024, 4096, 16384},
		},
	)

	FeaturesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featforge_features_parsed_total",
			Help: "Total number of features parsed, by feature type",
		},
		[]string{"feature_type"},
	)

	ParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featforge_parse_errors_total",
			Help: "Total number of fatal parse errors",
		},
		[]string{"feature", "error_type"},
	)

	SampledExamples = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "featforge_sampled_examples_total",
			Help: "Total number of examples appended by the sampler collaborator",
		},
	)

	// Vocabulary Cache Metrics
	VocabFileLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "featforge_vocab_file_loads_total",
			Help: "Total number of vocabulary files read from disk",
		},
	)

	VocabCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "featforge_vocab_cache_entries",
			Help: "Current number of cached vocabulary files",
		},
	)

	// Registry Metrics
	RegistryColumns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "featforge_registry_columns",
			Help: "Number of resolved lookup columns in the registry, by side",
		},
		[]string{"side"}, // "wide", "deep", "sequence"
	)

	RegistrySharedGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "featforge_registry_shared_groups",
			Help: "Number of materialized shared-embedding groups",
		},
	)

	FeaturesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "featforge_features_skipped_total",
			Help: "Total number of features skipped because they are absent from the wide/deep map",
		},
	)
)

// RecordBatch records the outcome of one preprocessed batch.
func RecordBatch(examples int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	BatchesProcessed.WithLabelValues(status).Inc()
	if err == nil {
		BatchDuration.Observe(duration.Seconds())
		BatchExamples.Observe(float64(examples))
	}
}

// RecordFeature records one successfully parsed feature.
func RecordFeature(featureType string) {
	FeaturesParsed.WithLabelValues(featureType).Inc()
}

// RecordParseError records a fatal parse error for a feature.
func RecordParseError(feature, errorType string) {
	ParseErrors.WithLabelValues(feature, errorType).Inc()
}

// SetRegistrySizes records the column counts of a freshly built registry.
func SetRegistrySizes(wide, deep, sequence, sharedGroups int) {
	RegistryColumns.WithLabelValues("wide").Set(float64(wide))
	RegistryColumns.WithLabelValues("deep").Set(float64(deep))
	RegistryColumns.WithLabelValues("sequence").Set(float64(sequence))
	RegistrySharedGroups.Set(float64(sharedGroups))
}
