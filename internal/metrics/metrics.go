// Package metrics exposes Prometheus counters for indexing and retrieval.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for embedding calls.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Query paths.
const (
	PathVector = "vector"
	PathText   = "text"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	embedCalls     *prometheus.CounterVec
	embedRetries   prometheus.Counter
	embedDuration  prometheus.Histogram
	chunksDropped  prometheus.Counter
	chunksUpserted prometheus.Counter
	filesIndexed   prometheus.Counter
	vectorsRetired prometheus.Counter
	queries        *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		embedCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coderag_embed_calls_total",
				Help: "Embedding calls by outcome",
			},
			[]string{"outcome"},
		),
		embedRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderag_embed_retries_total",
			Help: "Embedding attempts that were retries of a failed call",
		}),
		embedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coderag_embed_duration_seconds",
			Help:    "Latency of single embedding calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		chunksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderag_chunks_dropped_total",
			Help: "Chunks dropped after exhausting embedding retries",
		}),
		chunksUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderag_chunks_upserted_total",
			Help: "Chunks written to the vector store",
		}),
		filesIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderag_files_indexed_total",
			Help: "Files successfully reindexed",
		}),
		vectorsRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderag_file_versions_retired_total",
			Help: "Previous file versions deleted from the vector store",
		}),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coderag_queries_total",
				Help: "Retrieval queries by path (vector or text fallback)",
			},
			[]string{"path"},
		),
	}
	m.registry.MustRegister(
		m.embedCalls, m.embedRetries, m.embedDuration,
		m.chunksDropped, m.chunksUpserted, m.filesIndexed, m.vectorsRetired,
		m.queries,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes every collector to path in the Prometheus text
// format, replacing the file atomically. A nil receiver or empty path
// writes nothing.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

func (m *Metrics) EmbedCall(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.embedCalls.WithLabelValues(outcome).Inc()
	m.embedDuration.Observe(seconds)
}

func (m *Metrics) EmbedRetry() {
	if m != nil {
		m.embedRetries.Inc()
	}
}

func (m *Metrics) ChunkDropped() {
	if m != nil {
		m.chunksDropped.Inc()
	}
}

func (m *Metrics) ChunksUpserted(n int) {
	if m != nil {
		m.chunksUpserted.Add(float64(n))
	}
}

func (m *Metrics) FileIndexed() {
	if m != nil {
		m.filesIndexed.Inc()
	}
}

func (m *Metrics) VersionRetired() {
	if m != nil {
		m.vectorsRetired.Inc()
	}
}

func (m *Metrics) Query(path string) {
	if m != nil {
		m.queries.WithLabelValues(path).Inc()
	}
}
