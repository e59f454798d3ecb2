package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chat-archive/internal/domain/sync"
)

// Archive-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Sync run counter by outcome
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "sync_runs_total",
			Help:      "Total background sync runs",
		},
		[]string{"status"},
	)

	// Per-run conversation outcome counters
	SyncConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "sync_conversations_total",
			Help:      "Conversations processed by sync runs",
		},
		[]string{"outcome"},
	)

	// Messages stored by sync runs
	SyncMessagesAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "sync_messages_added_total",
			Help:      "Messages stored by sync runs",
		},
	)

	// Embedding queue depth gauge
	EmbeddingQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "embedding_queue_depth",
			Help:      "Queued embedding jobs awaiting processing",
		},
	)

	// Import counter by format
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archive",
			Subsystem: "api",
			Name:      "imports_total",
			Help:      "Total bulk import requests",
		},
		[]string{"format", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordImport records a bulk import request
func RecordImport(format, status string) {
	ImportsTotal.WithLabelValues(format, status).Inc()
}

// SetEmbeddingQueueDepth sets the current embedding queue depth
func SetEmbeddingQueueDepth(depth int64) {
	EmbeddingQueueDepth.Set(float64(depth))
}

// Recorder feeds sync run outcomes into the counters above.
type Recorder struct{}

var _ sync.Recorder = Recorder{}

// RecordSyncRun implements sync.Recorder.
func (Recorder) RecordSyncRun(result *sync.Result) {
	status := "completed"
	if !result.Success {
		status = "failed"
	}
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncConversationsTotal.WithLabelValues("imported").Add(float64(result.Imported))
	SyncConversationsTotal.WithLabelValues("updated").Add(float64(result.Updated))
	SyncConversationsTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	SyncConversationsTotal.WithLabelValues("failed").Add(float64(result.Failed))
	SyncMessagesAddedTotal.Add(float64(result.MessagesAdded))
}
