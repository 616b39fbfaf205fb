package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingest result label values.
const (
	IngestResultCreated   = "created"
	IngestResultDuplicate = "duplicate"
	IngestResultFailed    = "failed"
)

// ReportsIngestedTotal counts report ingestion outcomes.
var ReportsIngestedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "consdex",
		Name:      "reports_ingested_total",
		Help:      "Total report ingestion attempts by outcome",
	},
	[]string{"result"},
)

// IngestEmbeddingFailuresTotal counts narrative vectors that could not be
// derived or stored during ingest. The report rows themselves survive.
var IngestEmbeddingFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "consdex",
		Name:      "ingest_embedding_failures_total",
		Help:      "Total narrative embeddings lost to encoder or store failures during ingest",
	},
)

var registerIngestOnce sync.Once

// RegisterIngestMetrics registers the ingest instruments with the
// default registry. Safe to call more than once.
func RegisterIngestMetrics() {
	registerIngestOnce.Do(func() {
		prometheus.MustRegister(ReportsIngestedTotal, IngestEmbeddingFailuresTotal)
	})
}
