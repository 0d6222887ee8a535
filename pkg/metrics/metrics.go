// Package metrics provides the Prometheus registry used by the ingestion pipeline.
// Collectors are defined in their respective packages (petfinder, token, store,
// collector, pacer) to keep those packages independent of each other.
//
// This package provides the registry, the HTTP handler and the metric catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry; all collectors register via promauto.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing every registered collector.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metric catalogue
//
// Petfinder client (pkg/petfinder):
//   - petfinder_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - petfinder_request_duration_seconds{endpoint} (Histogram): request latency
//   - petfinder_errors_total{class} (Counter): errors by class (client, server, rate_limit, network, auth)
//
// Token manager (pkg/token):
//   - petfinder_token_refreshes_total{result} (Counter): token exchanges by result (success, failure)
//
// Pacing (pkg/pacer):
//   - shelter_pacing_wait_seconds{step} (Histogram): time spent in fixed pacing delays
//
// Store (pkg/store):
//   - shelter_records_saved_total{entity, op} (Counter): saved rows by entity and op (created, updated, skipped)
//   - shelter_records_failed_total{entity} (Counter): per-record save failures
//
// Collector (pkg/collector):
//   - shelter_pages_fetched_total (Counter): listing pages processed by collection runs
//   - shelter_collection_runs_total{stop} (Counter): finished runs by stop reason
//
// Example queries:
//
//   # Save failure ratio
//   sum(rate(shelter_records_failed_total[5m])) / sum(rate(shelter_records_saved_total[5m]))
//
//   # P95 Petfinder latency
//   histogram_quantile(0.95, rate(petfinder_request_duration_seconds_bucket[5m]))
