package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels shared by the request counters.
const (
	OutcomeOK           = "ok"
	OutcomeNetworkError = "network_error"
	OutcomeRemoteError  = "remote_error"
	OutcomeAbsent       = "absent"
	OutcomeError        = "error"
)

var (
	// UpstreamRequestsTotal counts requests to the indexing API by outcome.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_upstream_requests_total",
			Help: "Requests issued to the indexing API, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	// ContractResolutionsTotal counts contract resolution attempts by outcome.
	ContractResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_contract_resolutions_total",
			Help: "Contract resolution attempts, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	// MetadataLoadsTotal counts per-token metadata loads by outcome.
	MetadataLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_metadata_loads_total",
			Help: "Per-token metadata loads, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	// GalleryBuildDuration observes the duration of full rendering passes.
	GalleryBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_build_duration_seconds",
			Help:    "Duration of full gallery rendering passes.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main before serving.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		ContractResolutionsTotal,
		MetadataLoadsTotal,
		GalleryBuildDuration,
	)
}
