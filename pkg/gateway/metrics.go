package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/internal/build"
)

const (
	resourcePosts    = "posts"
	resourceUsers    = "users"
	resourceComments = "comments"
	resourcePost     = "post"
	resourceUser     = "user"
)

var (
	cacheLookupCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "gateway_cache_lookups_total",
		Help:      "The total number of gateway cache lookups, partitioned by resource and hit/miss.",
	}, []string{"resource", "result"})

	remoteRequestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "gateway_remote_requests_total",
		Help:      "The total number of requests sent to the content API, partitioned by resource and outcome.",
	}, []string{"resource", "outcome"})

	deduplicatedFetchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "gateway_deduplicated_fetches_total",
		Help:      "The total number of fetches that shared an in-flight request for the same key.",
	}, []string{"resource"})

	remoteRequestDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: build.ProjectName,
		Name:      "gateway_remote_request_duration_ms",
		Help:      "The latency (in ms) of requests sent to the content API.",
		Buckets:   []float64{5, 10, 25, 50, 100, 200, 500, 1000, 2500, 5000},
	}, []string{"resource"})
)

func recordLookup(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupCounter.WithLabelValues(resource, result).Inc()
}
