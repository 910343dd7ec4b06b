package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "livedocs", Name: "document_operations_total", Help: "Number of document mutations by operation."},
		[]string{"op"},
	)
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "livedocs", Name: "upstream_requests_total", Help: "Number of calls to external collaborators by service and outcome."},
		[]string{"service", "outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "livedocs", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "livedocs", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentOps)
	reg.MustRegister(UpstreamRequests)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
