package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/netresearch/ldap-rest-auth/internal/directory"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ldap_rest_auth",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "pattern", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ldap_rest_auth",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "pattern"})

	authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ldap_rest_auth",
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts by outcome.",
	}, []string{"outcome"})
)

func observeRequest(method, pattern string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, pattern).Observe(elapsed.Seconds())
}

func observeAuthOutcome(result directory.AuthResult) {
	outcome := "rejected"
	switch {
	case result.Authenticated && result.HasRequiredGroup:
		outcome = "allowed"
	case result.Authenticated:
		outcome = "forbidden"
	}
	authAttemptsTotal.WithLabelValues(outcome).Inc()
}
