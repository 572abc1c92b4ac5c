// Package metrics defines and registers all custom Prometheus metrics for
// the tenant gateway. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// package init; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// ProxyRequestsTotal counts requests that completed the full pipeline and
// received an upstream response.
// Labels:
//   - route: the matched endpoint prefix
//   - code: the upstream status code relayed to the caller
var ProxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Total number of proxied requests, by route and relayed status code.",
	},
	[]string{"route", "code"},
)

// AuthRejectionsTotal counts requests rejected before authorization.
// Label:
//   - reason: "missing_header", "invalid_token", or "binding_failed"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected during token validation or claim binding.",
	},
	[]string{"reason"},
)

// AuthzDenialsTotal counts authenticated requests denied by the
// authorization engine.
// Label:
//   - resource: the resolved resource name the denial applied to
var AuthzDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denials_total",
		Help:      "Total number of requests denied by role-based authorization.",
	},
	[]string{"resource"},
)

// UpstreamErrorsTotal counts forwarding attempts that failed to reach the
// upstream.
// Label:
//   - route: the matched endpoint prefix
var UpstreamErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_errors_total",
		Help:      "Total number of forwarding attempts that could not reach the upstream.",
	},
	[]string{"route"},
)

// UpstreamDuration measures the time from dispatching the upstream request
// to receiving its response headers.
// Label:
//   - route: the matched endpoint prefix
var UpstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_duration_seconds",
		Help:      "Duration of upstream calls for proxied requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"route"},
)
