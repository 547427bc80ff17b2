package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests  *prometheus.HistogramVec
	redirects *prometheus.CounterVec
	proxied   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llmadmin",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Gateway request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmadmin",
			Subsystem: "gateway",
			Name:      "auth_redirects_total",
			Help:      "Redirects issued by the route guard, by reason.",
		}, []string{"reason"}),
		proxied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmadmin",
			Subsystem: "gateway",
			Name:      "proxied_responses_total",
			Help:      "Backend responses relayed through /api, by status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.requests, m.redirects, m.proxied)
	return m
}

func (m *metrics) observeRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *metrics) redirect(reason string) {
	m.redirects.WithLabelValues(reason).Inc()
}

func (m *metrics) proxiedResponse(status int) {
	m.proxied.WithLabelValues(strconv.Itoa(status)).Inc()
}
