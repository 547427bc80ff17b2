package client

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts API traffic through the shared client
type Metrics struct {
	requests      *prometheus.CounterVec
	forcedLogouts prometheus.Counter
}

// NewMetrics creates and registers the client metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmadmin",
			Subsystem: "api_client",
			Name:      "requests_total",
			Help:      "API requests issued, by method and response status (0 = transport error).",
		}, []string{"method", "status"}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llmadmin",
			Subsystem: "api_client",
			Name:      "forced_logouts_total",
			Help:      "Sessions ended because the API answered 401.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.forcedLogouts)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}
