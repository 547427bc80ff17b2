package client

import (
	"context"
	"net/url"
)

const observabilityBasePath = "/api/metrics"

// Metric series served by the observability endpoints
const (
	SeriesRequests = "requests"
	SeriesTokens   = "tokens"
	SeriesErrors   = "errors"
)

// MetricPoint is one sample of a series
type MetricPoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
}

// MetricData maps a series name to its samples
type MetricData map[string][]MetricPoint

// MetricTrends are period-over-period changes in percent
type MetricTrends struct {
	Users    float64 `json:"users" yaml:"users"`
	Requests float64 `json:"requests" yaml:"requests"`
	Tokens   float64 `json:"tokens" yaml:"tokens"`
	Errors   float64 `json:"errors" yaml:"errors"`
}

// DashboardMetrics is the platform overview
type DashboardMetrics struct {
	TotalUsers    int64        `json:"totalUsers" yaml:"totalUsers"`
	TotalRequests int64        `json:"totalRequests" yaml:"totalRequests"`
	TotalTokens   int64        `json:"totalTokens" yaml:"totalTokens"`
	ErrorRate     float64      `json:"errorRate" yaml:"errorRate"`
	Trends        MetricTrends `json:"trends" yaml:"trends"`
	Graphs        struct {
		Requests []MetricPoint `json:"requests" yaml:"requests"`
		Tokens   []MetricPoint `json:"tokens" yaml:"tokens"`
		Errors   []MetricPoint `json:"errors" yaml:"errors"`
	} `json:"graphs" yaml:"graphs"`
}

// MetricsParams bounds a metrics query. Zero values use the server defaults.
type MetricsParams struct {
	StartDate string
	EndDate   string
	Interval  string // hour, day, week, month
}

func (p MetricsParams) query() url.Values {
	q := url.Values{}
	q.Set("startDate", p.StartDate)
	q.Set("endDate", p.EndDate)
	q.Set("interval", p.Interval)
	return q
}

// GetDashboardMetrics returns the platform overview
func (c *Client) GetDashboardMetrics(ctx context.Context, params MetricsParams) (*DashboardMetrics, error) {
	return getResource[DashboardMetrics](ctx, c, withQuery(observabilityBasePath+"/dashboard", params.query()))
}

// GetMetricSeries returns one of the requests, tokens or errors series
func (c *Client) GetMetricSeries(ctx context.Context, series string, params MetricsParams) (MetricData, error) {
	data, err := getResource[MetricData](ctx, c, withQuery(resourcePath(observabilityBasePath+"/%s", series), params.query()))
	if err != nil {
		return nil, err
	}
	return *data, nil
}
