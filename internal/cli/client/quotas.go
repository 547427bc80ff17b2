package client

import (
	"context"
	"net/url"
)

const quotasBasePath = "/api/quotas"

// QuotaLimit is a tenant's token or request allowance for a period
type QuotaLimit struct {
	ID       string `json:"id" yaml:"id"`
	TenantID string `json:"tenantId" yaml:"tenantId"`
	Type     string `json:"type" yaml:"type"`     // TOKENS, REQUESTS
	Limit    int64  `json:"limit" yaml:"limit"`
	Period   string `json:"period" yaml:"period"` // DAILY, MONTHLY, YEARLY
	Used     int64  `json:"used" yaml:"used"`
}

// Remaining returns what is left of the limit, never negative
func (q QuotaLimit) Remaining() int64 {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// UsagePoint is one sample of quota consumption
type UsagePoint struct {
	Date  string `json:"date" yaml:"date"`
	Value int64  `json:"value" yaml:"value"`
}

// QuotaUsage summarizes consumption over a period
type QuotaUsage struct {
	Used      int64        `json:"used" yaml:"used"`
	Total     int64        `json:"total" yaml:"total"`
	Period    string       `json:"period" yaml:"period"`
	StartDate string       `json:"startDate" yaml:"startDate"`
	EndDate   string       `json:"endDate" yaml:"endDate"`
	Usage     []UsagePoint `json:"usage" yaml:"usage"`
}

// ListQuotaLimits returns the quota limits visible to the caller
func (c *Client) ListQuotaLimits(ctx context.Context) ([]QuotaLimit, error) {
	return listResources[QuotaLimit](ctx, c, quotasBasePath+"/limits")
}

// GetQuotaUsage returns usage for a period (empty means the server default)
func (c *Client) GetQuotaUsage(ctx context.Context, period string) (*QuotaUsage, error) {
	q := url.Values{}
	q.Set("period", period)
	return getResource[QuotaUsage](ctx, c, withQuery(quotasBasePath+"/usage", q))
}
