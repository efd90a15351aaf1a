package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

func seg(id string) string { return url.PathEscape(id) }

func (c *Client) scopedGet(ctx context.Context, path string, query url.Values) (model.Record, error) {
	return c.record(ctx, request{method: http.MethodGet, path: path, query: query, scoped: true})
}

// Health

func (c *Client) Root(ctx context.Context) (model.Record, error) { return c.Get(ctx, "/", nil) }
func (c *Client) Health(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/health", nil)
}
func (c *Client) HealthReady(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/health/ready", nil)
}
func (c *Client) HealthLive(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/health/live", nil)
}
func (c *Client) Metrics(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/health/metrics", nil)
}

// Dashboard

func (c *Client) Dashboard(ctx context.Context) (model.Record, error) {
	return c.scopedGet(ctx, "/api/dashboard", nil)
}

// Clients

func (c *Client) Clients(ctx context.Context, query url.Values) (model.Record, error) {
	return c.scopedGet(ctx, "/api/clients", query)
}
func (c *Client) ClientByID(ctx context.Context, id string) (model.Record, error) {
	return c.Get(ctx, "/api/clients/"+seg(id), nil)
}
func (c *Client) CreateClient(ctx context.Context, data any) (model.Record, error) {
	return c.Post(ctx, "/api/clients", nil, data)
}
func (c *Client) UpdateClient(ctx context.Context, id string, data any) (model.Record, error) {
	return c.Put(ctx, "/api/clients/"+seg(id), data)
}
func (c *Client) DeleteClient(ctx context.Context, id string) (model.Record, error) {
	return c.Delete(ctx, "/api/clients/"+seg(id))
}
func (c *Client) BulkCreateClients(ctx context.Context, clients any) (model.Record, error) {
	return c.Post(ctx, "/api/clients/bulk", nil, clients)
}
func (c *Client) ExportClientsXLSX(ctx context.Context, audience string) (Blob, error) {
	return c.Download(ctx, "/api/clients/export/xlsx", optional("audience_type", audience))
}
func (c *Client) ImportClientsXLSX(ctx context.Context, filename string, file io.Reader) (model.Record, error) {
	return c.UploadFile(ctx, "/api/clients/import/xlsx", "file", filename, file)
}

// Campaigns

func (c *Client) Campaigns(ctx context.Context, query url.Values) (model.Record, error) {
	return c.scopedGet(ctx, "/api/campaigns", query)
}
func (c *Client) ActiveCampaigns(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/campaigns/active", nil)
}
func (c *Client) Campaign(ctx context.Context, id string) (model.Record, error) {
	return c.Get(ctx, "/api/campaigns/"+seg(id), nil)
}
func (c *Client) CreateCampaign(ctx context.Context, data any) (model.Record, error) {
	return c.Post(ctx, "/api/campaigns", nil, data)
}
func (c *Client) UpdateCampaign(ctx context.Context, id string, data any) (model.Record, error) {
	return c.Put(ctx, "/api/campaigns/"+seg(id), data)
}
func (c *Client) DeleteCampaign(ctx context.Context, id string) (model.Record, error) {
	return c.Delete(ctx, "/api/campaigns/"+seg(id))
}
func (c *Client) BulkCreateCampaigns(ctx context.Context, list any) (model.Record, error) {
	return c.Post(ctx, "/api/campaigns/bulk", nil, list)
}
func (c *Client) SetCampaignTargets(ctx context.Context, id string, data any) (model.Record, error) {
	return c.Post(ctx, "/api/campaigns/"+seg(id)+"/targets", nil, data)
}
func (c *Client) CampaignTargets(ctx context.Context, id string) (model.Record, error) {
	return c.Get(ctx, "/api/campaigns/"+seg(id)+"/targets", nil)
}
func (c *Client) ExportCampaignsXLSX(ctx context.Context, status string) (Blob, error) {
	return c.Download(ctx, "/api/campaigns/export/xlsx", optional("status", status))
}
func (c *Client) ImportCampaignsXLSX(ctx context.Context, filename string, file io.Reader) (model.Record, error) {
	return c.UploadFile(ctx, "/api/campaigns/import/xlsx", "file", filename, file)
}

// Workflow

func (c *Client) TriggerCampaign(ctx context.Context, data any) (model.Record, error) {
	return c.Post(ctx, "/api/campaigns/trigger", nil, data)
}
func (c *Client) TriggerStatus(ctx context.Context, runID string) (model.Record, error) {
	return c.Get(ctx, "/api/campaigns/trigger/"+seg(runID)+"/status", nil)
}
func (c *Client) RunningCampaigns(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/campaigns/running", nil)
}

// CampaignHistory lists recent runs; limit <= 0 uses 20.
func (c *Client) CampaignHistory(ctx context.Context, limit int) (model.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.Get(ctx, "/api/campaigns/history", url.Values{"limit": {strconv.Itoa(limit)}})
}

// Media

func (c *Client) UploadMedia(ctx context.Context, filename string, file io.Reader) (model.Record, error) {
	return c.UploadFile(ctx, "/api/media/upload", "file", filename, file)
}

// Reports

func (c *Client) Reports(ctx context.Context, campaignName string) (model.Record, error) {
	return c.scopedGet(ctx, "/api/reports", optional("campaign_name", campaignName))
}

// Analytics

func (c *Client) AnalyticsOverview(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/overview", nil)
}
func (c *Client) AIRecommendations(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/recommendations", nil)
}
func (c *Client) BestSendTime(ctx context.Context, audience string) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/best-time", url.Values{"audience_type": {audience}})
}
func (c *Client) EvaluateMessage(ctx context.Context, message, audience string) (model.Record, error) {
	return c.Post(ctx, "/api/analytics/evaluate-message", url.Values{"message": {message}, "audience": {audience}}, nil)
}
func (c *Client) SavedRecommendations(ctx context.Context, campaignID string) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/saved-recommendations", optional("campaign_id", campaignID))
}
func (c *Client) ApplyRecommendation(ctx context.Context, id string) (model.Record, error) {
	return c.Post(ctx, "/api/analytics/recommendations/"+seg(id)+"/apply", url.Values{"is_applied": {"true"}}, nil)
}
func (c *Client) DismissRecommendation(ctx context.Context, id string) (model.Record, error) {
	return c.Post(ctx, "/api/analytics/recommendations/"+seg(id)+"/apply", url.Values{"is_applied": {"false"}}, nil)
}
func (c *Client) PerformanceSummary(ctx context.Context, days int) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/performance-summary", daysQuery(days))
}

// PerformanceTrends defaults metric to delivery_rate.
func (c *Client) PerformanceTrends(ctx context.Context, metric string, days int) (model.Record, error) {
	if metric == "" {
		metric = "delivery_rate"
	}
	q := daysQuery(days)
	q.Set("metric", metric)
	return c.Get(ctx, "/api/analytics/trends", q)
}
func (c *Client) AudienceInsights(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/audience-insights", nil)
}
func (c *Client) RecentActivity(ctx context.Context, limit int) (model.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.Get(ctx, "/api/analytics/recent-activity", url.Values{"limit": {strconv.Itoa(limit)}})
}
func (c *Client) RecordMetric(ctx context.Context, campaignID, name string, value float64) (model.Record, error) {
	q := url.Values{
		"campaign_id":  {campaignID},
		"metric_name":  {name},
		"metric_value": {strconv.FormatFloat(value, 'f', -1, 64)},
	}
	return c.Post(ctx, "/api/analytics/record-metric", q, nil)
}

// ExportAnalytics defaults format to json.
func (c *Client) ExportAnalytics(ctx context.Context, start, end, format string) (model.Record, error) {
	if format == "" {
		format = "json"
	}
	q := url.Values{"start_date": {start}, "end_date": {end}, "format": {format}}
	return c.Get(ctx, "/api/analytics/export", q)
}
func (c *Client) KPIs(ctx context.Context, days int) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/kpis", daysQuery(days))
}
func (c *Client) EngagementBreakdown(ctx context.Context, days int) (model.Record, error) {
	return c.Get(ctx, "/api/analytics/engagement-breakdown", daysQuery(days))
}
func (c *Client) StrategicInsights(ctx context.Context, days, limit int) (model.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	q := daysQuery(days)
	q.Set("limit", strconv.Itoa(limit))
	return c.Get(ctx, "/api/analytics/strategic-insights", q)
}

// Approvals

func (c *Client) PendingApprovals(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/approval/pending", nil)
}
func (c *Client) ApproveCampaign(ctx context.Context, id string) (model.Record, error) {
	return c.Post(ctx, "/api/approval/"+seg(id)+"/approve", nil, nil)
}
func (c *Client) RejectCampaign(ctx context.Context, id, feedback string) (model.Record, error) {
	return c.Post(ctx, "/api/approval/"+seg(id)+"/reject", url.Values{"feedback": {feedback}}, nil)
}

// Agents

func (c *Client) AgentRuns(ctx context.Context, query url.Values) (model.Record, error) {
	return c.Get(ctx, "/api/agents/runs", query)
}
func (c *Client) AgentHeartbeats(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/agents/heartbeats", nil)
}
func (c *Client) AgentsStatus(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/agents/status", nil)
}
func (c *Client) PostHeartbeat(ctx context.Context, name, status string, meta any) (model.Record, error) {
	return c.Post(ctx, "/api/agents/"+seg(name)+"/heartbeat", url.Values{"status": {status}}, meta)
}

// Audit

func (c *Client) AuditLog(ctx context.Context, query url.Values) (model.Record, error) {
	return c.Get(ctx, "/api/audit", query)
}

// Companies

func (c *Client) Companies(ctx context.Context, activeOnly bool) (model.Record, error) {
	var q url.Values
	if activeOnly {
		q = url.Values{"active_only": {"true"}}
	}
	return c.Get(ctx, "/api/companies", q)
}
func (c *Client) Company(ctx context.Context, id string) (model.Record, error) {
	return c.Get(ctx, "/api/companies/"+seg(id), nil)
}
func (c *Client) DefaultCompany(ctx context.Context) (model.Record, error) {
	return c.Get(ctx, "/api/companies/default", nil)
}
func (c *Client) CreateCompany(ctx context.Context, data any) (model.Record, error) {
	return c.Post(ctx, "/api/companies", nil, data)
}
func (c *Client) UpdateCompany(ctx context.Context, id string, data any) (model.Record, error) {
	return c.Put(ctx, "/api/companies/"+seg(id), data)
}
func (c *Client) DeleteCompany(ctx context.Context, id string) (model.Record, error) {
	return c.Delete(ctx, "/api/companies/"+seg(id))
}

func optional(key, value string) url.Values {
	if value == "" {
		return nil
	}
	return url.Values{key: {value}}
}

func daysQuery(days int) url.Values {
	if days <= 0 {
		days = 30
	}
	return url.Values{"days": {strconv.Itoa(days)}}
}
