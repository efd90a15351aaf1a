package service

import (
	"context"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

type DashboardAPI interface {
	Dashboard(ctx context.Context) (model.Record, error)
	HealthReady(ctx context.Context) (model.Record, error)
	Metrics(ctx context.Context) (model.Record, error)
	AgentsStatus(ctx context.Context) (model.Record, error)
}

type DashboardStats struct {
	Clients          string
	Campaigns        string
	PendingApprovals string
	RunningWorkflows string
}

type RecentCampaign struct {
	Name   string
	Status string
	When   string
}

type DashboardSummary struct {
	Stats  DashboardStats
	Recent []RecentCampaign
}

type HealthCheck struct {
	Name string
	OK   bool
}

type MetricPill struct {
	Label string
	Value string
}

type AgentPreview struct {
	Name     string
	Online   bool
	LastSeen string
}

// Dashboard is the home page: headline stats, readiness, system metrics,
// recent campaigns and an agent preview, refreshed while visible.
type Dashboard struct {
	page
	API      DashboardAPI
	Interval time.Duration

	Summary lifecycle.View[DashboardSummary]
	Health  lifecycle.View[[]HealthCheck]
	Metrics lifecycle.View[[]MetricPill]
	Agents  lifecycle.View[[]AgentPreview]
}

func NewDashboard(api DashboardAPI, interval time.Duration) *Dashboard {
	return &Dashboard{API: api, Interval: interval}
}

func (d *Dashboard) OnPageActive(ctx context.Context) {
	d.tasks.Go(ctx, "dashboard.refresh", d.Interval, d.LoadAll)
}

func (d *Dashboard) OnPageInactive() {
	d.stop()
	d.Summary.Invalidate()
	d.Health.Invalidate()
	d.Metrics.Invalidate()
	d.Agents.Invalidate()
}

// LoadAll refreshes every panel; each panel fails on its own.
func (d *Dashboard) LoadAll(ctx context.Context) {
	fanOut(ctx, "dashboard", d.LoadSummary, d.LoadHealth, d.LoadMetrics, d.LoadAgents)
}

func (d *Dashboard) LoadSummary(ctx context.Context) error {
	return fill(ctx, &d.Summary, func(ctx context.Context) (DashboardSummary, error) {
		res, err := d.API.Dashboard(ctx)
		if err != nil {
			return DashboardSummary{}, err
		}
		return dashboardSummary(res), nil
	})
}

func dashboardSummary(res model.Record) DashboardSummary {
	count := func(paths ...string) string {
		if v, ok := res.Float(paths...); ok {
			return render.FormatNumber(v)
		}
		return "0"
	}
	sum := DashboardSummary{
		Stats: DashboardStats{
			Clients:          count("total_active_clients", "total_clients"),
			Campaigns:        count("total_campaigns"),
			PendingApprovals: count("pending_approvals"),
			RunningWorkflows: count("running_workflows"),
		},
	}
	recent := res.Get("recent_campaigns").List()
	if len(recent) > 5 {
		recent = recent[:5]
	}
	sum.Recent = rows(recent, func(c model.Record) RecentCampaign {
		return RecentCampaign{
			Name:   c.Str("campaign_name", "name"),
			Status: c.Str("status"),
			When:   render.FormatDate(c.Str("scheduled_time", "created_at")),
		}
	})
	return sum
}

func (d *Dashboard) LoadHealth(ctx context.Context) error {
	return fill(ctx, &d.Health, func(ctx context.Context) ([]HealthCheck, error) {
		res, err := d.API.HealthReady(ctx)
		if err != nil {
			return nil, err
		}
		return healthChecks(res), nil
	})
}

// healthChecks reads the readiness map, either under "checks" or at the top
// level.
func healthChecks(res model.Record) []HealthCheck {
	checks := res
	if res.Get("checks").IsObject() {
		checks = res.Get("checks")
	}
	var out []HealthCheck
	for _, e := range checks.Entries() {
		out = append(out, HealthCheck{Name: render.Label(e.Key), OK: render.CheckOK(e.Value)})
	}
	return out
}

func (d *Dashboard) LoadMetrics(ctx context.Context) error {
	return fill(ctx, &d.Metrics, func(ctx context.Context) ([]MetricPill, error) {
		res, err := d.API.Metrics(ctx)
		if err != nil {
			return nil, err
		}
		return metricPills(res), nil
	})
}

func metricPills(m model.Record) []MetricPill {
	var out []MetricPill
	if up, ok := m.Float("uptime_seconds"); ok && up > 0 {
		out = append(out, MetricPill{Label: "Uptime", Value: render.FormatUptime(up)})
	}
	for _, p := range []struct{ key, label string }{
		{"total_requests", "Requests"},
		{"campaigns_processed", "Campaigns Run"},
		{"messages_sent", "Messages"},
	} {
		if m.Has(p.key) {
			out = append(out, MetricPill{Label: p.label, Value: render.FormatNumber(m.Get(p.key))})
		}
	}
	return out
}

func (d *Dashboard) LoadAgents(ctx context.Context) error {
	return fill(ctx, &d.Agents, func(ctx context.Context) ([]AgentPreview, error) {
		res, err := d.API.AgentsStatus(ctx)
		if err != nil {
			return nil, err
		}
		var out []AgentPreview
		for _, e := range res.Get("agents").Entries() {
			online := e.Value.Str("status") == "online"
			p := AgentPreview{Name: e.Key, Online: online}
			if online {
				p.LastSeen = render.TimeAgo(e.Value.Str("last_seen"))
			}
			out = append(out, p)
		}
		return out, nil
	})
}
