package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

type fakeDashboardAPI struct {
	metricsErr error
}

func (f *fakeDashboardAPI) Dashboard(ctx context.Context) (model.Record, error) {
	return rec(`{
		"total_active_clients": 1250, "total_campaigns": 18, "pending_approvals": 2, "running_workflows": 0,
		"recent_campaigns": [
			{"campaign_name":"A","status":"completed"},{"name":"B"},{"name":"C"},
			{"name":"D"},{"name":"E"},{"name":"F"}
		]
	}`), nil
}

func (f *fakeDashboardAPI) HealthReady(ctx context.Context) (model.Record, error) {
	return rec(`{"checks":{"database":"ok","n8n":false}}`), nil
}

func (f *fakeDashboardAPI) Metrics(ctx context.Context) (model.Record, error) {
	if f.metricsErr != nil {
		return model.Record{}, f.metricsErr
	}
	return rec(`{"uptime_seconds": 7200, "total_requests": 1500}`), nil
}

func (f *fakeDashboardAPI) AgentsStatus(ctx context.Context) (model.Record, error) {
	return rec(`{"agents":{"scheduler":{"status":"online","last_seen":"2024-01-01T00:00:00Z"},"sender":{"status":"offline"}}}`), nil
}

func TestDashboardLoadAll(t *testing.T) {
	d := service.NewDashboard(&fakeDashboardAPI{}, time.Hour)
	d.LoadAll(context.Background())

	sum := d.Summary.Snapshot().Value
	if sum.Stats.Clients != "1,250" || sum.Stats.Campaigns != "18" || sum.Stats.RunningWorkflows != "0" {
		t.Errorf("unexpected stats %+v", sum.Stats)
	}
	if len(sum.Recent) != 5 {
		t.Errorf("expected 5 recent campaigns, got %d", len(sum.Recent))
	}

	checks := d.Health.Snapshot().Value
	if len(checks) != 2 || !checks[0].OK || checks[1].OK {
		t.Errorf("unexpected checks %+v", checks)
	}

	agents := d.Agents.Snapshot().Value
	if len(agents) != 2 || !agents[0].Online || agents[1].Online {
		t.Errorf("unexpected agents %+v", agents)
	}
}

func TestDashboardPanelsFailIndependently(t *testing.T) {
	d := service.NewDashboard(&fakeDashboardAPI{metricsErr: errors.New("HTTP 500")}, time.Hour)
	d.LoadAll(context.Background())

	if d.Metrics.Snapshot().Err == nil {
		t.Error("metrics panel should carry its error")
	}
	if snap := d.Summary.Snapshot(); snap.Err != nil || !snap.Loaded {
		t.Errorf("summary affected by metrics failure: %+v", snap)
	}
}

func TestDashboardStopsRefreshingWhenInactive(t *testing.T) {
	d := service.NewDashboard(&fakeDashboardAPI{}, 5*time.Millisecond)
	d.OnPageActive(context.Background())
	if d.RunningTasks() != 1 {
		t.Fatalf("expected one refresh task, got %d", d.RunningTasks())
	}
	d.OnPageInactive()
	if d.RunningTasks() != 0 {
		t.Errorf("refresh task still running after leaving the page")
	}
}
