package view

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/app"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

type memRepo struct{ s model.Settings }

func (m *memRepo) Load(ctx context.Context) (model.Settings, bool, error) { return m.s, true, nil }
func (m *memRepo) Save(ctx context.Context, s model.Settings) error      { m.s = s; return nil }

func testModules(t *testing.T) app.Modules {
	t.Helper()
	store, err := service.NewSettingsStore(context.Background(), &memRepo{s: model.Settings{APIKey: "secret-key"}}, model.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	return app.Modules{
		Dashboard: service.NewDashboard(nil, time.Minute),
		Clients:   service.NewClients(nil, nil),
		Campaigns: service.NewCampaigns(nil, nil),
		Workflow:  service.NewWorkflow(nil, nil, time.Minute),
		Analytics: service.NewAnalytics(nil, nil),
		Approvals: service.NewApprovals(nil, nil),
		Agents:    service.NewAgents(nil, time.Minute),
		Reports:   service.NewReports(nil, nil),
		Audit:     service.NewAudit(nil, nil),
		Settings:  service.NewSettings(nil, store, nil),
		Companies: service.NewCompanies(nil, store, nil),
	}
}

func TestEveryPageRenders(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	pages := app.Registry(testModules(t))
	for _, p := range pages {
		if !r.Has(p.ID) {
			t.Errorf("no template for %s", p.ID)
			continue
		}
		var buf bytes.Buffer
		data := Data{
			Shell: Shell{
				Pages:   pages,
				Current: p.ID,
				Title:   p.Label,
				Health:  app.Health{State: app.HealthOnline, Title: "API Online"},
				Companies: []service.CompanyOption{
					{ID: "", Label: "All Companies", Selected: true},
				},
				Toasts: []model.Toast{{ID: "t1", Level: model.ToastSuccess, Message: "Saved <ok>"}},
			},
			Page: p.Module,
		}
		if err := r.Render(&buf, p.ID, data); err != nil {
			t.Errorf("%s: %v", p.ID, err)
			continue
		}
		out := buf.String()
		if !strings.Contains(out, "<title>"+p.Label) {
			t.Errorf("%s: title missing", p.ID)
		}
		if !strings.Contains(out, "Saved &lt;ok&gt;") {
			t.Errorf("%s: toast not escaped", p.ID)
		}
		if !strings.Contains(out, "status-online") {
			t.Errorf("%s: health indicator missing", p.ID)
		}
	}
}

func TestRefreshMeta(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	mods := testModules(t)
	var buf bytes.Buffer
	err = r.Render(&buf, "dashboard", Data{Shell: Shell{Title: "Dashboard", Refresh: 30}, Page: mods.Dashboard})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `http-equiv="refresh" content="30"`) {
		t.Error("refresh meta missing")
	}

	buf.Reset()
	if err := r.Render(&buf, "clients", Data{Shell: Shell{Title: "Clients"}, Page: mods.Clients}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "http-equiv") {
		t.Error("static page should not refresh")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(&bytes.Buffer{}, "nope", Data{}); err == nil {
		t.Error("expected error for unknown page")
	}
}
