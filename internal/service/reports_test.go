package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/unclebandit/smsleopard-dashboard/internal/export"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

type fakeReportsAPI struct {
	body     string
	campaign string
}

func (f *fakeReportsAPI) Reports(ctx context.Context, campaignName string) (model.Record, error) {
	f.campaign = campaignName
	return rec(f.body), nil
}

func TestReportsRowsAndExport(t *testing.T) {
	fake := &fakeReportsAPI{body: `{"reports":[
		{"id":1,"campaign_name":"Promo","successful_sends":90,"failed_sends":10},
		{"id":2,"campaign_name":"Launch","total_sent":500,"successful_sends":480,"failed_sends":20}
	]}`}
	toasts := &recordingToaster{}
	r := service.NewReports(fake, toasts)

	if err := r.FilterCampaign(context.Background(), "Promo"); err != nil {
		t.Fatal(err)
	}
	if fake.campaign != "Promo" {
		t.Errorf("campaign filter not sent: %q", fake.campaign)
	}
	rows := r.List.Snapshot().Value
	if len(rows) != 2 || rows[0].Sent != "100" || rows[1].Sent != "500" {
		t.Errorf("unexpected rows %+v", rows)
	}

	dl, err := r.Export(export.CSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dl.FileName, "reports_") || !strings.HasSuffix(dl.FileName, ".csv") {
		t.Errorf("unexpected file name %q", dl.FileName)
	}
	if !strings.Contains(string(dl.Data), "Promo") {
		t.Errorf("export missing data: %s", dl.Data)
	}
	if toasts.last().Message != "Report exported" {
		t.Errorf("unexpected toast %+v", toasts.last())
	}
}

func TestReportsExportWithoutData(t *testing.T) {
	toasts := &recordingToaster{}
	r := service.NewReports(&fakeReportsAPI{body: `{"reports":[]}`}, toasts)
	_ = r.Load(context.Background())

	if _, err := r.Export(export.CSV); !errors.Is(err, export.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if got := toasts.last(); got.Level != model.ToastWarning || got.Message != "No data to export" {
		t.Errorf("unexpected toast %+v", got)
	}
}

type fakeAuditAPI struct{ query url.Values }

func (f *fakeAuditAPI) AuditLog(ctx context.Context, q url.Values) (model.Record, error) {
	f.query = q
	return rec(`{"entries":[{"action":"create","entity_type":"campaign","entity_id":"7","details":"created"}]}`), nil
}

func TestAuditFilterAndRows(t *testing.T) {
	fake := &fakeAuditAPI{}
	a := service.NewAudit(fake, &recordingToaster{})

	if err := a.FilterEntity(context.Background(), "campaign"); err != nil {
		t.Fatal(err)
	}
	if fake.query.Get("entity_type") != "campaign" || fake.query.Get("limit") != "100" {
		t.Errorf("unexpected query %v", fake.query)
	}
	rows := a.List.Snapshot().Value
	if len(rows) != 1 || rows[0].User != "system" || rows[0].Action != "create" {
		t.Errorf("unexpected rows %+v", rows)
	}
}
