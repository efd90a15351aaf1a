package service

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/export"
	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

type ReportsAPI interface {
	Reports(ctx context.Context, campaignName string) (model.Record, error)
}

type ReportRow struct {
	ID         string
	Campaign   string
	Audience   string
	Sent       string
	Successful string
	Failed     string
	Created    string
}

type Reports struct {
	page
	API    ReportsAPI
	Notify Toaster

	List lifecycle.View[[]ReportRow]

	mu       sync.Mutex
	campaign string
	data     []model.Record
	now      func() time.Time
}

func NewReports(api ReportsAPI, notify Toaster) *Reports {
	return &Reports{API: api, Notify: notify, now: time.Now}
}

func (r *Reports) OnPageActive(ctx context.Context) {
	r.tasks.Go(ctx, "reports.load", 0, func(ctx context.Context) { _ = r.Load(ctx) })
}

func (r *Reports) OnPageInactive() {
	r.stop()
	r.List.Invalidate()
}

// Campaign is the current campaign name filter.
func (r *Reports) Campaign() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.campaign
}

func (r *Reports) FilterCampaign(ctx context.Context, name string) error {
	r.mu.Lock()
	r.campaign = name
	r.mu.Unlock()
	return r.Load(ctx)
}

func (r *Reports) Load(ctx context.Context) error {
	name := r.Campaign()
	err := fill(ctx, &r.List, func(ctx context.Context) ([]ReportRow, error) {
		res, err := r.API.Reports(ctx, name)
		if err != nil {
			return nil, err
		}
		list := res.List("reports")
		r.mu.Lock()
		r.data = list
		r.mu.Unlock()
		return rows(list, reportRow), nil
	})
	if err != nil && ctx.Err() == nil {
		r.Notify.Toast(model.ToastError, "Failed to load reports: "+err.Error())
	}
	return err
}

func reportRow(r model.Record) ReportRow {
	ok, _ := r.Float("successful_sends", "delivered")
	bad, _ := r.Float("failed_sends", "failed")
	sent, has := r.Float("total_sent")
	if !has {
		sent = ok + bad
	}
	return ReportRow{
		ID:         r.StrOr(render.Dash, "id"),
		Campaign:   r.StrOr(render.Dash, "campaign_name"),
		Audience:   r.StrOr(render.Dash, "target_audience", "audience_type"),
		Sent:       render.FormatNumber(sent),
		Successful: render.FormatNumber(ok),
		Failed:     render.FormatNumber(bad),
		Created:    render.FormatDate(r.Str("created_at")),
	}
}

// Export writes the last loaded reports in format f.
func (r *Reports) Export(f export.Format) (Download, error) {
	r.mu.Lock()
	data := r.data
	r.mu.Unlock()
	return exportRecords(r.Notify, "Campaign Reports", "reports", data, f, r.now(), "Report exported")
}

// exportRecords renders records as a downloadable table; an empty list is
// rejected with a warning toast.
func exportRecords(notify Toaster, title, prefix string, data []model.Record, f export.Format, at time.Time, done string) (Download, error) {
	table := export.FromRecords(title, data)
	if table.Empty() {
		notify.Toast(model.ToastWarning, "No data to export")
		return Download{}, export.ErrNoData
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, table, f); err != nil {
		notify.Toast(model.ToastError, failed("Export", err))
		return Download{}, err
	}
	notify.Toast(model.ToastSuccess, done)
	return Download{
		FileName:    export.FileName(prefix, at, f),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
