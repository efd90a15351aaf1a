package service

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/api"
	"github.com/unclebandit/smsleopard-dashboard/internal/export"
	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

type CampaignsAPI interface {
	Campaigns(ctx context.Context, query url.Values) (model.Record, error)
	Campaign(ctx context.Context, id string) (model.Record, error)
	CreateCampaign(ctx context.Context, data any) (model.Record, error)
	UpdateCampaign(ctx context.Context, id string, data any) (model.Record, error)
	DeleteCampaign(ctx context.Context, id string) (model.Record, error)
	CampaignTargets(ctx context.Context, id string) (model.Record, error)
	SetCampaignTargets(ctx context.Context, id string, data any) (model.Record, error)
	ExportCampaignsXLSX(ctx context.Context, status string) (api.Blob, error)
	ImportCampaignsXLSX(ctx context.Context, filename string, file io.Reader) (model.Record, error)
}

// CampaignStatusTabs are the status filters offered above the table. The
// empty status means all campaigns.
var CampaignStatusTabs = []struct{ Status, Label string }{
	{"", "All"},
	{"draft", "Draft"},
	{"scheduled", "Scheduled"},
	{"pending_approval", "Pending Approval"},
	{"approved", "Approved"},
	{"running", "Running"},
	{"completed", "Completed"},
	{"failed", "Failed"},
}

type CampaignRow struct {
	ID             string
	Name           string
	Status         string
	Audience       string
	ApprovalMethod string
	Scheduled      string
	Recurrence     string
}

type CampaignFilter struct {
	Status string
	Page   int
}

type Campaigns struct {
	page
	API    CampaignsAPI
	Notify Toaster

	List lifecycle.View[Listing[CampaignRow]]

	mu     sync.Mutex
	filter CampaignFilter
	now    func() time.Time
}

func NewCampaigns(api CampaignsAPI, notify Toaster) *Campaigns {
	return &Campaigns{API: api, Notify: notify, filter: CampaignFilter{Page: 1}, now: time.Now}
}

func (c *Campaigns) OnPageActive(ctx context.Context) {
	c.tasks.Go(ctx, "campaigns.load", 0, func(ctx context.Context) { _ = c.Load(ctx) })
}

func (c *Campaigns) OnPageInactive() {
	c.stop()
	c.List.Invalidate()
}

func (c *Campaigns) Filter() CampaignFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// ApplyFilter switches status tab or page. A new tab starts at page 1.
func (c *Campaigns) ApplyFilter(ctx context.Context, f CampaignFilter) error {
	c.mu.Lock()
	if f.Status != c.filter.Status || f.Page < 1 {
		f.Page = 1
	}
	c.filter = f
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *Campaigns) Load(ctx context.Context) error {
	f := c.Filter()
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	q.Set("limit", strconv.Itoa(PerPage))
	q.Set("offset", strconv.Itoa((f.Page-1)*PerPage))

	err := fill(ctx, &c.List, func(ctx context.Context) (Listing[CampaignRow], error) {
		res, err := c.API.Campaigns(ctx, q)
		if err != nil {
			return Listing[CampaignRow]{}, err
		}
		list := rows(res.List("campaigns"), func(r model.Record) CampaignRow {
			return CampaignRow{
				ID:             r.ID(),
				Name:           r.Str("campaign_name", "name"),
				Status:         r.Str("status"),
				Audience:       r.StrOr(render.Dash, "audience_type"),
				ApprovalMethod: r.StrOr(render.Dash, "approval_method"),
				Scheduled:      render.FormatDate(r.Str("scheduled_time")),
				Recurrence:     r.StrOr(render.Dash, "recurrence"),
			}
		})
		return newListing(list, res, f.Page), nil
	})
	if err != nil && ctx.Err() == nil {
		c.Notify.Toast(model.ToastError, "Failed to load campaigns: "+err.Error())
	}
	return err
}

func (c *Campaigns) Get(ctx context.Context, id string) (model.Record, error) {
	rec, err := c.API.Campaign(ctx, id)
	if err != nil {
		c.Notify.Toast(model.ToastError, "Failed to load campaign: "+err.Error())
	}
	return rec, err
}

// Save creates the campaign when id is empty, updates it otherwise.
func (c *Campaigns) Save(ctx context.Context, id string, data map[string]any) error {
	form := CleanForm(data)
	if err := campaignForm.validate(form); err != nil {
		c.Notify.Toast(model.ToastWarning, err.Error())
		return err
	}
	var err error
	if id == "" {
		_, err = c.API.CreateCampaign(ctx, form)
	} else {
		_, err = c.API.UpdateCampaign(ctx, id, form)
	}
	if err != nil {
		c.Notify.Toast(model.ToastError, failed("Save", err))
		return err
	}
	if id == "" {
		c.Notify.Toast(model.ToastSuccess, "Campaign created")
	} else {
		c.Notify.Toast(model.ToastSuccess, "Campaign updated")
	}
	return c.Load(ctx)
}

func (c *Campaigns) Delete(ctx context.Context, id string) error {
	if _, err := c.API.DeleteCampaign(ctx, id); err != nil {
		c.Notify.Toast(model.ToastError, failed("Delete", err))
		return err
	}
	c.Notify.Toast(model.ToastSuccess, "Campaign deleted")
	return c.Load(ctx)
}

// Targets returns the audience type currently targeted by the campaign.
func (c *Campaigns) Targets(ctx context.Context, id string) (string, error) {
	res, err := c.API.CampaignTargets(ctx, id)
	if err != nil {
		c.Notify.Toast(model.ToastError, "Failed to load targets: "+err.Error())
		return "", err
	}
	return res.Str("audience_type"), nil
}

func (c *Campaigns) SetTargets(ctx context.Context, id, audience string) error {
	if _, err := c.API.SetCampaignTargets(ctx, id, map[string]string{"audience_type": audience}); err != nil {
		c.Notify.Toast(model.ToastError, "Failed to save targets: "+err.Error())
		return err
	}
	c.Notify.Toast(model.ToastSuccess, "Targets updated")
	return nil
}

// Export downloads the campaigns workbook for the current status tab.
func (c *Campaigns) Export(ctx context.Context) (Download, error) {
	blob, err := c.API.ExportCampaignsXLSX(ctx, c.Filter().Status)
	if err != nil {
		c.Notify.Toast(model.ToastError, failed("Export", err))
		return Download{}, err
	}
	c.Notify.Toast(model.ToastSuccess, "Export complete")
	return Download{
		FileName:    export.FileName("campaigns", c.now(), export.XLSX),
		ContentType: blobType(blob, export.XLSX),
		Data:        blob.Data,
	}, nil
}

func (c *Campaigns) Import(ctx context.Context, filename string, file io.Reader) error {
	if file == nil {
		c.Notify.Toast(model.ToastWarning, "Select a file first")
		return nil
	}
	res, err := c.API.ImportCampaignsXLSX(ctx, filename, file)
	if err != nil {
		c.Notify.Toast(model.ToastError, failed("Import", err))
		return err
	}
	c.Notify.Toast(model.ToastSuccess, importedMessage(res, "campaigns"))
	return c.Load(ctx)
}
