// Package controller holds the form and download actions of each page.
// Actions run the page module operation, which reports its own outcome as
// a toast, and redirect back to the page.
package controller

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

const maxUpload = 32 << 20

// formMeta are submitted fields that never reach the API.
var formMeta = map[string]bool{"id": true, "gorilla.csrf.Token": true}

// checkboxes are sent as booleans; unchecked boxes are absent from the form.
var checkboxes = []string{"is_active", "is_default"}

type PageController struct {
	Dashboard *service.Dashboard
	Clients   *service.Clients
	Campaigns *service.Campaigns
	Workflow  *service.Workflow
	Analytics *service.Analytics
	Approvals *service.Approvals
	Agents    *service.Agents
	Reports   *service.Reports
	Audit     *service.Audit
	Settings  *service.Settings
	Companies *service.Companies

	now func() time.Time
}

// Routes registers every page action next to the page it belongs to. The
// paths are flat so /pages/{page} keeps serving the pages themselves.
func (c *PageController) Routes(r chi.Router) {
	r.Post("/pages/clients/save", c.SaveClient)
	r.Post("/pages/clients/{id}/delete", c.DeleteClient)
	r.Get("/pages/clients/export", c.ExportClients)
	r.Post("/pages/clients/import", c.ImportClients)

	r.Post("/pages/campaigns/save", c.SaveCampaign)
	r.Post("/pages/campaigns/{id}/delete", c.DeleteCampaign)
	r.Post("/pages/campaigns/targets", c.SetCampaignTargets)
	r.Get("/pages/campaigns/{id}/targets", c.CampaignTargets)
	r.Get("/pages/campaigns/export", c.ExportCampaigns)
	r.Post("/pages/campaigns/import", c.ImportCampaigns)

	r.Post("/pages/workflow/trigger", c.TriggerWorkflow)
	r.Get("/pages/workflow/tracked", c.TrackedRuns)

	r.Get("/pages/analytics/panel/{panel}", c.ReloadPanel)
	r.Post("/pages/analytics/recommendations/{id}/apply", c.ApplyRecommendation)
	r.Post("/pages/analytics/recommendations/{id}/dismiss", c.DismissRecommendation)
	r.Post("/pages/analytics/trends", c.Trends)
	r.Post("/pages/analytics/best-time", c.BestTime)
	r.Post("/pages/analytics/evaluate", c.EvaluateMessage)
	r.Get("/pages/analytics/export", c.ExportAnalytics)

	r.Post("/pages/approvals/{id}/approve", c.Approve)
	r.Post("/pages/approvals/{id}/reject", c.Reject)

	r.Get("/pages/reports/export", c.ExportReports)
	r.Get("/pages/audit/export", c.ExportAudit)

	r.Post("/pages/settings/save", c.SaveSettings)
	r.Post("/pages/settings/test", c.TestConnection)

	r.Post("/pages/companies/save", c.SaveCompany)
	r.Post("/pages/companies/{id}/delete", c.DeleteCompany)
	r.Get("/pages/companies/detail/close", c.HideCompany)
	r.Get("/pages/companies/{id}", c.ShowCompany)
}

// Query applies the filters carried by a page URL. Only the first page of a
// filter change is fetched here; other loads come from activation.
func (c *PageController) Query(ctx context.Context, page string, q url.Values) {
	if len(q) == 0 {
		return
	}
	var err error
	switch page {
	case "clients":
		err = c.Clients.ApplyFilter(ctx, service.ClientFilter{
			Search:   strings.TrimSpace(q.Get("search")),
			Audience: q.Get("audience"),
			Page:     pageParam(q),
		})
	case "campaigns":
		err = c.Campaigns.ApplyFilter(ctx, service.CampaignFilter{Status: q.Get("status"), Page: pageParam(q)})
	case "reports":
		if q.Has("campaign") {
			err = c.Reports.FilterCampaign(ctx, strings.TrimSpace(q.Get("campaign")))
		}
	case "audit":
		if q.Has("entity_type") {
			err = c.Audit.FilterEntity(ctx, q.Get("entity_type"))
		}
	case "companies":
		c.Companies.ApplyFilter(service.CompanyFilter{Search: q.Get("search"), Status: q.Get("status")})
	}
	if err != nil {
		logging.WithComponent("controller").Debug("filter load failed", "page", page, "error", err)
	}
}

func pageParam(q url.Values) int {
	n, err := strconv.Atoi(q.Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (c *PageController) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// back redirects to the page the action belongs to.
func back(w http.ResponseWriter, r *http.Request, page string) {
	http.Redirect(w, r, "/pages/"+page, http.StatusSeeOther)
}

// formData returns the submitted fields as an API payload plus the record id.
func formData(r *http.Request) (map[string]any, string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, "", err
	}
	data := make(map[string]any, len(r.PostForm))
	for k, v := range r.PostForm {
		if formMeta[k] || len(v) == 0 {
			continue
		}
		data[k] = v[0]
	}
	for _, k := range checkboxes {
		if _, ok := data[k]; ok {
			data[k] = true
		}
	}
	return data, strings.TrimSpace(r.PostForm.Get("id")), nil
}

func send(w http.ResponseWriter, dl service.Download) {
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	_, _ = w.Write(dl.Data)
}
