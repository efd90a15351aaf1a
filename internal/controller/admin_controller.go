package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/smsleopard-dashboard/internal/export"
)

func (c *PageController) Approve(w http.ResponseWriter, r *http.Request) {
	_ = c.Approvals.Approve(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "approvals")
}

func (c *PageController) Reject(w http.ResponseWriter, r *http.Request) {
	_ = c.Approvals.Reject(r.Context(), chi.URLParam(r, "id"), r.FormValue("feedback"))
	back(w, r, "approvals")
}

func (c *PageController) ExportReports(w http.ResponseWriter, r *http.Request) {
	dl, err := c.Reports.Export(export.ParseFormat(r.URL.Query().Get("format")))
	if err != nil {
		back(w, r, "reports")
		return
	}
	send(w, dl)
}

func (c *PageController) ExportAudit(w http.ResponseWriter, r *http.Request) {
	dl, err := c.Audit.Export(export.ParseFormat(r.URL.Query().Get("format")))
	if err != nil {
		back(w, r, "audit")
		return
	}
	send(w, dl)
}

func (c *PageController) SaveSettings(w http.ResponseWriter, r *http.Request) {
	_ = c.Settings.Save(r.Context(), r.FormValue("base_url"), r.FormValue("api_key"))
	back(w, r, "settings")
}

func (c *PageController) TestConnection(w http.ResponseWriter, r *http.Request) {
	c.Settings.TestConnection(r.Context())
	back(w, r, "settings")
}

func (c *PageController) SaveCompany(w http.ResponseWriter, r *http.Request) {
	data, id, err := formData(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_ = c.Companies.Save(r.Context(), id, data)
	back(w, r, "companies")
}

func (c *PageController) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	_ = c.Companies.Delete(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "companies")
}

func (c *PageController) ShowCompany(w http.ResponseWriter, r *http.Request) {
	_ = c.Companies.ShowDetail(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "companies")
}

func (c *PageController) HideCompany(w http.ResponseWriter, r *http.Request) {
	c.Companies.HideDetail()
	back(w, r, "companies")
}
