package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
)

func (c *PageController) SaveCampaign(w http.ResponseWriter, r *http.Request) {
	data, id, err := formData(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_ = c.Campaigns.Save(r.Context(), id, data)
	back(w, r, "campaigns")
}

func (c *PageController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	_ = c.Campaigns.Delete(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "campaigns")
}

func (c *PageController) CampaignTargets(w http.ResponseWriter, r *http.Request) {
	audience, err := c.Campaigns.Targets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"audience_type": audience})
}

func (c *PageController) SetCampaignTargets(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_ = c.Campaigns.SetTargets(r.Context(), r.PostForm.Get("id"), r.PostForm.Get("audience_type"))
	back(w, r, "campaigns")
}

func (c *PageController) ExportCampaigns(w http.ResponseWriter, r *http.Request) {
	dl, err := c.Campaigns.Export(r.Context())
	if err != nil {
		back(w, r, "campaigns")
		return
	}
	send(w, dl)
}

func (c *PageController) ImportCampaigns(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		logging.WithComponent("controller").Debug("no upload in import form", "error", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = c.Campaigns.Import(r.Context(), "", nil)
		back(w, r, "campaigns")
		return
	}
	defer file.Close()
	_ = c.Campaigns.Import(r.Context(), header.Filename, file)
	back(w, r, "campaigns")
}
