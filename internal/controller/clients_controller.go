package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
)

func (c *PageController) SaveClient(w http.ResponseWriter, r *http.Request) {
	data, id, err := formData(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_ = c.Clients.Save(r.Context(), id, data)
	back(w, r, "clients")
}

func (c *PageController) DeleteClient(w http.ResponseWriter, r *http.Request) {
	_ = c.Clients.Delete(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "clients")
}

func (c *PageController) ExportClients(w http.ResponseWriter, r *http.Request) {
	dl, err := c.Clients.Export(r.Context())
	if err != nil {
		back(w, r, "clients")
		return
	}
	send(w, dl)
}

func (c *PageController) ImportClients(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		logging.WithComponent("controller").Debug("no upload in import form", "error", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = c.Clients.Import(r.Context(), "", nil)
		back(w, r, "clients")
		return
	}
	defer file.Close()
	_ = c.Clients.Import(r.Context(), header.Filename, file)
	back(w, r, "clients")
}
