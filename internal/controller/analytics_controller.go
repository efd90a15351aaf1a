package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

func (c *PageController) ReloadPanel(w http.ResponseWriter, r *http.Request) {
	_ = c.Analytics.Panel(r.Context(), chi.URLParam(r, "panel"))
	back(w, r, "analytics")
}

func (c *PageController) ApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	_ = c.Analytics.ApplyRecommendation(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "analytics")
}

func (c *PageController) DismissRecommendation(w http.ResponseWriter, r *http.Request) {
	_ = c.Analytics.DismissRecommendation(r.Context(), chi.URLParam(r, "id"))
	back(w, r, "analytics")
}

func (c *PageController) Trends(w http.ResponseWriter, r *http.Request) {
	metric := r.FormValue("metric")
	if metric == "" {
		metric = service.DefaultTrendMetric
	}
	_ = c.Analytics.LoadTrends(r.Context(), metric)
	back(w, r, "analytics")
}

func (c *PageController) BestTime(w http.ResponseWriter, r *http.Request) {
	_ = c.Analytics.CheckBestTime(r.Context(), r.FormValue("audience"))
	back(w, r, "analytics")
}

func (c *PageController) EvaluateMessage(w http.ResponseWriter, r *http.Request) {
	_ = c.Analytics.Evaluate(r.Context(), r.FormValue("message"), r.FormValue("audience"))
	back(w, r, "analytics")
}

func (c *PageController) ExportAnalytics(w http.ResponseWriter, r *http.Request) {
	dl, err := c.Analytics.Export(r.Context(), r.URL.Query().Get("format"), c.clock())
	if err != nil {
		back(w, r, "analytics")
		return
	}
	send(w, dl)
}
