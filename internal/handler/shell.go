// Package handler serves the dashboard shell: page navigation, the header
// controls and the toast area. Page actions are registered by the
// controller package.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/unclebandit/smsleopard-dashboard/internal/app"
	"github.com/unclebandit/smsleopard-dashboard/internal/controller"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
	"github.com/unclebandit/smsleopard-dashboard/internal/view"
)

// DefaultReadyTimeout bounds how long a page request waits for the first
// load of the page it activated.
const DefaultReadyTimeout = 10 * time.Second

// DefaultRefresh are the reload periods, in seconds, of the pages that poll.
var DefaultRefresh = map[string]int{"dashboard": 60, "workflow": 15, "agents": 20}

// readier is implemented by page modules whose first load can be awaited.
type readier interface {
	WaitReady(ctx context.Context) error
}

type Shell struct {
	App       *app.App
	Notify    *service.Notifier
	Companies *service.Companies
	View      *view.Renderer
	Pages     *controller.PageController

	// CSRFKey is the 32 byte key behind the form tokens. Empty disables
	// the protection, which tests rely on.
	CSRFKey []byte
	Secure  bool

	Refresh      map[string]int
	ReadyTimeout time.Duration
}

func (h *Shell) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if len(h.CSRFKey) > 0 {
		protect := csrf.Protect(
			h.CSRFKey,
			csrf.Secure(h.Secure),
			csrf.Path("/"),
			csrf.HttpOnly(true),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.RequestHeader("X-CSRF-Token"),
		)
		r.Use(plaintext(h.Secure), protect)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pages/"+app.HomePage, http.StatusFound)
	})
	r.Get("/health", h.HealthStatus)
	r.Get("/pages/{page}", h.ShowPage)
	r.Post("/refresh", h.RefreshPage)
	r.Post("/company", h.SelectCompany)
	r.Post("/toasts/{id}/dismiss", h.DismissToast)
	h.Pages.Routes(r)
	return r
}

// plaintext marks requests served without TLS so the origin check accepts
// http referers.
func plaintext(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	log := logging.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ShowPage makes the requested page the active one and renders it once its
// first load has settled.
func (h *Shell) ShowPage(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "page")
	if _, err := h.App.Lookup(requested); err != nil || !h.View.Has(requested) {
		logging.WithComponent("http").Debug("unknown page", "page", requested, "error", err)
		http.Redirect(w, r, "/pages/"+app.HomePage, http.StatusFound)
		return
	}
	id := requested
	h.App.Navigate(id)

	if m, ok := h.App.Module(id).(readier); ok {
		ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout())
		if err := m.WaitReady(ctx); err != nil {
			logging.WithComponent("http").Debug("page not ready", "page", id, "error", err)
		}
		cancel()
	}
	h.Pages.Query(r.Context(), id, r.URL.Query())

	page, _ := h.App.Page(id)
	data := view.Data{Shell: h.shell(r, page), Page: page.Module}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.View.Render(w, id, data); err != nil {
		logging.WithComponent("http").Error("render failed", "page", id, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (h *Shell) shell(r *http.Request, page app.Page) view.Shell {
	s := view.Shell{
		Pages:   h.App.Pages,
		Current: page.ID,
		Title:   page.Label,
		Health:  h.App.HealthStatus(),
		Refresh: h.refreshFor(page.ID),
	}
	if h.Companies != nil {
		s.Companies = h.Companies.Selector.Snapshot().Value
	}
	if h.Notify != nil {
		s.Toasts = h.Notify.Active()
	}
	if len(h.CSRFKey) > 0 {
		s.CSRF = csrf.TemplateField(r)
	}
	return s
}

func (h *Shell) refreshFor(id string) int {
	if h.Refresh != nil {
		return h.Refresh[id]
	}
	return DefaultRefresh[id]
}

func (h *Shell) readyTimeout() time.Duration {
	if h.ReadyTimeout > 0 {
		return h.ReadyTimeout
	}
	return DefaultReadyTimeout
}

// RefreshPage re-activates the current page under the app context so its
// loads outlive this request.
func (h *Shell) RefreshPage(w http.ResponseWriter, r *http.Request) {
	id := h.App.Refresh(nil)
	http.Redirect(w, r, "/pages/"+id, http.StatusSeeOther)
}

// SelectCompany scopes the API to the chosen company and reloads the
// current page under it.
func (h *Shell) SelectCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.Companies.Select(r.Context(), r.FormValue("company_id")); err == nil {
		h.App.Refresh(nil)
	}
	current := h.App.Current()
	if current == "" {
		current = app.HomePage
	}
	http.Redirect(w, r, "/pages/"+current, http.StatusSeeOther)
}

func (h *Shell) DismissToast(w http.ResponseWriter, r *http.Request) {
	h.Notify.Dismiss(chi.URLParam(r, "id"))
	target := r.Referer()
	if target == "" || !strings.Contains(target, "/pages/") {
		target = "/pages/" + h.App.Resolve(h.App.Current())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HealthStatus reports the last API health check as JSON.
func (h *Shell) HealthStatus(w http.ResponseWriter, r *http.Request) {
	st := h.App.HealthStatus()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":      st.State,
		"title":      st.Title,
		"checked_at": st.CheckedAt,
	})
}
