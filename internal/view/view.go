// Package view renders the dashboard pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/unclebandit/smsleopard-dashboard/internal/app"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

//go:embed templates/*.html
var files embed.FS

// Shell is the frame around every page: navigation, header and toasts.
type Shell struct {
	Pages     []app.Page
	Current   string
	Title     string
	Health    app.Health
	Companies []service.CompanyOption
	Toasts    []model.Toast
	CSRF      template.HTML
	// Refresh, when positive, reloads the page every Refresh seconds.
	Refresh int
}

type Data struct {
	Shell
	Page any
}

var funcs = template.FuncMap{
	"statusBadge":     render.StatusBadge,
	"statusClass":     render.StatusClass,
	"statusIcon":      render.StatusIcon,
	"actionColor":     render.ActionColor,
	"approvalColor":   render.ApprovalColor,
	"truncate":        render.Truncate,
	"label":           render.Label,
	"capitalize":      render.Capitalize,
	"formatDate":      render.FormatDate,
	"timeAgo":         render.TimeAgo,
	"number":          render.FormatNumber,
	"percent":         render.FormatPercentValue,
	"campaignTabs":    func() any { return service.CampaignStatusTabs },
	"auditEntities":   func() []string { return service.AuditEntityTypes },
	"clientAudiences": func() []string { return service.ClientAudiences },
	"add":             func(a, b int) int { return a + b },
}

// Renderer holds one template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		id := strings.TrimSuffix(path.Base(name), ".html")
		if id == "layout" {
			continue
		}
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[id] = t
	}
	return r, nil
}

// Has reports whether a template exists for page id.
func (r *Renderer) Has(id string) bool {
	_, ok := r.pages[id]
	return ok
}

// Render writes page id inside the layout. Output is buffered so a template
// error never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, id string, data Data) error {
	t, ok := r.pages[id]
	if !ok {
		return fmt.Errorf("no template for page %q", id)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
