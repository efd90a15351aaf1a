package service

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/export"
	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

const auditLimit = 100

// AuditEntityTypes are the entity filters offered by the audit page.
var AuditEntityTypes = []string{"campaign", "client", "company", "workflow", "approval", "agent"}

type AuditAPI interface {
	AuditLog(ctx context.Context, query url.Values) (model.Record, error)
}

type AuditRow struct {
	When        string
	Action      string
	ActionColor string
	EntityType  string
	EntityID    string
	Details     string
	User        string
}

type Audit struct {
	page
	API    AuditAPI
	Notify Toaster

	List lifecycle.View[[]AuditRow]

	mu     sync.Mutex
	entity string
	data   []model.Record
	now    func() time.Time
}

func NewAudit(api AuditAPI, notify Toaster) *Audit {
	return &Audit{API: api, Notify: notify, now: time.Now}
}

func (a *Audit) OnPageActive(ctx context.Context) {
	a.tasks.Go(ctx, "audit.load", 0, func(ctx context.Context) { _ = a.Load(ctx) })
}

func (a *Audit) OnPageInactive() {
	a.stop()
	a.List.Invalidate()
}

func (a *Audit) Entity() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entity
}

func (a *Audit) FilterEntity(ctx context.Context, entity string) error {
	a.mu.Lock()
	a.entity = entity
	a.mu.Unlock()
	return a.Load(ctx)
}

func (a *Audit) Load(ctx context.Context) error {
	q := url.Values{}
	if e := a.Entity(); e != "" {
		q.Set("entity_type", e)
	}
	q.Set("limit", strconv.Itoa(auditLimit))

	err := fill(ctx, &a.List, func(ctx context.Context) ([]AuditRow, error) {
		res, err := a.API.AuditLog(ctx, q)
		if err != nil {
			return nil, err
		}
		list := res.List("entries", "audit")
		a.mu.Lock()
		a.data = list
		a.mu.Unlock()
		return rows(list, func(r model.Record) AuditRow {
			action := r.Str("action")
			return AuditRow{
				When:        render.FormatDate(r.Str("created_at", "timestamp")),
				Action:      orDash(action),
				ActionColor: render.ActionColor(action),
				EntityType:  r.StrOr(render.Dash, "entity_type"),
				EntityID:    r.StrOr(render.Dash, "entity_id"),
				Details:     render.Truncate(r.StrOr(render.Dash, "details", "description"), 80),
				User:        r.StrOr("system", "user", "actor"),
			}
		}), nil
	})
	if err != nil && ctx.Err() == nil {
		a.Notify.Toast(model.ToastError, "Failed to load audit log: "+err.Error())
	}
	return err
}

// Export writes the last loaded entries; the audit page offers CSV.
func (a *Audit) Export(f export.Format) (Download, error) {
	a.mu.Lock()
	data := a.data
	a.mu.Unlock()
	return exportRecords(a.Notify, "Audit Log", "audit_log", data, f, a.now(), "Audit log exported")
}
