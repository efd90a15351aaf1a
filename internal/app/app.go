// Package app owns the page registry, the active-page lifecycle and the
// API health monitor.
package app

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/unclebandit/smsleopard-dashboard/internal/errors"
	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

const (
	HomePage              = "dashboard"
	DefaultHealthInterval = 30 * time.Second
	refreshToastDuration  = 1500 * time.Millisecond
	recheckDelay          = 500 * time.Millisecond
)

// Initializer runs once when the app starts.
type Initializer interface {
	Init(ctx context.Context)
}

// Activator is called each time its page becomes the active page.
type Activator interface {
	OnPageActive(ctx context.Context)
}

// Deactivator is called when its page stops being the active page.
type Deactivator interface {
	OnPageInactive()
}

type Page struct {
	ID     string
	Label  string
	Icon   string
	Module any
}

type HealthAPI interface {
	Health(ctx context.Context) (model.Record, error)
}

// Notifier shows short-lived messages to the operator.
type Notifier interface {
	ToastFor(level model.ToastLevel, message string, d time.Duration)
}

type HealthState string

const (
	HealthUnknown  HealthState = "unknown"
	HealthOnline   HealthState = "online"
	HealthDegraded HealthState = "degraded"
	HealthOffline  HealthState = "offline"
)

// Health is the API indicator in the header.
type Health struct {
	State     HealthState
	Title     string
	CheckedAt time.Time
}

func (h Health) Class() string { return "status-" + string(h.State) }

type App struct {
	Pages  []Page
	API    HealthAPI
	Notify Notifier

	HealthInterval time.Duration

	// navMu serialises page switches; mu guards the fields below.
	navMu   sync.Mutex
	mu      sync.Mutex
	root    context.Context
	current string
	health  Health
	monitor *lifecycle.Task
	recheck *render.Debouncer
	index   map[string]int
}

func New(api HealthAPI, notify Notifier, pages []Page) *App {
	a := &App{
		Pages:          pages,
		API:            api,
		Notify:         notify,
		HealthInterval: DefaultHealthInterval,
		health:         Health{State: HealthUnknown, Title: "Checking API..."},
		index:          make(map[string]int, len(pages)),
	}
	for i, p := range pages {
		a.index[p.ID] = i
	}
	return a
}

// Start initialises every module and starts the health monitor. Both live
// until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	a.root = ctx
	a.mu.Unlock()

	for _, p := range a.Pages {
		if m, ok := p.Module.(Initializer); ok {
			m.Init(ctx)
		}
	}

	a.monitor = lifecycle.NewTask("app.health", a.HealthInterval, func(ctx context.Context) { a.CheckHealth(ctx) })
	a.monitor.Start(ctx)
	a.recheck = render.Debounce(func() { a.CheckHealth(a.context()) }, recheckDelay)
	logging.WithComponent("app").Info("✅ app started", "pages", len(a.Pages))
}

// Stop deactivates the current page and stops the health monitor.
func (a *App) Stop() {
	a.navMu.Lock()
	a.mu.Lock()
	cur := a.current
	a.current = ""
	a.mu.Unlock()
	if cur != "" {
		a.deactivate(cur)
	}
	a.navMu.Unlock()
	if a.recheck != nil {
		a.recheck.Stop()
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
}

func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.root == nil {
		return context.Background()
	}
	return a.root
}

// Resolve maps unknown page ids to the home page.
func (a *App) Resolve(id string) string {
	if _, ok := a.index[id]; ok {
		return id
	}
	return HomePage
}

func (a *App) Page(id string) (Page, bool) {
	i, ok := a.index[id]
	if !ok {
		return Page{}, false
	}
	return a.Pages[i], true
}

// Lookup is Page with a typed error for unregistered ids.
func (a *App) Lookup(id string) (Page, error) {
	p, ok := a.Page(id)
	if !ok {
		return Page{}, appErrors.NewPageNotFound(id)
	}
	return p, nil
}

// Module returns the module registered for id.
func (a *App) Module(id string) any {
	p, _ := a.Page(id)
	return p.Module
}

func (a *App) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Activate deactivates the current page, then activates id. Page switches
// never overlap.
func (a *App) Activate(ctx context.Context, id string) string {
	a.navMu.Lock()
	defer a.navMu.Unlock()
	return a.activate(ctx, a.Resolve(id))
}

func (a *App) activate(ctx context.Context, id string) string {
	a.mu.Lock()
	prev := a.current
	a.mu.Unlock()
	if prev != "" {
		a.deactivate(prev)
	}

	a.mu.Lock()
	a.current = id
	a.mu.Unlock()

	if m, ok := a.Module(id).(Activator); ok {
		m.OnPageActive(ctx)
	}
	logging.WithComponent("app").Debug("page activated", "page", id, "previous", prev)
	return id
}

func (a *App) deactivate(id string) {
	if m, ok := a.Module(id).(Deactivator); ok {
		m.OnPageInactive()
	}
}

// Navigate activates id under the app context unless it is already the
// active page. It returns the resolved page id.
func (a *App) Navigate(id string) string {
	id = a.Resolve(id)
	a.navMu.Lock()
	defer a.navMu.Unlock()
	if a.Current() == id {
		return id
	}
	return a.activate(a.context(), id)
}

// Refresh re-runs the activation of the current page. A nil ctx uses the
// app context.
func (a *App) Refresh(ctx context.Context) string {
	if ctx == nil {
		ctx = a.context()
	}
	a.navMu.Lock()
	cur := a.Current()
	if cur == "" {
		cur = HomePage
	}
	id := a.activate(ctx, cur)
	a.navMu.Unlock()
	if a.Notify != nil {
		a.Notify.ToastFor(model.ToastInfo, "Refreshed", refreshToastDuration)
	}
	return id
}

func (a *App) HealthStatus() Health {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

// CheckHealth calls the health endpoint and updates the indicator.
func (a *App) CheckHealth(ctx context.Context) Health {
	res, err := a.API.Health(ctx)
	h := classify(res, err)
	h.CheckedAt = time.Now()
	if ctx.Err() != nil {
		return a.HealthStatus()
	}

	a.mu.Lock()
	prev := a.health.State
	a.health = h
	a.mu.Unlock()

	if prev != h.State {
		log := logging.WithComponent("app")
		if h.State == HealthOnline {
			log.Info("✅ api online")
		} else {
			log.Warn("⚠️ api health changed", "state", h.State, "error", err)
		}
	}
	return h
}

// RecheckHealth schedules a health check shortly, collapsing bursts.
func (a *App) RecheckHealth() {
	if a.recheck != nil {
		a.recheck.Trigger()
	}
}

func classify(res model.Record, err error) Health {
	if err != nil {
		return Health{State: HealthOffline, Title: "API Offline"}
	}
	switch res.Str("status") {
	case "healthy", "ok":
		return Health{State: HealthOnline, Title: "API Online"}
	}
	return Health{State: HealthDegraded, Title: "API Degraded"}
}
