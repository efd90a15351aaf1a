package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/queue"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

// Run status polling defaults.
const (
	DefaultRunPollInterval = 5 * time.Second
	DefaultRunPollAttempts = 120
	historyLimit           = 30
)

type WorkflowAPI interface {
	TriggerCampaign(ctx context.Context, data any) (model.Record, error)
	TriggerStatus(ctx context.Context, runID string) (model.Record, error)
	RunningCampaigns(ctx context.Context) (model.Record, error)
	CampaignHistory(ctx context.Context, limit int) (model.Record, error)
}

type RunningRun struct {
	Name    string
	Status  string
	Started string
	Node    string
}

type HistoryRun struct {
	RunID    string
	Campaign string
	Status   string
	Started  string
	Duration string
	Result   string
}

// IsTerminal reports whether a run status ends polling.
func IsTerminal(status string) bool {
	switch status {
	case "completed", "failed", "error":
		return true
	}
	return false
}

// Workflow triggers campaign runs and follows them to completion. Run polls
// belong to the process: they keep going when the operator leaves the page.
type Workflow struct {
	page
	API    WorkflowAPI
	Notify Toaster
	// Events, when set, receives a WorkflowEvent for every status change.
	Events queue.Queue

	Interval     time.Duration
	PollInterval time.Duration
	MaxAttempts  int
	// Background owns the run polls; nil means context.Background().
	Background context.Context

	Running lifecycle.View[[]RunningRun]
	History lifecycle.View[[]HistoryRun]

	polls   sync.WaitGroup
	mu      sync.Mutex
	tracked map[string]time.Time
	now     func() time.Time
}

func NewWorkflow(api WorkflowAPI, notify Toaster, interval time.Duration) *Workflow {
	return &Workflow{
		API:          api,
		Notify:       notify,
		Interval:     interval,
		PollInterval: DefaultRunPollInterval,
		MaxAttempts:  DefaultRunPollAttempts,
		tracked:      make(map[string]time.Time),
		now:          time.Now,
	}
}

// Init binds run polls to the process context.
func (w *Workflow) Init(ctx context.Context) {
	if w.Background == nil {
		w.Background = ctx
	}
}

func (w *Workflow) OnPageActive(ctx context.Context) {
	w.tasks.Go(ctx, "workflow.history", 0, func(ctx context.Context) { _ = w.LoadHistory(ctx) })
	w.tasks.Go(ctx, "workflow.running", w.Interval, func(ctx context.Context) { _ = w.LoadRunning(ctx) })
}

func (w *Workflow) OnPageInactive() {
	w.stop()
	w.Running.Invalidate()
	w.History.Invalidate()
}

// Trigger starts a workflow run and begins tracking its status.
func (w *Workflow) Trigger(ctx context.Context, data map[string]any) (string, error) {
	res, err := w.API.TriggerCampaign(ctx, CleanForm(data))
	if err != nil {
		w.Notify.Toast(model.ToastError, "Trigger failed: "+err.Error())
		return "", err
	}
	runID := res.Str("run_id")
	w.Notify.Toast(model.ToastSuccess, "Workflow started — Run ID: "+orDash(runID))
	if runID != "" {
		w.Track(runID)
	}
	_ = w.LoadRunning(ctx)
	return runID, nil
}

// Track polls runID until it reaches a terminal status or the attempts run
// out, then reports the outcome once.
func (w *Workflow) Track(runID string) {
	ctx := w.Background
	if ctx == nil {
		ctx = context.Background()
	}
	w.mu.Lock()
	if _, ok := w.tracked[runID]; ok {
		w.mu.Unlock()
		return
	}
	w.tracked[runID] = w.now()
	w.mu.Unlock()

	w.polls.Add(1)
	go func() {
		defer w.polls.Done()
		defer func() {
			w.mu.Lock()
			delete(w.tracked, runID)
			w.mu.Unlock()
		}()
		w.follow(ctx, runID)
	}()
}

// Tracked lists the runs currently being polled, oldest first.
func (w *Workflow) Tracked() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.tracked))
	for id := range w.tracked {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return w.tracked[ids[i]].Before(w.tracked[ids[j]]) })
	return ids
}

// Wait blocks until every tracked run has been reported.
func (w *Workflow) Wait() { w.polls.Wait() }

func (w *Workflow) follow(ctx context.Context, runID string) {
	log := logging.WithComponent("workflow").With("run_id", runID)
	var last, final string

	attempts, done, err := lifecycle.Poll(ctx, w.PollInterval, w.MaxAttempts, func(ctx context.Context, attempt int) (bool, error) {
		res, err := w.API.TriggerStatus(ctx, runID)
		if err != nil {
			log.Warn("⚠️ status check failed", "attempt", attempt, "error", err)
			return false, err
		}
		status := res.Str("status")
		if status != last {
			last = status
			w.publish(model.WorkflowEvent{RunID: runID, Status: status, Attempts: attempt, Terminal: IsTerminal(status), At: w.now()})
		}
		if IsTerminal(status) {
			final = status
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		log.Info("run tracking stopped", "attempts", attempts, "error", err)
		return
	}

	switch {
	case done && final == "completed":
		w.Notify.Toast(model.ToastSuccess, fmt.Sprintf("Run %s: %s", runID, final))
	case done:
		w.Notify.Toast(model.ToastError, fmt.Sprintf("Run %s: %s", runID, final))
	default:
		log.Warn("⚠️ run did not finish while tracked", "attempts", attempts, "last_status", last)
		w.Notify.Toast(model.ToastWarning, fmt.Sprintf("Run %s: no final status after %d checks", runID, attempts))
	}
	fanOut(ctx, "workflow", w.LoadRunning, w.LoadHistory)
}

func (w *Workflow) publish(ev model.WorkflowEvent) {
	if w.Events == nil {
		return
	}
	if err := w.Events.Publish(queue.TopicWorkflowEvents, ev); err != nil {
		logging.WithComponent("workflow").Debug("workflow event not published", "error", err)
	}
}

func (w *Workflow) LoadRunning(ctx context.Context) error {
	return fill(ctx, &w.Running, func(ctx context.Context) ([]RunningRun, error) {
		res, err := w.API.RunningCampaigns(ctx)
		if err != nil {
			return nil, err
		}
		return rows(res.List("running"), func(r model.Record) RunningRun {
			return RunningRun{
				Name:    r.StrOr("Workflow", "campaign_name", "name"),
				Status:  r.StrOr("running", "status"),
				Started: render.TimeAgo(r.Str("started_at", "created_at")),
				Node:    r.Str("current_node"),
			}
		}), nil
	})
}

func (w *Workflow) LoadHistory(ctx context.Context) error {
	return fill(ctx, &w.History, func(ctx context.Context) ([]HistoryRun, error) {
		res, err := w.API.CampaignHistory(ctx, historyLimit)
		if err != nil {
			return nil, err
		}
		return rows(res.List("history"), func(r model.Record) HistoryRun {
			dur, _ := r.Float("duration")
			return HistoryRun{
				RunID:    r.StrOr(render.Dash, "run_id", "id"),
				Campaign: r.StrOr(render.Dash, "campaign_name"),
				Status:   r.Str("status"),
				Started:  render.FormatDate(r.Str("started_at", "created_at")),
				Duration: render.FormatDuration(dur, -1),
				Result:   render.Truncate(r.StrOr(render.Dash, "error", "result"), 50),
			}
		}), nil
	})
}

func orDash(s string) string {
	if s == "" {
		return render.Dash
	}
	return s
}
