package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/queue"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

type fakeWorkflowAPI struct {
	mu         sync.Mutex
	statuses   []string
	statusHits int
	triggerErr error
	running    string
	history    string
}

func (f *fakeWorkflowAPI) TriggerCampaign(ctx context.Context, data any) (model.Record, error) {
	if f.triggerErr != nil {
		return model.Record{}, f.triggerErr
	}
	return rec(`{"run_id":"run-42"}`), nil
}

func (f *fakeWorkflowAPI) TriggerStatus(ctx context.Context, runID string) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.statusHits
	f.statusHits++
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return rec(`{"status":"` + f.statuses[i] + `"}`), nil
}

func (f *fakeWorkflowAPI) RunningCampaigns(ctx context.Context) (model.Record, error) {
	return rec(f.running), nil
}

func (f *fakeWorkflowAPI) CampaignHistory(ctx context.Context, limit int) (model.Record, error) {
	return rec(f.history), nil
}

func (f *fakeWorkflowAPI) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusHits
}

func newTestWorkflow(api *fakeWorkflowAPI, toasts *recordingToaster) *service.Workflow {
	w := service.NewWorkflow(api, toasts, time.Hour)
	w.PollInterval = time.Millisecond
	return w
}

func TestWorkflowStopsPollingAtTerminalStatus(t *testing.T) {
	api := &fakeWorkflowAPI{
		statuses: []string{"running", "running", "running", "completed"},
		running:  `{"running":[]}`,
		history:  `{"history":[]}`,
	}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)

	runID, err := w.Trigger(context.Background(), map[string]any{"campaign_id": " 7 "})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if runID != "run-42" {
		t.Fatalf("unexpected run id %q", runID)
	}
	w.Wait()

	if got := api.hits(); got != 4 {
		t.Errorf("expected 4 status checks, got %d", got)
	}
	var final []model.Toast
	for _, ts := range toasts.all() {
		if ts.Message == "Run run-42: completed" {
			final = append(final, ts)
		}
	}
	if len(final) != 1 || final[0].Level != model.ToastSuccess {
		t.Errorf("expected one success toast for the run, got %+v", toasts.all())
	}
	if len(w.Tracked()) != 0 {
		t.Errorf("run still tracked: %v", w.Tracked())
	}
}

func TestWorkflowFailedRunToastsError(t *testing.T) {
	api := &fakeWorkflowAPI{statuses: []string{"running", "failed"}, running: `{}`, history: `{}`}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)

	w.Track("run-1")
	w.Wait()

	last := toasts.last()
	if last.Level != model.ToastError || last.Message != "Run run-1: failed" {
		t.Errorf("unexpected final toast %+v", last)
	}
}

func TestWorkflowGivesUpAfterMaxAttempts(t *testing.T) {
	api := &fakeWorkflowAPI{statuses: []string{"running"}, running: `{}`, history: `{}`}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)
	w.MaxAttempts = 5

	w.Track("run-slow")
	w.Wait()

	if got := api.hits(); got != 5 {
		t.Errorf("expected 5 status checks, got %d", got)
	}
	all := toasts.all()
	if len(all) != 1 || all[0].Level != model.ToastWarning {
		t.Fatalf("expected a single warning toast, got %+v", all)
	}
	if all[0].Message != "Run run-slow: no final status after 5 checks" {
		t.Errorf("unexpected message %q", all[0].Message)
	}
}

func TestWorkflowTrackIgnoresDuplicates(t *testing.T) {
	api := &fakeWorkflowAPI{statuses: []string{"running", "running", "completed"}, running: `{}`, history: `{}`}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)
	w.PollInterval = 20 * time.Millisecond

	w.Track("run-1")
	w.Track("run-1")
	w.Wait()

	if got := api.hits(); got != 3 {
		t.Errorf("expected 3 status checks for a single poll, got %d", got)
	}
}

func TestWorkflowPollsSurviveLeavingThePage(t *testing.T) {
	api := &fakeWorkflowAPI{statuses: []string{"running", "running", "completed"}, running: `{}`, history: `{}`}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)
	w.PollInterval = 5 * time.Millisecond

	w.Init(context.Background())
	w.OnPageActive(context.Background())
	w.Track("run-1")
	w.OnPageInactive()
	w.Wait()

	if toasts.last().Message != "Run run-1: completed" {
		t.Errorf("expected completion after leaving the page, got %+v", toasts.all())
	}
	if w.RunningTasks() != 0 {
		t.Errorf("page tasks still running: %d", w.RunningTasks())
	}
}

func TestWorkflowCancelledBackgroundStopsQuietly(t *testing.T) {
	api := &fakeWorkflowAPI{statuses: []string{"running"}, running: `{}`, history: `{}`}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)
	w.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	w.Init(ctx)
	w.Track("run-1")
	time.Sleep(20 * time.Millisecond)
	cancel()
	w.Wait()

	if n := len(toasts.all()); n != 0 {
		t.Errorf("expected no toasts after shutdown, got %d", n)
	}
}

func TestWorkflowTriggerFailure(t *testing.T) {
	api := &fakeWorkflowAPI{triggerErr: errors.New("boom")}
	toasts := &recordingToaster{}
	w := newTestWorkflow(api, toasts)

	if _, err := w.Trigger(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	last := toasts.last()
	if last.Level != model.ToastError || last.Message != "Trigger failed: boom" {
		t.Errorf("unexpected toast %+v", last)
	}
	if len(w.Tracked()) != 0 {
		t.Error("failed trigger should not be tracked")
	}
}

func TestWorkflowPublishesStatusChanges(t *testing.T) {
	api := &fakeWorkflowAPI{statuses: []string{"running", "running", "completed"}, running: `{}`, history: `{}`}
	q := queue.NewInMemoryQueue()
	var mu sync.Mutex
	var events []model.WorkflowEvent
	got := make(chan struct{}, 4)
	if err := q.Subscribe(queue.TopicWorkflowEvents, func(p any) error {
		mu.Lock()
		events = append(events, p.(model.WorkflowEvent))
		mu.Unlock()
		got <- struct{}{}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	w := newTestWorkflow(api, &recordingToaster{})
	w.Events = q
	w.Track("run-9")
	w.Wait()

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for workflow events")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 status changes, got %d", len(events))
	}
	terminal := 0
	for _, ev := range events {
		if ev.RunID != "run-9" {
			t.Errorf("unexpected run id %q", ev.RunID)
		}
		if ev.Terminal {
			terminal++
		}
	}
	if terminal != 1 {
		t.Errorf("expected one terminal event, got %d", terminal)
	}
}

func TestWorkflowHistoryRows(t *testing.T) {
	api := &fakeWorkflowAPI{
		history: `{"history":[{"run_id":"r1","campaign_name":"Promo","status":"completed","duration":12.5,"result":"ok"}]}`,
	}
	w := newTestWorkflow(api, &recordingToaster{})
	if err := w.LoadHistory(context.Background()); err != nil {
		t.Fatal(err)
	}
	rows := w.History.Snapshot().Value
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0].Campaign != "Promo" || rows[0].RunID != "r1" {
		t.Errorf("unexpected row %+v", rows[0])
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		"completed": true, "failed": true, "error": true,
		"running": false, "queued": false, "": false,
	} {
		if got := service.IsTerminal(status); got != want {
			t.Errorf("IsTerminal(%q) = %v", status, got)
		}
	}
}
