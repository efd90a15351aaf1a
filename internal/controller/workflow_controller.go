package controller

import (
	"encoding/json"
	"net/http"
)

// TriggerWorkflow starts a run. Its status is followed in the background and
// reported as a toast when it settles.
func (c *PageController) TriggerWorkflow(w http.ResponseWriter, r *http.Request) {
	data, _, err := formData(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_, _ = c.Workflow.Trigger(r.Context(), data)
	back(w, r, "workflow")
}

// TrackedRuns lists the run ids still being polled.
func (c *PageController) TrackedRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tracked": c.Workflow.Tracked()})
}
