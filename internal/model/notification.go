package model

import "time"

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastWarning ToastLevel = "warning"
	ToastInfo    ToastLevel = "info"
)

// DefaultToastDuration matches the time a toast stays visible.
const DefaultToastDuration = 4 * time.Second

type Toast struct {
	ID        string        `json:"id"`
	Level     ToastLevel    `json:"level"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// Expired reports whether the toast should no longer be shown at now.
func (t Toast) Expired(now time.Time) bool {
	d := t.Duration
	if d <= 0 {
		d = DefaultToastDuration
	}
	return now.After(t.CreatedAt.Add(d))
}

// Icon is the font-awesome icon for the toast level.
func (t Toast) Icon() string {
	switch t.Level {
	case ToastSuccess:
		return "check-circle"
	case ToastError:
		return "exclamation-circle"
	case ToastWarning:
		return "exclamation-triangle"
	default:
		return "info-circle"
	}
}

// WorkflowEvent is published for every status change of a triggered run.
type WorkflowEvent struct {
	RunID    string    `json:"run_id"`
	Status   string    `json:"status"`
	Attempts int       `json:"attempts"`
	Terminal bool      `json:"terminal"`
	At       time.Time `json:"at"`
}
