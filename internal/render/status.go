package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

var statusClasses = map[string]string{
	"posted": "success", "completed": "success", "approved": "success", "active": "success", "online": "success", "sent": "success",
	"pending": "warning", "draft": "draft", "scheduled": "info", "queued": "info",
	"running": "running", "sending": "running", "in_progress": "running",
	"failed": "danger", "error": "danger", "rejected": "danger", "offline": "danger",
	"revising": "warning", "inactive": "draft",
}

var statusIcons = map[string]string{
	"posted": "check-circle", "completed": "check-circle", "approved": "check-circle", "sent": "check-circle",
	"active": "circle-check", "online": "signal",
	"pending": "clock", "draft": "file", "scheduled": "calendar-check", "queued": "list-ol",
	"running": "spinner fa-spin", "sending": "paper-plane", "in_progress": "spinner fa-spin",
	"failed": "times-circle", "error": "exclamation-circle", "rejected": "ban", "offline": "plug",
	"revising": "edit", "inactive": "moon",
}

// StatusClass maps a status to its badge class; unknown -> "draft".
func StatusClass(status string) string {
	if c, ok := statusClasses[strings.ToLower(status)]; ok {
		return c
	}
	return "draft"
}

// StatusIcon maps a status to a font-awesome icon; unknown -> "circle".
func StatusIcon(status string) string {
	if i, ok := statusIcons[strings.ToLower(status)]; ok {
		return i
	}
	return "circle"
}

// StatusBadge renders the badge markup for status.
func StatusBadge(status string) template.HTML {
	if status == "" {
		return `<span class="status-badge draft">—</span>`
	}
	return template.HTML(fmt.Sprintf(`<span class="status-badge %s"><i class="fas fa-%s"></i> %s</span>`,
		StatusClass(status), StatusIcon(status), EscapeHTML(status)))
}

// ActionColor picks the audit badge colour from the verb in action.
func ActionColor(action string) string {
	a := strings.ToLower(action)
	switch {
	case a == "":
		return "info"
	case strings.Contains(a, "create"), strings.Contains(a, "add"):
		return "success"
	case strings.Contains(a, "delete"), strings.Contains(a, "remove"):
		return "danger"
	case strings.Contains(a, "update"), strings.Contains(a, "edit"):
		return "warning"
	case strings.Contains(a, "approve"):
		return "success"
	case strings.Contains(a, "reject"):
		return "danger"
	}
	return "info"
}

var approvalColors = map[string]string{
	"both": "blue", "email": "orange", "dashboard": "green", "auto": "purple", "none": "gray",
}

// ApprovalColor is the badge colour of a company approval method.
func ApprovalColor(method string) string {
	if c, ok := approvalColors[method]; ok {
		return c
	}
	return "gray"
}

// CheckOK interprets one readiness check value: true, "ok", "connected" or
// an object with status "ok".
func CheckOK(v model.Record) bool {
	switch {
	case v.IsBool():
		return v.Bool("@this")
	case v.IsObject():
		return v.Str("status") == "ok"
	default:
		s := v.String()
		return s == "ok" || s == "connected"
	}
}
