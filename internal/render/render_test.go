package render

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

func TestEscapeHTML(t *testing.T) {
	out := EscapeHTML(`<script>x</script>`)
	if strings.Contains(out, "<script>") {
		t.Fatalf("raw script tag survived: %q", out)
	}
	if out != "&lt;script&gt;x&lt;/script&gt;" {
		t.Errorf("unexpected escape %q", out)
	}
	if got := EscapeHTML(`a & "b"`); got != "a &amp; &quot;b&quot;" {
		t.Errorf("unexpected escape %q", got)
	}
	if EscapeHTML("") != "" {
		t.Error("empty input should stay empty")
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.4567, 1); got != "45.7%" {
		t.Errorf("FormatPercent(0.4567, 1) = %q", got)
	}
	if got := FormatPercentValue(45.67, 1); got != "45.7%" {
		t.Errorf("FormatPercentValue(45.67, 1) = %q", got)
	}
	if got := FormatPercent(nil, 1); got != Dash {
		t.Errorf("nil percent = %q", got)
	}
	if got := FormatPercent(model.RecordOf(`0.5`), 0); got != "50%" {
		t.Errorf("record percent = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{1234567, "1,234,567"},
		{int64(0), "0"},
		{nil, Dash},
		{"2500", "2,500"},
		{model.RecordOf(`98765`), "98,765"},
		{model.RecordOf(`null`), Dash},
		{model.Record{}, Dash},
		{1234.5, "1,234.5"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.in); got != c.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(nil); got != Dash {
		t.Errorf("nil date = %q", got)
	}
	if got := FormatDate(""); got != Dash {
		t.Errorf("empty date = %q", got)
	}
	if got := FormatDate("not a date"); got != Dash {
		t.Errorf("bad date = %q", got)
	}
	if got := FormatDate("2024-03-05T14:07:00Z"); got != "Mar 5, 2024, 02:07 PM" {
		t.Errorf("unexpected date %q", got)
	}
	if got := FormatDate(model.RecordOf(`"2024-03-05 09:30:00"`)); got != "Mar 5, 2024, 09:30 AM" {
		t.Errorf("unexpected record date %q", got)
	}
}

func TestTimeAgo(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	cases := map[time.Duration]string{
		30 * time.Second: "just now",
		5 * time.Minute:  "5m ago",
		3 * time.Hour:    "3h ago",
		50 * time.Hour:   "2d ago",
	}
	for ago, want := range cases {
		if got := TimeAgo(fixed.Add(-ago)); got != want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", ago, got, want)
		}
	}
	if TimeAgo("") != "" {
		t.Error("empty time should render empty")
	}
}

func TestFormatUptime(t *testing.T) {
	if got := FormatUptime(2*86400 + 3*3600); got != "2d 3h" {
		t.Errorf("got %q", got)
	}
	if got := FormatUptime(3*3600 + 4*60); got != "3h 4m" {
		t.Errorf("got %q", got)
	}
	if got := FormatUptime(59); got != "0m" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		decimals int
		want     string
	}{
		{12.46, 1, "12.5s"},
		{3, 1, "3.0s"},
		{12.25, -1, "12.25s"},
		{3, -1, "3s"},
		{0, 1, Dash},
		{0, -1, Dash},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds, tt.decimals); got != tt.want {
			t.Errorf("FormatDuration(%v, %d) = %q, want %q", tt.seconds, tt.decimals, got, tt.want)
		}
	}
}

func TestStatusBadge(t *testing.T) {
	if StatusClass("COMPLETED") != "success" || StatusClass("weird") != "draft" {
		t.Error("unexpected status class")
	}
	if StatusIcon("running") != "spinner fa-spin" || StatusIcon("") != "circle" {
		t.Error("unexpected status icon")
	}
	badge := string(StatusBadge("<b>failed"))
	if strings.Contains(badge, "<b>") {
		t.Errorf("status not escaped: %s", badge)
	}
	if !strings.Contains(string(StatusBadge("")), "—") {
		t.Error("empty status should render a dash badge")
	}
}

func TestActionColor(t *testing.T) {
	cases := map[string]string{
		"client_created": "success",
		"DELETE":         "danger",
		"edit_campaign":  "warning",
		"approve":        "success",
		"reject":         "danger",
		"login":          "info",
		"":               "info",
	}
	for in, want := range cases {
		if got := ActionColor(in); got != want {
			t.Errorf("ActionColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckOK(t *testing.T) {
	ok := []string{`true`, `"ok"`, `"connected"`, `{"status":"ok"}`}
	for _, raw := range ok {
		if !CheckOK(model.RecordOf(raw)) {
			t.Errorf("%s should be healthy", raw)
		}
	}
	bad := []string{`false`, `"down"`, `{"status":"error"}`, `null`}
	for _, raw := range bad {
		if CheckOK(model.RecordOf(raw)) {
			t.Errorf("%s should be unhealthy", raw)
		}
	}
}

func TestTextHelpers(t *testing.T) {
	if got := Truncate(strings.Repeat("a", 70), 0); got != strings.Repeat("a", 60)+"…" {
		t.Errorf("unexpected truncate %q", got)
	}
	if Truncate("short", 10) != "short" {
		t.Error("short strings should be kept")
	}
	if got := Capitalize("hELLO"); got != "Hello" {
		t.Errorf("Capitalize = %q", got)
	}
	if got := Label("db_pool_size"); got != "Db pool size" {
		t.Errorf("Label = %q", got)
	}
	if got := Slugify("  Ideal Homes & Co. "); got != "ideal-homes-co" {
		t.Errorf("Slugify = %q", got)
	}
}

func TestAIText(t *testing.T) {
	out := string(AIText("**Send** on *Tuesday*\nnext line <script>x</script>"))
	if !strings.Contains(out, "<strong>Send</strong>") || !strings.Contains(out, "<em>Tuesday</em>") {
		t.Errorf("emphasis not rendered: %s", out)
	}
	if !strings.Contains(out, "<br") {
		t.Errorf("newline not kept: %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("raw html survived: %s", out)
	}
}

func TestBuildPagination(t *testing.T) {
	if BuildPagination(1, 1) != nil {
		t.Error("single page should render nothing")
	}
	links := BuildPagination(5, 10)
	var labels []string
	for _, l := range links {
		labels = append(labels, l.Label)
	}
	if got := strings.Join(labels, " "); got != "« 3 4 5 6 7 »" {
		t.Errorf("unexpected window %q", got)
	}
	if !links[3].Active || links[0].Disabled || links[len(links)-1].Disabled {
		t.Errorf("unexpected flags %+v", links)
	}
	first := BuildPagination(1, 3)
	if !first[0].Disabled || first[len(first)-1].Disabled {
		t.Errorf("prev should be disabled on page 1: %+v", first)
	}
	if TotalPages(41, 20) != 3 || TotalPages(0, 20) != 0 {
		t.Error("unexpected TotalPages")
	}
}

func TestDebounce(t *testing.T) {
	var calls int32
	d := Debounce(func() { atomic.AddInt32(&calls, 1) }, 20*time.Millisecond)
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected one call, got %d", got)
	}

	d.Trigger()
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("stopped debouncer fired, calls=%d", got)
	}
}
