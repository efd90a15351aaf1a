package service

import (
	"context"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

// Analytics panel defaults.
const (
	analyticsDays        = 30
	strategicLimit       = 10
	recentActivityLimit  = 50
	DefaultTrendMetric   = "delivery_rate"
	DefaultBestTimeGroup = "all"
	DefaultEvalAudience  = "general"
)

type AnalyticsAPI interface {
	AnalyticsOverview(ctx context.Context) (model.Record, error)
	AIRecommendations(ctx context.Context) (model.Record, error)
	BestSendTime(ctx context.Context, audience string) (model.Record, error)
	EvaluateMessage(ctx context.Context, message, audience string) (model.Record, error)
	ApplyRecommendation(ctx context.Context, id string) (model.Record, error)
	DismissRecommendation(ctx context.Context, id string) (model.Record, error)
	PerformanceSummary(ctx context.Context, days int) (model.Record, error)
	PerformanceTrends(ctx context.Context, metric string, days int) (model.Record, error)
	AudienceInsights(ctx context.Context) (model.Record, error)
	RecentActivity(ctx context.Context, limit int) (model.Record, error)
	ExportAnalytics(ctx context.Context, start, end, format string) (model.Record, error)
	KPIs(ctx context.Context, days int) (model.Record, error)
	EngagementBreakdown(ctx context.Context, days int) (model.Record, error)
	StrategicInsights(ctx context.Context, days, limit int) (model.Record, error)
}

type StatCard struct {
	Label string
	Value string
	Icon  string
	Class string
}

type KPICard struct {
	StatCard
	// Trend is set for cards that carry a growth rate.
	Trend   string
	TrendUp bool
	Badge   string
	Details []string
	Footer  string
}

type PriorityRec struct {
	Priority   string
	Confidence string
	Text       string
	Category   string
	Campaign   string
}

type AudienceStat struct {
	Audience  string
	Rate      string
	RateClass string
	Campaigns string
	Sent      string
	Failures  string
	Clients   string
	Active    string
}

type StrategicInsights struct {
	Priority     []PriorityRec
	Improvements []AudienceStat
	Patterns     []AudienceStat
}

func (s StrategicInsights) Empty() bool { return s.Priority == nil && s.Improvements == nil && s.Patterns == nil }

type DayBar struct {
	Label  string
	Height float64
	Rate   string
	Count  string
}

type Engagement struct {
	Summary    []StatCard
	ByAudience []AudienceStat
	Weekly     []DayBar
}

func (e Engagement) Empty() bool { return len(e.Summary) == 0 }

type Overview struct {
	Cards      []StatCard
	Highlights []string
	Analysis   template.HTML
}

type RecommendationCard struct {
	ID            string
	Category      string
	CategoryClass string
	Impact        string
	ImpactClass   string
	Title         string
	Description   string
	Confidence    float64
	HasConfidence bool
	Applied       bool
}

type Recommendations struct {
	Cards []RecommendationCard
	// Text is used when the API answers with prose instead of a list.
	Text template.HTML
}

func (r Recommendations) Empty() bool { return len(r.Cards) == 0 && r.Text == "" }

type TopCampaign struct {
	Rank int
	Name string
	Sent string
}

type Performance struct {
	Campaign []StatCard
	Delivery []StatCard
	Audience []InfoRow
	Top      []TopCampaign
}

type AudienceInsights struct {
	Distribution []AudienceStat
	Performance  []AudienceStat
}

type Activity struct {
	Campaign bool
	Title    string
	Detail   string
	When     string
}

type TrendPoint struct {
	Label string
	Value string
	// Height is the bar height in percent of the largest value.
	Height float64
}

type Trends struct {
	Metric string
	Points []TrendPoint
}

type BestTime struct {
	Text      string
	Day       string
	Hour      string
	Timezone  string
	Reasoning string
}

type ScoreRow struct {
	Label   string
	Percent float64
	Class   string
	Value   string
}

type Evaluation struct {
	Scores      []ScoreRow
	Feedback    string
	Suggestions []string
}

// Analytics is the insights page. Every panel loads on its own and can be
// refreshed separately; best time and message evaluation run on demand.
type Analytics struct {
	page
	API    AnalyticsAPI
	Notify Toaster
	Days   int

	KPIs            lifecycle.View[[]KPICard]
	Strategic       lifecycle.View[StrategicInsights]
	Engagement      lifecycle.View[Engagement]
	Overview        lifecycle.View[Overview]
	Recommendations lifecycle.View[Recommendations]
	Performance     lifecycle.View[Performance]
	Audience        lifecycle.View[AudienceInsights]
	Activity        lifecycle.View[[]Activity]
	Trends          lifecycle.View[Trends]
	BestTime        lifecycle.View[BestTime]
	Evaluation      lifecycle.View[Evaluation]
}

func NewAnalytics(api AnalyticsAPI, notify Toaster) *Analytics {
	return &Analytics{API: api, Notify: notify, Days: analyticsDays}
}

func (a *Analytics) OnPageActive(ctx context.Context) {
	a.tasks.Go(ctx, "analytics.load", 0, a.LoadAll)
}

func (a *Analytics) OnPageInactive() {
	a.stop()
	a.KPIs.Invalidate()
	a.Strategic.Invalidate()
	a.Engagement.Invalidate()
	a.Overview.Invalidate()
	a.Recommendations.Invalidate()
	a.Performance.Invalidate()
	a.Audience.Invalidate()
	a.Activity.Invalidate()
	a.Trends.Invalidate()
}

func (a *Analytics) LoadAll(ctx context.Context) {
	fanOut(ctx, "analytics",
		a.LoadKPIs, a.LoadStrategic, a.LoadEngagement, a.LoadOverview,
		a.LoadRecommendations, a.LoadPerformance, a.LoadAudience, a.LoadActivity,
		func(ctx context.Context) error { return a.LoadTrends(ctx, DefaultTrendMetric) },
	)
}

// Panel reloads one panel by name.
func (a *Analytics) Panel(ctx context.Context, name string) error {
	switch name {
	case "kpis":
		return a.LoadKPIs(ctx)
	case "strategic":
		return a.LoadStrategic(ctx)
	case "engagement":
		return a.LoadEngagement(ctx)
	case "overview":
		return a.LoadOverview(ctx)
	case "recommendations":
		return a.LoadRecommendations(ctx)
	case "performance":
		return a.LoadPerformance(ctx)
	case "audience":
		return a.LoadAudience(ctx)
	case "activity":
		return a.LoadActivity(ctx)
	case "trends":
		return a.LoadTrends(ctx, a.Trends.Snapshot().Value.Metric)
	}
	a.LoadAll(ctx)
	return nil
}

func (a *Analytics) LoadKPIs(ctx context.Context) error {
	return fill(ctx, &a.KPIs, func(ctx context.Context) ([]KPICard, error) {
		res, err := a.API.KPIs(ctx, a.Days)
		if err != nil {
			return nil, err
		}
		return kpiCards(res), nil
	})
}

func kpiCards(d model.Record) []KPICard {
	if !d.Has("campaign_metrics") {
		return nil
	}
	cm, vm := d.Get("campaign_metrics"), d.Get("volume_metrics")
	em, am := d.Get("engagement_metrics"), d.Get("ai_metrics")
	trend := func(r model.Record) (string, bool) {
		g, _ := r.Float("growth_rate")
		return strconv.FormatFloat(math.Abs(g), 'f', -1, 64) + "%", g >= 0
	}
	num := func(r model.Record, key string) string { return render.FormatNumber(r.Get(key)) }
	plain := func(r model.Record, key string) string {
		if !r.Has(key) {
			return "0"
		}
		return r.Get(key).String()
	}

	campaignTrend, campaignUp := trend(cm)
	volumeTrend, volumeUp := trend(vm)
	return []KPICard{
		{
			StatCard: StatCard{Label: "Total Campaigns", Value: num(cm, "total_campaigns"), Icon: "bullhorn", Class: "kpi-primary"},
			Trend:    campaignTrend,
			TrendUp:  campaignUp,
			Details:  []string{plain(cm, "completed") + " completed", plain(cm, "failed") + " failed"},
			Footer:   "Success Rate: " + render.FormatPercent(cm.Get("success_rate"), 1),
		},
		{
			StatCard: StatCard{Label: "Messages Sent", Value: num(vm, "total_sent"), Icon: "paper-plane", Class: "kpi-success"},
			Trend:    volumeTrend,
			TrendUp:  volumeUp,
			Details:  []string{"Avg: " + num(vm, "avg_per_campaign") + "/campaign"},
			Footer:   "Last " + plain(d, "period_days") + " days",
		},
		{
			StatCard: StatCard{Label: "Active Clients", Value: num(em, "active_clients"), Icon: "users", Class: "kpi-info"},
			Badge:    plain(em, "audience_segments") + " segments",
			Details:  []string{"Activity Rate: " + render.FormatPercent(em.Get("active_rate"), 1)},
			Footer:   "Engaged audience base",
		},
		{
			StatCard: StatCard{Label: "AI Recommendations", Value: num(am, "total_recommendations"), Icon: "lightbulb", Class: "kpi-warning"},
			Badge:    render.FormatPercentValue(am.Get("adoption_rate"), 1) + " adopted",
			Details:  []string{plain(am, "applied") + " applied"},
			Footer:   "Avg Confidence: " + render.FormatPercentValue(am.Get("avg_confidence"), 1),
		},
	}
}

func (a *Analytics) LoadStrategic(ctx context.Context) error {
	return fill(ctx, &a.Strategic, func(ctx context.Context) (StrategicInsights, error) {
		res, err := a.API.StrategicInsights(ctx, a.Days, strategicLimit)
		if err != nil {
			return StrategicInsights{}, err
		}
		return strategicInsights(res), nil
	})
}

func strategicInsights(d model.Record) StrategicInsights {
	var out StrategicInsights
	if !d.Get("top_recommendations").IsArray() {
		return out
	}
	top := d.Get("top_recommendations").List()
	if len(top) > 5 {
		top = top[:5]
	}
	for i, rec := range top {
		priority := "low"
		switch {
		case i < 2:
			priority = "high"
		case i < 4:
			priority = "medium"
		}
		out.Priority = append(out.Priority, PriorityRec{
			Priority:   priority,
			Confidence: render.FormatPercentValue(rec.Get("confidence"), 1),
			Text:       rec.Str("recommendation"),
			Category:   render.Capitalize(rec.StrOr("General", "category")),
			Campaign:   rec.Str("campaign_name"),
		})
	}
	out.Improvements = rows(d.Get("underperforming_areas").List(), func(r model.Record) AudienceStat {
		return AudienceStat{
			Audience:  r.Str("target_audience"),
			Rate:      render.FormatPercent(r.Get("avg_success_rate"), 1),
			Campaigns: r.Get("campaign_count").String(),
			Failures:  render.FormatNumber(r.Get("total_failures")),
		}
	})
	out.Patterns = rows(d.Get("best_performing_patterns").List(), func(r model.Record) AudienceStat {
		return AudienceStat{
			Audience:  r.Str("target_audience"),
			Rate:      render.FormatPercent(r.Get("avg_success_rate"), 1),
			Campaigns: r.Get("campaign_count").String(),
			Sent:      render.FormatNumber(r.Get("total_sent")),
		}
	})
	if out.Priority == nil {
		out.Priority = []PriorityRec{}
	}
	return out
}

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (a *Analytics) LoadEngagement(ctx context.Context) error {
	return fill(ctx, &a.Engagement, func(ctx context.Context) (Engagement, error) {
		res, err := a.API.EngagementBreakdown(ctx, a.Days)
		if err != nil {
			return Engagement{}, err
		}
		return engagement(res), nil
	})
}

func engagement(d model.Record) Engagement {
	var out Engagement
	if !d.Has("summary") {
		return out
	}
	s := d.Get("summary")
	out.Summary = []StatCard{
		{Label: "Successful Sends", Value: render.FormatNumber(s.Get("total_successful"))},
		{Label: "Failed Sends", Value: render.FormatNumber(s.Get("total_failed"))},
		{Label: "Engagement Rate", Value: render.FormatPercentValue(s.Get("engagement_rate"), 1), Class: "highlight"},
		{Label: "Unique Campaigns", Value: s.Get("unique_campaigns").String()},
	}
	out.ByAudience = rows(d.Get("by_audience").List(), func(r model.Record) AudienceStat {
		rate, _ := r.Float("overall_success_rate")
		cls := "needs-improvement"
		switch {
		case rate*100 >= 80:
			cls = "excellent"
		case rate*100 >= 60:
			cls = "good"
		}
		return AudienceStat{
			Audience:  r.StrOr("Unknown", "target_audience"),
			Rate:      render.FormatPercent(rate, 1),
			RateClass: cls,
			Campaigns: r.Get("total_campaigns").String(),
			Sent:      render.FormatNumber(r.Get("total_sent")),
		}
	})
	out.Weekly = rows(d.Get("weekly_pattern").List(), func(r model.Record) DayBar {
		rate, _ := r.Float("avg_success_rate")
		label := r.Get("day_of_week").String()
		if n, ok := r.Int("day_of_week"); ok && n >= 0 && int(n) < len(weekdays) {
			label = weekdays[n]
		}
		return DayBar{
			Label:  label,
			Height: math.Max(5, rate*100),
			Rate:   render.FormatPercent(rate, 1),
			Count:  r.Get("campaign_count").String(),
		}
	})
	return out
}

func (a *Analytics) LoadOverview(ctx context.Context) error {
	return fill(ctx, &a.Overview, func(ctx context.Context) (Overview, error) {
		res, err := a.API.AnalyticsOverview(ctx)
		if err != nil {
			return Overview{}, err
		}
		return overview(res), nil
	})
}

func overview(d model.Record) Overview {
	var out Overview
	summary := d
	if d.Get("summary").IsObject() {
		summary = d.Get("summary")
	}
	if summary.Has("total_campaigns") {
		out.Cards = append(out.Cards, StatCard{"Campaigns Analysed", summary.Get("total_campaigns").String(), "bullhorn", "primary"})
	}
	if summary.Has("avg_delivery_rate") {
		out.Cards = append(out.Cards, StatCard{"Avg Delivery", render.FormatPercentValue(summary.Get("avg_delivery_rate"), 1), "paper-plane", "success"})
	}
	if summary.Has("avg_engagement_rate") {
		out.Cards = append(out.Cards, StatCard{"Avg Engagement", render.FormatPercentValue(summary.Get("avg_engagement_rate"), 1), "heart", "info"})
	}
	if summary.Has("top_audience") {
		out.Cards = append(out.Cards, StatCard{"Top Audience", summary.Get("top_audience").String(), "users", "warning"})
	}
	for _, h := range d.Get("highlights").List() {
		out.Highlights = append(out.Highlights, h.String())
	}
	if s := d.Str("analysis"); s != "" {
		out.Analysis = render.AIText(s)
	}
	return out
}

func (a *Analytics) LoadRecommendations(ctx context.Context) error {
	return fill(ctx, &a.Recommendations, func(ctx context.Context) (Recommendations, error) {
		res, err := a.API.AIRecommendations(ctx)
		if err != nil {
			return Recommendations{}, err
		}
		return recommendations(res), nil
	})
}

func recommendations(d model.Record) Recommendations {
	recs := d
	if d.Has("recommendations") {
		recs = d.Get("recommendations")
	}
	switch {
	case recs.IsArray():
		return Recommendations{Cards: rows(recs.List(), recommendationCard)}
	case recs.Type == gjson.String:
		return Recommendations{Text: render.AIText(recs.String())}
	case recs.Empty():
		return Recommendations{}
	default:
		return Recommendations{Text: render.AIText(recs.Raw)}
	}
}

func recommendationCard(r model.Record) RecommendationCard {
	category := r.StrOr("general", "category")
	impact := r.StrOr("medium", "impact")
	conf, has := r.Float("confidence")
	return RecommendationCard{
		ID:            r.ID(),
		Category:      render.Capitalize(category),
		CategoryClass: strings.ToLower(category),
		Impact:        render.Capitalize(impact),
		ImpactClass:   strings.ToLower(impact),
		Title:         r.StrOr("Recommendation", "title"),
		Description:   r.Str("description", "text"),
		Confidence:    conf,
		HasConfidence: has,
		Applied:       r.Bool("is_applied"),
	}
}

// ApplyRecommendation marks a recommendation as applied and reloads the list.
func (a *Analytics) ApplyRecommendation(ctx context.Context, id string) error {
	if _, err := a.API.ApplyRecommendation(ctx, id); err != nil {
		a.Notify.Toast(model.ToastError, "Error: "+err.Error())
		return err
	}
	a.Notify.Toast(model.ToastSuccess, "Recommendation marked as applied")
	return a.LoadRecommendations(ctx)
}

func (a *Analytics) DismissRecommendation(ctx context.Context, id string) error {
	if _, err := a.API.DismissRecommendation(ctx, id); err != nil {
		a.Notify.Toast(model.ToastError, "Error: "+err.Error())
		return err
	}
	a.Notify.Toast(model.ToastInfo, "Recommendation dismissed")
	return a.LoadRecommendations(ctx)
}

func (a *Analytics) LoadPerformance(ctx context.Context) error {
	return fill(ctx, &a.Performance, func(ctx context.Context) (Performance, error) {
		res, err := a.API.PerformanceSummary(ctx, a.Days)
		if err != nil {
			return Performance{}, err
		}
		return performance(res), nil
	})
}

func performance(d model.Record) Performance {
	var out Performance
	if d.Has("campaign_stats") {
		cs := d.Get("campaign_stats")
		total, _ := cs.Float("total")
		completed, _ := cs.Float("completed")
		if cs.Has("total") {
			out.Campaign = append(out.Campaign, StatCard{"Total Campaigns", cs.Get("total").String(), "bullhorn", "info"})
		}
		if cs.Has("completed") {
			out.Campaign = append(out.Campaign, StatCard{"Completed", cs.Get("completed").String(), "check-circle", "success"})
		}
		if cs.Has("failed") {
			out.Campaign = append(out.Campaign, StatCard{"Failed", cs.Get("failed").String(), "times-circle", "danger"})
		}
		rate := "0%"
		if total > 0 {
			rate = strconv.FormatFloat(completed/total*100, 'f', 1, 64) + "%"
		}
		out.Campaign = append(out.Campaign, StatCard{"Success Rate", rate, "chart-line", "primary"})
	}
	if d.Has("delivery_stats") {
		ds := d.Get("delivery_stats")
		if ds.Has("total_sent") {
			out.Delivery = append(out.Delivery, StatCard{"Messages Sent", render.FormatNumber(ds.Get("total_sent")), "envelope", "primary"})
		}
		if ds.Has("total_failed") {
			out.Delivery = append(out.Delivery, StatCard{"Failed", render.FormatNumber(ds.Get("total_failed")), "exclamation-triangle", "warning"})
		}
		if ds.Has("avg_success_rate") {
			out.Delivery = append(out.Delivery, StatCard{"Avg Success Rate", render.FormatPercentValue(ds.Get("avg_success_rate"), 1), "check", "success"})
		}
	}
	out.Audience = rows(d.Get("audience_breakdown").List(), func(r model.Record) InfoRow {
		n, _ := r.Float("count")
		return InfoRow{Label: r.StrOr("Unknown", "target_audience"), Value: render.FormatNumber(n) + " campaigns"}
	})
	for i, c := range d.Get("top_campaigns").List() {
		n, _ := c.Float("successful_sends")
		out.Top = append(out.Top, TopCampaign{Rank: i + 1, Name: c.StrOr("Campaign", "name"), Sent: render.FormatNumber(n)})
	}
	return out
}

func (a *Analytics) LoadAudience(ctx context.Context) error {
	return fill(ctx, &a.Audience, func(ctx context.Context) (AudienceInsights, error) {
		res, err := a.API.AudienceInsights(ctx)
		if err != nil {
			return AudienceInsights{}, err
		}
		return audienceInsights(res), nil
	})
}

func audienceInsights(d model.Record) AudienceInsights {
	zero := func(r model.Record, key string) string {
		n, _ := r.Float(key)
		return render.FormatNumber(n)
	}
	return AudienceInsights{
		Distribution: rows(d.Get("audience_distribution").List(), func(r model.Record) AudienceStat {
			return AudienceStat{
				Audience: r.StrOr("Unknown", "audience_type"),
				Clients:  zero(r, "total_clients"),
				Active:   zero(r, "active_campaigns"),
			}
		}),
		Performance: rows(d.Get("audience_performance").List(), func(r model.Record) AudienceStat {
			rate, _ := r.Float("avg_success_rate")
			cls := "danger"
			switch {
			case rate >= 0.8:
				cls = "success"
			case rate >= 0.5:
				cls = "warning"
			}
			return AudienceStat{
				Audience:  r.StrOr("Unknown", "target_audience"),
				Campaigns: zero(r, "total_campaigns"),
				Rate:      render.FormatPercent(rate, 1),
				RateClass: cls,
				Sent:      zero(r, "total_sent"),
			}
		}),
	}
}

func (a *Analytics) LoadActivity(ctx context.Context) error {
	return fill(ctx, &a.Activity, func(ctx context.Context) ([]Activity, error) {
		res, err := a.API.RecentActivity(ctx, recentActivityLimit)
		if err != nil {
			return nil, err
		}
		return rows(res.List("activity"), func(r model.Record) Activity {
			return Activity{
				Campaign: r.Str("activity_type") == "campaign",
				Title:    r.StrOr("Activity", "title"),
				Detail:   r.Str("detail"),
				When:     render.FormatDate(r.Str("timestamp")),
			}
		}), nil
	})
}

// LoadTrends charts one metric over the analytics window.
func (a *Analytics) LoadTrends(ctx context.Context, metric string) error {
	if metric == "" {
		metric = DefaultTrendMetric
	}
	return fill(ctx, &a.Trends, func(ctx context.Context) (Trends, error) {
		res, err := a.API.PerformanceTrends(ctx, metric, a.Days)
		if err != nil {
			return Trends{Metric: metric}, err
		}
		return trends(metric, res), nil
	})
}

func trends(metric string, d model.Record) Trends {
	points := d.List("trends", "data", "points")
	out := Trends{Metric: metric}
	peak := 0.0
	for _, p := range points {
		if v, ok := p.Float("value", metric); ok && v > peak {
			peak = v
		}
	}
	for _, p := range points {
		v, _ := p.Float("value", metric)
		h := 0.0
		if peak > 0 {
			h = v / peak * 100
		}
		out.Points = append(out.Points, TrendPoint{
			Label:  render.FormatDateLayout(p.Str("date", "period", "day"), "Jan 2"),
			Value:  strconv.FormatFloat(v, 'f', -1, 64),
			Height: h,
		})
	}
	return out
}

// CheckBestTime asks for the best send time for an audience.
func (a *Analytics) CheckBestTime(ctx context.Context, audience string) error {
	if audience == "" {
		audience = DefaultBestTimeGroup
	}
	return fill(ctx, &a.BestTime, func(ctx context.Context) (BestTime, error) {
		res, err := a.API.BestSendTime(ctx, audience)
		if err != nil {
			return BestTime{}, err
		}
		return bestTime(res), nil
	})
}

func bestTime(d model.Record) BestTime {
	best := d
	for _, k := range []string{"best_time", "recommended_time"} {
		if d.Has(k) {
			best = d.Get(k)
			break
		}
	}
	out := BestTime{Reasoning: d.Str("reasoning")}
	if best.Type == gjson.String {
		out.Text = best.String()
		return out
	}
	out.Day = best.Str("day")
	if best.Has("hour") {
		out.Hour = best.Get("hour").String() + ":00"
	}
	out.Timezone = best.Str("timezone")
	return out
}

// Evaluate scores a draft message. An empty message only warns.
func (a *Analytics) Evaluate(ctx context.Context, message, audience string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		a.Notify.Toast(model.ToastWarning, "Enter a message to evaluate")
		return nil
	}
	if audience == "" {
		audience = DefaultEvalAudience
	}
	return fill(ctx, &a.Evaluation, func(ctx context.Context) (Evaluation, error) {
		res, err := a.API.EvaluateMessage(ctx, message, audience)
		if err != nil {
			return Evaluation{}, err
		}
		return evaluation(res), nil
	})
}

func evaluation(d model.Record) Evaluation {
	var out Evaluation
	scores := d
	if d.Has("scores") {
		scores = d.Get("scores")
	}
	for _, e := range scores.Entries() {
		switch e.Key {
		case "suggestions", "feedback", "overall_feedback":
			continue
		}
		v, ok := e.Value.Float("@this")
		if !ok {
			continue
		}
		pct := v
		if v <= 1 {
			pct = v * 100
		}
		pct = math.Min(100, math.Max(0, pct))
		cls := "poor"
		switch {
		case pct >= 70:
			cls = "good"
		case pct >= 40:
			cls = "ok"
		}
		value := render.FormatPercentValue(v, 0)
		if v <= 1 {
			value = render.FormatPercent(v, 0)
		}
		out.Scores = append(out.Scores, ScoreRow{Label: render.Label(e.Key), Percent: pct, Class: cls, Value: value})
	}
	out.Feedback = d.Str("overall_feedback", "feedback")
	for _, s := range d.Get("suggestions").List() {
		if s.Type == gjson.String {
			out.Suggestions = append(out.Suggestions, s.String())
			continue
		}
		out.Suggestions = append(out.Suggestions, s.StrOr(s.Raw, "text"))
	}
	return out
}

// Export downloads the analytics export for the last Days days.
func (a *Analytics) Export(ctx context.Context, format string, now time.Time) (Download, error) {
	if format == "" {
		format = "json"
	}
	start := now.AddDate(0, 0, -a.Days).Format("2006-01-02")
	end := now.Format("2006-01-02")
	res, err := a.API.ExportAnalytics(ctx, start, end, format)
	if err != nil {
		a.Notify.Toast(model.ToastError, failed("Export", err))
		return Download{}, err
	}
	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv"
	}
	data := []byte(res.Raw)
	if format == "csv" && res.Type == gjson.String {
		data = []byte(res.String())
	}
	a.Notify.Toast(model.ToastSuccess, "Export complete")
	return Download{
		FileName:    fmt.Sprintf("analytics_%s_%s.%s", start, end, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}
