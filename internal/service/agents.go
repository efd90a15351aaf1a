package service

import (
	"context"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

const agentRunsShown = 50

type AgentsAPI interface {
	AgentHeartbeats(ctx context.Context) (model.Record, error)
	AgentRuns(ctx context.Context, query url.Values) (model.Record, error)
}

type Heartbeat struct {
	Name     string
	Status   string
	Online   bool
	LastSeen string
	Meta     []model.Entry
	// RawMeta is set when the metadata string is not a JSON object.
	RawMeta string
}

type AgentRun struct {
	ID       string
	Agent    string
	Campaign string
	Status   string
	Started  string
	Duration string
	Error    string
}

type Agents struct {
	page
	API      AgentsAPI
	Interval time.Duration

	Heartbeats lifecycle.View[[]Heartbeat]
	Runs       lifecycle.View[[]AgentRun]
}

func NewAgents(api AgentsAPI, interval time.Duration) *Agents {
	return &Agents{API: api, Interval: interval}
}

func (a *Agents) OnPageActive(ctx context.Context) {
	a.tasks.Go(ctx, "agents.refresh", a.Interval, a.LoadAll)
}

func (a *Agents) OnPageInactive() {
	a.stop()
	a.Heartbeats.Invalidate()
	a.Runs.Invalidate()
}

func (a *Agents) LoadAll(ctx context.Context) {
	fanOut(ctx, "agents", a.LoadHeartbeats, a.LoadRuns)
}

func (a *Agents) LoadHeartbeats(ctx context.Context) error {
	return fill(ctx, &a.Heartbeats, func(ctx context.Context) ([]Heartbeat, error) {
		res, err := a.API.AgentHeartbeats(ctx)
		if err != nil {
			return nil, err
		}
		return rows(res.List("heartbeats"), heartbeat), nil
	})
}

func heartbeat(b model.Record) Heartbeat {
	status := b.Str("status")
	h := Heartbeat{
		Name:     b.Str("agent_name", "name"),
		Status:   render.Capitalize(status),
		Online:   status == "online" || status == "active",
		LastSeen: render.TimeAgo(b.Str("last_heartbeat", "updated_at")),
	}
	meta := b.Get("metadata")
	switch {
	case meta.IsObject():
		h.Meta = meta.Entries()
	case meta.Type == gjson.String && meta.String() != "":
		if parsed := model.RecordOf(meta.String()); parsed.IsObject() {
			h.Meta = parsed.Entries()
		} else {
			h.RawMeta = meta.String()
		}
	}
	return h
}

func (a *Agents) LoadRuns(ctx context.Context) error {
	return fill(ctx, &a.Runs, func(ctx context.Context) ([]AgentRun, error) {
		res, err := a.API.AgentRuns(ctx, nil)
		if err != nil {
			return nil, err
		}
		list := res.List("runs")
		if len(list) > agentRunsShown {
			list = list[:agentRunsShown]
		}
		return rows(list, func(r model.Record) AgentRun {
			dur, _ := r.Float("duration_seconds")
			return AgentRun{
				ID:       r.StrOr(render.Dash, "id"),
				Agent:    r.StrOr(render.Dash, "agent_name"),
				Campaign: r.StrOr(render.Dash, "campaign_name"),
				Status:   r.Str("status"),
				Started:  render.FormatDate(r.Str("started_at")),
				Duration: render.FormatDuration(dur, 1),
				Error:    render.Truncate(r.StrOr(render.Dash, "error_message"), 50),
			}
		}), nil
	})
}
