package service

import (
	"context"
	"strings"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

type ApprovalsAPI interface {
	PendingApprovals(ctx context.Context) (model.Record, error)
	ApproveCampaign(ctx context.Context, id string) (model.Record, error)
	RejectCampaign(ctx context.Context, id, feedback string) (model.Record, error)
}

type PendingApproval struct {
	ID       string
	Name     string
	Audience string
	Preview  string
	ImageURL string
	Created  string
}

type Approvals struct {
	page
	API    ApprovalsAPI
	Notify Toaster

	Pending lifecycle.View[[]PendingApproval]
}

func NewApprovals(api ApprovalsAPI, notify Toaster) *Approvals {
	return &Approvals{API: api, Notify: notify}
}

func (a *Approvals) OnPageActive(ctx context.Context) {
	a.tasks.Go(ctx, "approvals.load", 0, func(ctx context.Context) { _ = a.Load(ctx) })
}

func (a *Approvals) OnPageInactive() {
	a.stop()
	a.Pending.Invalidate()
}

func (a *Approvals) Load(ctx context.Context) error {
	return fill(ctx, &a.Pending, func(ctx context.Context) ([]PendingApproval, error) {
		res, err := a.API.PendingApprovals(ctx)
		if err != nil {
			return nil, err
		}
		return rows(res.List("pending"), func(r model.Record) PendingApproval {
			return PendingApproval{
				ID:       r.ID("id", "campaign_id"),
				Name:     r.StrOr("Campaign", "campaign_name", "name"),
				Audience: r.Str("audience_type"),
				Preview:  render.Truncate(r.Str("message_preview"), 150),
				ImageURL: r.Str("image_url"),
				Created:  render.TimeAgo(r.Str("created_at")),
			}
		}), nil
	})
}

func (a *Approvals) Approve(ctx context.Context, id string) error {
	if _, err := a.API.ApproveCampaign(ctx, id); err != nil {
		a.Notify.Toast(model.ToastError, failed("Approve", err))
		return err
	}
	a.Notify.Toast(model.ToastSuccess, "Campaign approved")
	return a.Load(ctx)
}

// Reject sends the optional feedback along with the rejection.
func (a *Approvals) Reject(ctx context.Context, id, feedback string) error {
	if _, err := a.API.RejectCampaign(ctx, id, strings.TrimSpace(feedback)); err != nil {
		a.Notify.Toast(model.ToastError, failed("Reject", err))
		return err
	}
	a.Notify.Toast(model.ToastSuccess, "Campaign rejected")
	return a.Load(ctx)
}
