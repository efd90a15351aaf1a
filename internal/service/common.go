package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

// PerPage is the page size of the client and campaign tables.
const PerPage = 20

// Toaster shows a transient message to the operator.
type Toaster interface {
	Toast(level model.ToastLevel, message string)
}

// page carries the tasks a module runs while it is the active page.
type page struct {
	tasks lifecycle.Group
}

// RunningTasks counts the periodic tasks the module currently owns.
func (p *page) RunningTasks() int { return p.tasks.Running() }

// WaitReady waits for the first load of every task started on activation.
func (p *page) WaitReady(ctx context.Context) error { return p.tasks.WaitReady(ctx) }

func (p *page) stop() { p.tasks.StopAll() }

// fill runs fetch and commits its result to v unless a newer load started.
func fill[T any](ctx context.Context, v *lifecycle.View[T], fetch func(context.Context) (T, error)) error {
	t := v.Begin()
	val, err := fetch(ctx)
	v.Commit(t, val, err)
	return err
}

// fanOut runs independent panel loads concurrently. A failing panel keeps its
// own error state and never cancels its siblings.
func fanOut(ctx context.Context, component string, loads ...func(context.Context) error) {
	log := logging.WithComponent(component)
	var g errgroup.Group
	for _, load := range loads {
		g.Go(func() error {
			if err := load(ctx); err != nil {
				log.Warn("⚠️ panel load failed", "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Listing is one page of a server-side paginated table.
type Listing[R any] struct {
	Rows       []R
	Total      int
	Page       int
	TotalPages int
	Pages      []render.PageLink
}

func (l Listing[R]) Empty() bool { return len(l.Rows) == 0 }

func newListing[R any](rows []R, res model.Record, page int) Listing[R] {
	total := len(rows)
	if n, ok := res.Int("total"); ok {
		total = int(n)
	}
	pages := render.TotalPages(total, PerPage)
	return Listing[R]{
		Rows:       rows,
		Total:      total,
		Page:       page,
		TotalPages: pages,
		Pages:      render.BuildPagination(page, pages),
	}
}

// rows maps every element of a list response.
func rows[R any](list []model.Record, fn func(model.Record) R) []R {
	out := make([]R, 0, len(list))
	for _, r := range list {
		out = append(out, fn(r))
	}
	return out
}

// failed formats the toast for a failed operation.
func failed(action string, err error) string {
	return fmt.Sprintf("%s failed: %s", action, err)
}
