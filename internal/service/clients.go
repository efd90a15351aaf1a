package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/api"
	"github.com/unclebandit/smsleopard-dashboard/internal/export"
	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

// ClientAudiences are the audience filters offered above the client table.
var ClientAudiences = []string{"general", "vip", "new", "inactive"}

type ClientsAPI interface {
	Clients(ctx context.Context, query url.Values) (model.Record, error)
	ClientByID(ctx context.Context, id string) (model.Record, error)
	CreateClient(ctx context.Context, data any) (model.Record, error)
	UpdateClient(ctx context.Context, id string, data any) (model.Record, error)
	DeleteClient(ctx context.Context, id string) (model.Record, error)
	ExportClientsXLSX(ctx context.Context, audience string) (api.Blob, error)
	ImportClientsXLSX(ctx context.Context, filename string, file io.Reader) (model.Record, error)
}

type ClientRow struct {
	ID       string
	Name     string
	Phone    string
	Email    string
	Audience string
	Status   string
}

type ClientFilter struct {
	Search   string
	Audience string
	Page     int
}

// Download is a file handed to the browser.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Clients struct {
	page
	API    ClientsAPI
	Notify Toaster

	List lifecycle.View[Listing[ClientRow]]

	mu     sync.Mutex
	filter ClientFilter
	now    func() time.Time
}

func NewClients(api ClientsAPI, notify Toaster) *Clients {
	return &Clients{API: api, Notify: notify, filter: ClientFilter{Page: 1}, now: time.Now}
}

func (c *Clients) OnPageActive(ctx context.Context) {
	c.tasks.Go(ctx, "clients.load", 0, func(ctx context.Context) { _ = c.Load(ctx) })
}

func (c *Clients) OnPageInactive() {
	c.stop()
	c.List.Invalidate()
}

func (c *Clients) Filter() ClientFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// ApplyFilter replaces the filter and reloads. A changed search or audience
// starts again from page 1.
func (c *Clients) ApplyFilter(ctx context.Context, f ClientFilter) error {
	c.mu.Lock()
	if f.Search != c.filter.Search || f.Audience != c.filter.Audience || f.Page < 1 {
		f.Page = 1
	}
	c.filter = f
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *Clients) Load(ctx context.Context) error {
	f := c.Filter()
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Audience != "" {
		q.Set("audience_type", f.Audience)
	}
	q.Set("limit", strconv.Itoa(PerPage))
	q.Set("offset", strconv.Itoa((f.Page-1)*PerPage))

	err := fill(ctx, &c.List, func(ctx context.Context) (Listing[ClientRow], error) {
		res, err := c.API.Clients(ctx, q)
		if err != nil {
			return Listing[ClientRow]{}, err
		}
		list := rows(res.List("clients"), func(r model.Record) ClientRow {
			return ClientRow{
				ID:       r.ID(),
				Name:     r.Str("name"),
				Phone:    r.StrOr("—", "phone"),
				Email:    r.StrOr("—", "email"),
				Audience: r.StrOr("general", "audience_type"),
				Status:   r.StrOr("active", "status"),
			}
		})
		return newListing(list, res, f.Page), nil
	})
	if err != nil && ctx.Err() == nil {
		c.Notify.Toast(model.ToastError, "Failed to load clients: "+err.Error())
	}
	return err
}

// Get loads one client for the edit form.
func (c *Clients) Get(ctx context.Context, id string) (model.Record, error) {
	rec, err := c.API.ClientByID(ctx, id)
	if err != nil {
		c.Notify.Toast(model.ToastError, "Failed to load client: "+err.Error())
	}
	return rec, err
}

// Save creates the client when id is empty, updates it otherwise.
func (c *Clients) Save(ctx context.Context, id string, data map[string]any) error {
	form := CleanForm(data)
	if err := clientForm.validate(form); err != nil {
		c.Notify.Toast(model.ToastWarning, err.Error())
		return err
	}
	var err error
	if id == "" {
		_, err = c.API.CreateClient(ctx, form)
	} else {
		_, err = c.API.UpdateClient(ctx, id, form)
	}
	if err != nil {
		c.Notify.Toast(model.ToastError, failed("Save", err))
		return err
	}
	if id == "" {
		c.Notify.Toast(model.ToastSuccess, "Client created")
	} else {
		c.Notify.Toast(model.ToastSuccess, "Client updated")
	}
	return c.Load(ctx)
}

func (c *Clients) Delete(ctx context.Context, id string) error {
	if _, err := c.API.DeleteClient(ctx, id); err != nil {
		c.Notify.Toast(model.ToastError, failed("Delete", err))
		return err
	}
	c.Notify.Toast(model.ToastSuccess, "Client deleted")
	return c.Load(ctx)
}

// Export downloads the clients workbook for the current audience filter.
func (c *Clients) Export(ctx context.Context) (Download, error) {
	blob, err := c.API.ExportClientsXLSX(ctx, c.Filter().Audience)
	if err != nil {
		c.Notify.Toast(model.ToastError, failed("Export", err))
		return Download{}, err
	}
	c.Notify.Toast(model.ToastSuccess, "Export complete")
	return Download{
		FileName:    export.FileName("clients", c.now(), export.XLSX),
		ContentType: blobType(blob, export.XLSX),
		Data:        blob.Data,
	}, nil
}

func (c *Clients) Import(ctx context.Context, filename string, file io.Reader) error {
	if file == nil {
		c.Notify.Toast(model.ToastWarning, "Select a file first")
		return nil
	}
	res, err := c.API.ImportClientsXLSX(ctx, filename, file)
	if err != nil {
		c.Notify.Toast(model.ToastError, failed("Import", err))
		return err
	}
	c.Notify.Toast(model.ToastSuccess, importedMessage(res, "clients"))
	return c.Load(ctx)
}

func importedMessage(res model.Record, what string) string {
	n, ok := res.Int("imported", "count")
	if !ok {
		return fmt.Sprintf("Imported %s", what)
	}
	return fmt.Sprintf("Imported %d %s", n, what)
}

func blobType(b api.Blob, f export.Format) string {
	if b.ContentType != "" {
		return b.ContentType
	}
	return f.ContentType()
}
