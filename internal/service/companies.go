package service

import (
	"context"
	"strings"
	"sync"

	appErrors "github.com/unclebandit/smsleopard-dashboard/internal/errors"
	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

// Company form defaults.
const (
	DefaultWhatsAppVersion  = "v18.0"
	DefaultWhatsAppTemplate = "ideal_home_final_v1"
	DefaultApprovalMethod   = "both"
)

// companyOptional are the company fields sent as null when left blank.
var companyOptional = []string{
	"location", "website", "description", "logo_url",
	"tel", "mobile_1", "mobile_2", "instagram_handle", "email_info", "email_sales",
	"whatsapp_phone_number_id", "whatsapp_access_token", "whatsapp_business_account_id",
	"approval_email", "rag_webhook_url",
}

type CompaniesAPI interface {
	Companies(ctx context.Context, activeOnly bool) (model.Record, error)
	Company(ctx context.Context, id string) (model.Record, error)
	CreateCompany(ctx context.Context, data any) (model.Record, error)
	UpdateCompany(ctx context.Context, id string, data any) (model.Record, error)
	DeleteCompany(ctx context.Context, id string) (model.Record, error)
}

type CompanyRow struct {
	ID             string
	Name           string
	Website        string
	Slug           string
	Location       string
	Tel            string
	Mobile         string
	WhatsAppID     string
	ApprovalMethod string
	ApprovalColor  string
	Active         bool
	Default        bool
}

type CompanyStats struct {
	Total    int
	Active   int
	WhatsApp int
	Default  string
}

type CompanyOption struct {
	ID       string
	Label    string
	Selected bool
}

type DetailSection struct {
	Label string
	Icon  string
	Rows  []InfoRow
}

type CompanyDetail struct {
	ID       string
	Name     string
	Sections []DetailSection
}

// CompanyFilter narrows the loaded list locally. Status is "", "active" or
// "inactive".
type CompanyFilter struct {
	Search string
	Status string
}

type Companies struct {
	page
	API    CompaniesAPI
	Store  *SettingsStore
	Notify Toaster

	All      lifecycle.View[[]model.Record]
	Selector lifecycle.View[[]CompanyOption]
	Detail   lifecycle.View[CompanyDetail]

	mu     sync.Mutex
	filter CompanyFilter
}

func NewCompanies(api CompaniesAPI, store *SettingsStore, notify Toaster) *Companies {
	return &Companies{API: api, Store: store, Notify: notify}
}

// Init fills the company selector shown in the header on every page.
func (c *Companies) Init(ctx context.Context) {
	if err := c.LoadSelector(ctx); err != nil {
		logging.WithComponent("companies").Warn("⚠️ company selector load failed", "error", err)
	}
}

func (c *Companies) OnPageActive(ctx context.Context) {
	c.tasks.Go(ctx, "companies.load", 0, func(ctx context.Context) { _ = c.Load(ctx) })
}

func (c *Companies) OnPageInactive() {
	c.stop()
	c.All.Invalidate()
	c.Detail.Invalidate()
}

func (c *Companies) Load(ctx context.Context) error {
	err := fill(ctx, &c.All, func(ctx context.Context) ([]model.Record, error) {
		res, err := c.API.Companies(ctx, false)
		if err != nil {
			return nil, err
		}
		return res.List("companies"), nil
	})
	if err != nil && ctx.Err() == nil {
		c.Notify.Toast(model.ToastError, "Failed to load companies")
	}
	return err
}

func (c *Companies) Filter() CompanyFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// ApplyFilter only changes what Rows returns; nothing is refetched.
func (c *Companies) ApplyFilter(f CompanyFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	c.filter = f
}

// Rows returns the loaded companies matching the filter.
func (c *Companies) Rows() []CompanyRow {
	f := c.Filter()
	var out []CompanyRow
	for _, r := range c.All.Snapshot().Value {
		if !matchesCompany(r, f) {
			continue
		}
		out = append(out, companyRow(r))
	}
	return out
}

func matchesCompany(r model.Record, f CompanyFilter) bool {
	active := r.Bool("is_active")
	if (f.Status == "active" && !active) || (f.Status == "inactive" && active) {
		return false
	}
	if f.Search == "" {
		return true
	}
	for _, field := range []string{"company_name", "company_slug", "location"} {
		if strings.Contains(strings.ToLower(r.Str(field)), f.Search) {
			return true
		}
	}
	return false
}

func companyRow(r model.Record) CompanyRow {
	method := r.StrOr(DefaultApprovalMethod, "approval_method")
	return CompanyRow{
		ID:             r.ID(),
		Name:           r.Str("company_name"),
		Website:        r.Str("website"),
		Slug:           r.Str("company_slug"),
		Location:       r.StrOr(render.Dash, "location"),
		Tel:            r.Str("tel"),
		Mobile:         r.Str("mobile_1"),
		WhatsAppID:     r.StrOr(render.Dash, "whatsapp_phone_number_id"),
		ApprovalMethod: method,
		ApprovalColor:  render.ApprovalColor(method),
		Active:         r.Bool("is_active"),
		Default:        r.Bool("is_default"),
	}
}

// Stats summarises every loaded company regardless of the filter.
func (c *Companies) Stats() CompanyStats {
	all := c.All.Snapshot().Value
	st := CompanyStats{Total: len(all), Default: render.Dash}
	defaultSeen := false
	for _, r := range all {
		if r.Bool("is_active") {
			st.Active++
		}
		if r.Str("whatsapp_phone_number_id") != "" {
			st.WhatsApp++
		}
		if !defaultSeen && r.Bool("is_default") {
			st.Default = r.Str("company_name")
			defaultSeen = true
		}
	}
	return st
}

// LoadSelector lists the active companies for the header selector.
func (c *Companies) LoadSelector(ctx context.Context) error {
	selected := c.Store.Settings().CompanyID
	return fill(ctx, &c.Selector, func(ctx context.Context) ([]CompanyOption, error) {
		res, err := c.API.Companies(ctx, true)
		if err != nil {
			return nil, err
		}
		opts := []CompanyOption{{ID: "", Label: "All Companies", Selected: selected == ""}}
		for _, r := range res.List("companies") {
			label := r.Str("company_name")
			if r.Bool("is_default") {
				label += " ★"
			}
			opts = append(opts, CompanyOption{ID: r.ID(), Label: label, Selected: r.ID() == selected})
		}
		return opts, nil
	})
}

// Select scopes the tenant-aware endpoints to company id; "" means all
// companies. The caller re-activates the current page afterwards.
func (c *Companies) Select(ctx context.Context, id string) error {
	if err := c.Store.SetCompany(ctx, strings.TrimSpace(id)); err != nil {
		c.Notify.Toast(model.ToastError, "Error: "+err.Error())
		return err
	}
	return c.LoadSelector(ctx)
}

func (c *Companies) Get(ctx context.Context, id string) (model.Record, error) {
	rec, err := c.API.Company(ctx, id)
	if err != nil {
		c.Notify.Toast(model.ToastError, "Failed to load company: "+err.Error())
	}
	return rec, err
}

func (c *Companies) ShowDetail(ctx context.Context, id string) error {
	err := fill(ctx, &c.Detail, func(ctx context.Context) (CompanyDetail, error) {
		rec, err := c.API.Company(ctx, id)
		if err != nil {
			return CompanyDetail{}, err
		}
		return companyDetail(rec), nil
	})
	if err != nil {
		c.Notify.Toast(model.ToastError, "Failed to load company: "+err.Error())
	}
	return err
}

// HideDetail closes the detail card.
func (c *Companies) HideDetail() { c.Detail.Commit(c.Detail.Begin(), CompanyDetail{}, nil) }

func companyDetail(r model.Record) CompanyDetail {
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	token := r.Str("whatsapp_access_token")
	if token != "" {
		if len(token) > 8 {
			token = token[len(token)-8:]
		}
		token = "••••" + token
	}
	stamp := func(key string) string {
		if r.Str(key) == "" {
			return ""
		}
		return render.FormatDate(r.Str(key))
	}
	sections := []DetailSection{
		{Label: "Basic", Icon: "fas fa-info-circle", Rows: []InfoRow{
			{"Name", r.Str("company_name")}, {"Slug", r.Str("company_slug")},
			{"Location", r.Str("location")}, {"Website", r.Str("website")},
			{"Description", r.Str("description")}, {"Logo", r.Str("logo_url")},
		}},
		{Label: "Contact", Icon: "fas fa-phone-alt", Rows: []InfoRow{
			{"Tel", r.Str("tel")}, {"Mobile 1", r.Str("mobile_1")}, {"Mobile 2", r.Str("mobile_2")},
			{"Email (Info)", r.Str("email_info")}, {"Email (Sales)", r.Str("email_sales")},
			{"Instagram", r.Str("instagram_handle")},
		}},
		{Label: "WhatsApp", Icon: "fab fa-whatsapp", Rows: []InfoRow{
			{"Phone Number ID", r.Str("whatsapp_phone_number_id")},
			{"Access Token", token},
			{"Business Account ID", r.Str("whatsapp_business_account_id")},
			{"API Version", r.Str("whatsapp_api_version")},
			{"Template Name", r.Str("whatsapp_template_name")},
		}},
		{Label: "Approval & AI", Icon: "fas fa-check-double", Rows: []InfoRow{
			{"Approval Email", r.Str("approval_email")},
			{"Approval Method", r.Str("approval_method")},
			{"RAG Webhook", r.Str("rag_webhook_url")},
		}},
		{Label: "Status", Icon: "fas fa-toggle-on", Rows: []InfoRow{
			{"Active", yesNo(r.Bool("is_active"))},
			{"Default", yesNo(r.Bool("is_default"))},
			{"Created", stamp("created_at")},
			{"Updated", stamp("updated_at")},
		}},
	}
	for i := range sections {
		kept := sections[i].Rows[:0]
		for _, row := range sections[i].Rows {
			if row.Value != "" {
				kept = append(kept, row)
			}
		}
		sections[i].Rows = kept
	}
	return CompanyDetail{ID: r.ID(), Name: r.Str("company_name"), Sections: sections}
}

// Save creates the company when id is empty, updates it otherwise. A new
// company without a slug gets one derived from its name.
func (c *Companies) Save(ctx context.Context, id string, data map[string]any) error {
	form := companyPayload(CleanForm(data), id == "")
	if err := companyForm.validate(form); err != nil {
		c.Notify.Toast(model.ToastError, err.Error())
		return err
	}
	var err error
	if id == "" {
		_, err = c.API.CreateCompany(ctx, form)
	} else {
		_, err = c.API.UpdateCompany(ctx, id, form)
	}
	if err != nil {
		c.Notify.Toast(model.ToastError, "Error: "+err.Error())
		return err
	}
	if id == "" {
		c.Notify.Toast(model.ToastSuccess, "Company created successfully")
	} else {
		c.Notify.Toast(model.ToastSuccess, "Company updated successfully")
	}
	c.reload(ctx)
	return nil
}

func companyPayload(form Form, creating bool) Form {
	if creating && form.Str("company_slug") == "" {
		form["company_slug"] = render.Slugify(form.Str("company_name"))
	}
	for _, k := range companyOptional {
		if form.Str(k) == "" {
			form[k] = nil
		}
	}
	defaults := map[string]string{
		"whatsapp_api_version":   DefaultWhatsAppVersion,
		"whatsapp_template_name": DefaultWhatsAppTemplate,
		"approval_method":        DefaultApprovalMethod,
	}
	for k, v := range defaults {
		if form.Str(k) == "" {
			form[k] = v
		}
	}
	for _, k := range []string{"is_active", "is_default"} {
		if _, ok := form[k].(bool); !ok {
			form[k] = false
		}
	}
	return form
}

// Delete removes a company. The default company cannot be deleted.
func (c *Companies) Delete(ctx context.Context, id string) error {
	for _, r := range c.All.Snapshot().Value {
		if r.ID() == id && r.Bool("is_default") {
			err := appErrors.NewValidation("company", "The default company cannot be deleted")
			c.Notify.Toast(model.ToastWarning, err.Error())
			return err
		}
	}
	if _, err := c.API.DeleteCompany(ctx, id); err != nil {
		c.Notify.Toast(model.ToastError, "Error: "+err.Error())
		return err
	}
	c.Notify.Toast(model.ToastSuccess, "Company deleted")
	c.reload(ctx)
	return nil
}

func (c *Companies) reload(ctx context.Context) {
	fanOut(ctx, "companies", c.Load, c.LoadSelector)
}
