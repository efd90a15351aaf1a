package service_test

import (
	"context"
	"testing"

	appErrors "github.com/unclebandit/smsleopard-dashboard/internal/errors"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

const companiesJSON = `{"companies":[
	{"id":"1","company_name":"Ideal Home","company_slug":"ideal-home","location":"Nairobi","is_active":true,"is_default":true,"whatsapp_phone_number_id":"555"},
	{"id":"2","company_name":"Acme Traders","company_slug":"acme","location":"Mombasa","is_active":true},
	{"id":"3","company_name":"Old Shop","company_slug":"old-shop","is_active":false}
]}`

type fakeCompaniesAPI struct {
	activeOnly []bool
	created    []service.Form
	updated    []service.Form
	deleted    []string
}

func (f *fakeCompaniesAPI) Companies(ctx context.Context, activeOnly bool) (model.Record, error) {
	f.activeOnly = append(f.activeOnly, activeOnly)
	if activeOnly {
		return rec(`{"companies":[{"id":"1","company_name":"Ideal Home","is_default":true},{"id":"2","company_name":"Acme Traders"}]}`), nil
	}
	return rec(companiesJSON), nil
}

func (f *fakeCompaniesAPI) Company(ctx context.Context, id string) (model.Record, error) {
	return rec(`{"id":"1","company_name":"Ideal Home","company_slug":"ideal-home","whatsapp_access_token":"EAAG1234567890abcdef","is_active":true}`), nil
}

func (f *fakeCompaniesAPI) CreateCompany(ctx context.Context, data any) (model.Record, error) {
	f.created = append(f.created, data.(service.Form))
	return rec(`{"id":"9"}`), nil
}

func (f *fakeCompaniesAPI) UpdateCompany(ctx context.Context, id string, data any) (model.Record, error) {
	f.updated = append(f.updated, data.(service.Form))
	return rec(`{}`), nil
}

func (f *fakeCompaniesAPI) DeleteCompany(ctx context.Context, id string) (model.Record, error) {
	f.deleted = append(f.deleted, id)
	return rec(`{}`), nil
}

func newTestCompanies(t *testing.T) (*service.Companies, *fakeCompaniesAPI, *recordingToaster, *service.SettingsStore) {
	t.Helper()
	store, err := service.NewSettingsStore(context.Background(), &memSettingsRepo{}, model.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeCompaniesAPI{}
	toasts := &recordingToaster{}
	return service.NewCompanies(fake, store, toasts), fake, toasts, store
}

func TestCompaniesStatsAndFilter(t *testing.T) {
	c, _, _, _ := newTestCompanies(t)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := c.Stats()
	if st.Total != 3 || st.Active != 2 || st.WhatsApp != 1 || st.Default != "Ideal Home" {
		t.Errorf("unexpected stats %+v", st)
	}

	c.ApplyFilter(service.CompanyFilter{Search: "  MOMBASA "})
	rows := c.Rows()
	if len(rows) != 1 || rows[0].Name != "Acme Traders" {
		t.Errorf("search filter: %+v", rows)
	}

	c.ApplyFilter(service.CompanyFilter{Status: "inactive"})
	rows = c.Rows()
	if len(rows) != 1 || rows[0].Slug != "old-shop" {
		t.Errorf("status filter: %+v", rows)
	}
	if rows[0].ApprovalMethod != service.DefaultApprovalMethod {
		t.Errorf("approval method not defaulted: %q", rows[0].ApprovalMethod)
	}
}

func TestCompaniesSelector(t *testing.T) {
	c, fake, _, store := newTestCompanies(t)
	c.Init(context.Background())

	opts := c.Selector.Snapshot().Value
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %+v", opts)
	}
	if opts[0].Label != "All Companies" || !opts[0].Selected {
		t.Errorf("unexpected first option %+v", opts[0])
	}
	if opts[1].Label != "Ideal Home ★" {
		t.Errorf("default company not starred: %q", opts[1].Label)
	}
	if !fake.activeOnly[0] {
		t.Error("selector should list active companies only")
	}

	if err := c.Select(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if store.Settings().CompanyID != "2" {
		t.Errorf("company not stored: %+v", store.Settings())
	}
	opts = c.Selector.Snapshot().Value
	if opts[0].Selected || !opts[2].Selected {
		t.Errorf("selection not reflected: %+v", opts)
	}
}

func TestCompaniesSaveFillsDefaults(t *testing.T) {
	c, fake, toasts, _ := newTestCompanies(t)

	err := c.Save(context.Background(), "", map[string]any{"company_name": "Blue Sky Homes", "website": " "})
	if err != nil {
		t.Fatal(err)
	}
	form := fake.created[0]
	if form.Str("company_slug") != "blue-sky-homes" {
		t.Errorf("slug not derived: %v", form["company_slug"])
	}
	if form["website"] != nil {
		t.Errorf("blank optional field should be null, got %v", form["website"])
	}
	if form.Str("whatsapp_api_version") != service.DefaultWhatsAppVersion ||
		form.Str("whatsapp_template_name") != service.DefaultWhatsAppTemplate ||
		form.Str("approval_method") != service.DefaultApprovalMethod {
		t.Errorf("defaults not applied: %v", form)
	}
	if form["is_active"] != false || form["is_default"] != false {
		t.Errorf("flags not defaulted: %v", form)
	}
	var created bool
	for _, ts := range toasts.all() {
		created = created || ts.Message == "Company created successfully"
	}
	if !created {
		t.Errorf("expected success toast, got %+v", toasts.all())
	}
}

func TestCompaniesSaveRejectsMissingSlugOnUpdate(t *testing.T) {
	c, fake, toasts, _ := newTestCompanies(t)

	err := c.Save(context.Background(), "2", map[string]any{"company_name": "Acme"})
	if !appErrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fake.updated) != 0 {
		t.Error("invalid form reached the API")
	}
	if got := toasts.last(); got.Level != model.ToastError || got.Message != "Company name and slug are required" {
		t.Errorf("unexpected toast %+v", got)
	}
}

func TestCompaniesDeleteRefusesDefault(t *testing.T) {
	c, fake, toasts, _ := newTestCompanies(t)
	_ = c.Load(context.Background())

	if err := c.Delete(context.Background(), "1"); err == nil {
		t.Fatal("expected the default company to be protected")
	}
	if len(fake.deleted) != 0 {
		t.Error("default company deleted")
	}
	if toasts.last().Level != model.ToastWarning {
		t.Errorf("expected a warning, got %+v", toasts.last())
	}

	if err := c.Delete(context.Background(), "3"); err != nil {
		t.Fatal(err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "3" {
		t.Errorf("unexpected deletes %v", fake.deleted)
	}
}

func TestCompaniesDetailMasksToken(t *testing.T) {
	c, _, _, _ := newTestCompanies(t)
	if err := c.ShowDetail(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	d := c.Detail.Snapshot().Value
	var token string
	for _, s := range d.Sections {
		for _, r := range s.Rows {
			if r.Label == "Access Token" {
				token = r.Value
			}
		}
	}
	if token != "••••90abcdef" {
		t.Errorf("unexpected token display %q", token)
	}

	c.HideDetail()
	if c.Detail.Snapshot().Value.ID != "" {
		t.Error("detail still shown")
	}
}
