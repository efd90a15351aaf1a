package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	appErrors "github.com/unclebandit/smsleopard-dashboard/internal/errors"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

type settingsFunc func() model.Settings

func (f settingsFunc) Settings() model.Settings { return f() }

func newTestClient(t *testing.T, h http.HandlerFunc, s model.Settings) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s.BaseURL = srv.URL
	return New(StaticSettings(s))
}

func TestGetSetsHeaders(t *testing.T) {
	var gotKey, gotCT, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotCT = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"healthy"}`))
	}, model.Settings{APIKey: "k-123"})

	rec, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if rec.Str("status") != "healthy" {
		t.Errorf("unexpected body %s", rec.Raw)
	}
	if gotKey != "k-123" || gotCT != "application/json" || gotPath != "/health" {
		t.Errorf("unexpected request key=%q ct=%q path=%q", gotKey, gotCT, gotPath)
	}
}

func TestNoAPIKeyHeaderWhenUnset(t *testing.T) {
	var present bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["X-Api-Key"]
		w.Write([]byte(`[]`))
	}, model.Settings{})
	if _, err := c.Root(context.Background()); err != nil {
		t.Fatal(err)
	}
	if present {
		t.Error("X-API-Key should not be sent without a key")
	}
}

func TestCompanyScope(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		w.Write([]byte(`{}`))
	}, model.Settings{CompanyID: "7"})

	ctx := context.Background()
	c.Clients(ctx, map[string][]string{"page": {"2"}})
	c.Dashboard(ctx)
	c.Reports(ctx, "Spring")
	c.AuditLog(ctx, nil)

	want := []string{
		"/api/clients?company_id=7&page=2",
		"/api/dashboard?company_id=7",
		"/api/reports?campaign_name=Spring&company_id=7",
		"/api/audit?",
	}
	for i, w := range want {
		if queries[i] != w {
			t.Errorf("request %d: expected %q, got %q", i, w, queries[i])
		}
	}
}

func TestSettingsReadPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-API-Key"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var mu sync.Mutex
	key := "first"
	c := New(settingsFunc(func() model.Settings {
		mu.Lock()
		defer mu.Unlock()
		return model.Settings{BaseURL: srv.URL, APIKey: key}
	}))
	c.Health(context.Background())
	mu.Lock()
	key = "second"
	mu.Unlock()
	c.Health(context.Background())

	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Errorf("unexpected keys %v", seen)
	}
}

func TestHTTPErrorBodyOnlyForWrites(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`name is required`))
	}, model.Settings{})
	ctx := context.Background()

	_, err := c.Clients(ctx, nil)
	var he *appErrors.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if err.Error() != "HTTP 422" {
		t.Errorf("GET error should omit body, got %q", err.Error())
	}

	_, err = c.CreateClient(ctx, map[string]string{})
	if err == nil || err.Error() != "HTTP 422: name is required" {
		t.Errorf("POST error should carry body, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	cancelled := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(cancelled)
		case <-time.After(2 * time.Second):
		}
	}, model.Settings{})
	c.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.Health(context.Background())
	if !errors.Is(err, appErrors.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if err.Error() != "request timeout" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took too long: %v", time.Since(start))
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Error("in-flight request was not cancelled")
	}
}

func TestMissingBaseURL(t *testing.T) {
	c := New(StaticSettings{})
	if _, err := c.Health(context.Background()); !errors.Is(err, appErrors.ErrMissingBaseURL) {
		t.Errorf("expected ErrMissingBaseURL, got %v", err)
	}
}

func TestUploadFileMultipart(t *testing.T) {
	var field, name, content, ct string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		field, name, content = "file", hdr.Filename, string(b)
		w.Write([]byte(`{"imported":3}`))
	}, model.Settings{})

	rec, err := c.ImportClientsXLSX(context.Background(), "clients.xlsx", bytes.NewBufferString("xlsx-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if n, _ := rec.Int("imported"); n != 3 {
		t.Errorf("unexpected response %s", rec.Raw)
	}
	if field != "file" || name != "clients.xlsx" || content != "xlsx-bytes" {
		t.Errorf("unexpected upload %q %q %q", field, name, content)
	}
	if !strings.HasPrefix(ct, "multipart/form-data") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("audience_type") != "vip" {
			t.Errorf("missing audience filter: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write([]byte{0x50, 0x4b})
	}, model.Settings{})

	blob, err := c.ExportClientsXLSX(context.Background(), "vip")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if len(blob.Data) != 2 || !strings.Contains(blob.ContentType, "spreadsheetml") {
		t.Errorf("unexpected blob %+v", blob)
	}
}

func TestResponseSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", 1000, false},
		{"at limit", 1024, false},
		{"over limit", 1025, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write(bytes.Repeat([]byte{'x'}, tt.size))
			}, model.Settings{})
			c.MaxResponseBytes = 1024

			blob, err := c.ExportCampaignsXLSX(context.Background(), "")
			if tt.wantErr {
				if !errors.Is(err, appErrors.ErrResponseTooLarge) {
					t.Fatalf("expected ErrResponseTooLarge, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(blob.Data) != tt.size {
				t.Errorf("read %d bytes, want %d", len(blob.Data), tt.size)
			}
		})
	}
}

func TestDefaultResponseLimitFitsExports(t *testing.T) {
	if c := New(StaticSettings{}); c.MaxResponseBytes < 32<<20 {
		t.Errorf("limit %d too small for workbook downloads", c.MaxResponseBytes)
	}
}

func TestQueryEndpoints(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		w.Write([]byte(`{}`))
	}, model.Settings{})
	ctx := context.Background()

	c.CampaignHistory(ctx, 0)
	c.RejectCampaign(ctx, "5", "too long")
	c.DismissRecommendation(ctx, "9")
	c.PerformanceTrends(ctx, "", 0)
	c.Companies(ctx, true)
	c.HealthLive(ctx)
	c.BulkCreateClients(ctx, []map[string]string{{"name": "a"}})
	c.BulkCreateCampaigns(ctx, []map[string]string{{"name": "b"}})
	c.UploadMedia(ctx, "banner.png", strings.NewReader("png"))

	want := []string{
		"GET /api/campaigns/history?limit=20",
		"POST /api/approval/5/reject?feedback=too+long",
		"POST /api/analytics/recommendations/9/apply?is_applied=false",
		"GET /api/analytics/trends?days=30&metric=delivery_rate",
		"GET /api/companies?active_only=true",
		"GET /health/live?",
		"POST /api/clients/bulk?",
		"POST /api/campaigns/bulk?",
		"POST /api/media/upload?",
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("call %d: expected %q, got %q", i, w, got[i])
		}
	}
}
