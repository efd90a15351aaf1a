package service

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/unclebandit/smsleopard-dashboard/internal/lifecycle"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
)

type SettingsAPI interface {
	Health(ctx context.Context) (model.Record, error)
	HealthReady(ctx context.Context) (model.Record, error)
	Metrics(ctx context.Context) (model.Record, error)
}

type HealthInfo struct {
	Status  string
	Healthy bool
	Version string
}

type InfoRow struct {
	Label string
	Value string
}

// Connection is the outcome of the last connection test.
type Connection struct {
	OK      bool
	Message string
}

// SettingsForm is what the settings page shows in its inputs.
type SettingsForm struct {
	BaseURL   string
	APIKey    string
	MaskedKey string
	CompanyID string
}

type Settings struct {
	page
	API    SettingsAPI
	Store  *SettingsStore
	Notify Toaster

	Health    lifecycle.View[HealthInfo]
	Readiness lifecycle.View[[]HealthCheck]
	Metrics   lifecycle.View[[]InfoRow]
	Conn      lifecycle.View[Connection]
}

func NewSettings(api SettingsAPI, store *SettingsStore, notify Toaster) *Settings {
	return &Settings{API: api, Store: store, Notify: notify}
}

func (s *Settings) OnPageActive(ctx context.Context) {
	s.tasks.Go(ctx, "settings.system_info", 0, s.LoadSystemInfo)
}

func (s *Settings) OnPageInactive() {
	s.stop()
	s.Health.Invalidate()
	s.Readiness.Invalidate()
	s.Metrics.Invalidate()
}

// Form returns the saved values for the settings inputs.
func (s *Settings) Form() SettingsForm {
	cur := s.Store.Settings()
	return SettingsForm{
		BaseURL:   cur.BaseURL,
		APIKey:    cur.APIKey,
		MaskedKey: cur.MaskedKey(),
		CompanyID: cur.CompanyID,
	}
}

// Save stores a new base URL and API key. An empty URL keeps the current one.
func (s *Settings) Save(ctx context.Context, baseURL, apiKey string) error {
	next := s.Store.Settings()
	if u := strings.TrimSpace(baseURL); u != "" {
		next.BaseURL = u
	}
	next.APIKey = apiKey
	if _, err := s.Store.Update(ctx, next); err != nil {
		s.Notify.Toast(model.ToastError, failed("Save", err))
		return err
	}
	s.Notify.Toast(model.ToastSuccess, "Settings saved")
	return nil
}

// TestConnection calls /health with the current settings.
func (s *Settings) TestConnection(ctx context.Context) Connection {
	var conn Connection
	_ = fill(ctx, &s.Conn, func(ctx context.Context) (Connection, error) {
		res, err := s.API.Health(ctx)
		if err != nil {
			conn = Connection{Message: "Failed: " + err.Error()}
			return conn, err
		}
		conn = Connection{OK: true, Message: "Connected — " + res.StrOr("OK", "status")}
		return conn, nil
	})
	if conn.OK {
		s.Notify.Toast(model.ToastSuccess, "Connection successful")
	} else {
		s.Notify.Toast(model.ToastError, "Connection failed")
	}
	return conn
}

// LoadSystemInfo fills the health, readiness and metrics cards.
func (s *Settings) LoadSystemInfo(ctx context.Context) {
	fanOut(ctx, "settings",
		func(ctx context.Context) error {
			return fill(ctx, &s.Health, func(ctx context.Context) (HealthInfo, error) {
				res, err := s.API.Health(ctx)
				if err != nil {
					return HealthInfo{}, err
				}
				status := res.Str("status")
				return HealthInfo{Status: orDash(status), Healthy: status == "healthy", Version: res.Str("version")}, nil
			})
		},
		func(ctx context.Context) error {
			return fill(ctx, &s.Readiness, func(ctx context.Context) ([]HealthCheck, error) {
				res, err := s.API.HealthReady(ctx)
				if err != nil {
					return nil, err
				}
				return healthChecks(res), nil
			})
		},
		func(ctx context.Context) error {
			return fill(ctx, &s.Metrics, func(ctx context.Context) ([]InfoRow, error) {
				res, err := s.API.Metrics(ctx)
				if err != nil {
					return nil, err
				}
				var out []InfoRow
				for _, e := range res.Entries() {
					v := e.Value.String()
					if e.Value.Type == gjson.Number {
						v = render.FormatNumber(e.Value)
					}
					out = append(out, InfoRow{Label: render.Label(e.Key), Value: v})
				}
				return out, nil
			})
		},
	)
}
