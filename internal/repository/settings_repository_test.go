package repository

import (
	"context"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/unclebandit/smsleopard-dashboard/internal/db"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

func newTestRepo(t *testing.T, secrets SecretStore) *SettingsRepository {
	t.Helper()
	conn, d, err := db.Open(context.Background(), "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &SettingsRepository{DB: conn, Dialect: d, Secrets: secrets}
}

func TestSettingsRepository_LoadEmpty(t *testing.T) {
	repo := newTestRepo(t, nil)
	_, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Error("expected nothing stored yet")
	}
}

func TestSettingsRepository_SaveAndOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)

	first := model.Settings{BaseURL: "http://localhost:8000", APIKey: "k1", CompanyID: "3"}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := model.Settings{BaseURL: "https://api.example.com", APIKey: "k2"}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, found, err := repo.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got != second {
		t.Errorf("expected %+v, got %+v", second, got)
	}
}

func TestSettingsRepository_KeyringHoldsAPIKey(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	repo := newTestRepo(t, OSKeyring{})

	in := model.Settings{BaseURL: "http://localhost:8000", APIKey: "secret-key", CompanyID: "1"}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var stored string
	if err := repo.DB.QueryRow(`SELECT value FROM dashboard_settings WHERE key = ?`, keyAPIKey).Scan(&stored); err != nil {
		t.Fatalf("query: %v", err)
	}
	if stored != "" {
		t.Errorf("api key leaked into table: %q", stored)
	}

	got, _, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.APIKey != "secret-key" {
		t.Errorf("expected key from keyring, got %q", got.APIKey)
	}

	in.APIKey = ""
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _, _ = repo.Load(ctx)
	if got.APIKey != "" {
		t.Errorf("expected cleared key, got %q", got.APIKey)
	}
}
