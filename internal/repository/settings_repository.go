package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/unclebandit/smsleopard-dashboard/internal/db"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

const (
	keyBaseURL   = "api_base_url"
	keyAPIKey    = "api_key"
	keyCompanyID = "company_id"
)

type SettingsRepositoryInterface interface {
	// Load returns the stored triple; found is false when nothing was saved yet.
	Load(ctx context.Context) (s model.Settings, found bool, err error)
	Save(ctx context.Context, s model.Settings) error
}

// SecretStore keeps the API key outside the settings table.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// Keyring service/user under which the API key is stored.
const (
	KeyringService = "campaign-dashboard"
	KeyringUser    = "api_key"
)

// OSKeyring implements SecretStore with the OS keyring.
type OSKeyring struct{}

func (OSKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (OSKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }

func (OSKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

type SettingsRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
	// Secrets, when set, holds the API key instead of the table.
	Secrets SecretStore
}

func (r *SettingsRepository) Load(ctx context.Context) (model.Settings, bool, error) {
	var s model.Settings
	rows, err := r.DB.QueryContext(ctx, `SELECT key, value FROM dashboard_settings`)
	if err != nil {
		return s, false, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return s, false, err
		}
		found = true
		switch k {
		case keyBaseURL:
			s.BaseURL = v
		case keyAPIKey:
			s.APIKey = v
		case keyCompanyID:
			s.CompanyID = v
		}
	}
	if err := rows.Err(); err != nil {
		return s, false, err
	}

	if r.Secrets != nil {
		key, err := r.Secrets.Get(KeyringService, KeyringUser)
		if err != nil {
			return s, found, fmt.Errorf("read api key from keyring: %w", err)
		}
		if key != "" {
			s.APIKey = key
		}
	}
	return s, found, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s model.Settings) error {
	apiKey := s.APIKey
	if r.Secrets != nil {
		if apiKey == "" {
			if err := r.Secrets.Delete(KeyringService, KeyringUser); err != nil {
				return fmt.Errorf("clear api key in keyring: %w", err)
			}
		} else if err := r.Secrets.Set(KeyringService, KeyringUser, apiKey); err != nil {
			return fmt.Errorf("store api key in keyring: %w", err)
		}
		apiKey = ""
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := r.Dialect.Rebind(`
		INSERT INTO dashboard_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	now := time.Now().UTC()
	for _, kv := range [][2]string{
		{keyBaseURL, s.BaseURL},
		{keyAPIKey, apiKey},
		{keyCompanyID, s.CompanyID},
	} {
		if _, err := tx.ExecContext(ctx, query, kv[0], kv[1], now); err != nil {
			return fmt.Errorf("save setting %s: %w", kv[0], err)
		}
	}
	return tx.Commit()
}
