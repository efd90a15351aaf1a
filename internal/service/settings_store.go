package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/repository"
)

// SettingsStore holds the configuration triple in memory and writes every
// change through to the repository. It is the api.SettingsSource of the
// running dashboard.
type SettingsStore struct {
	Repo repository.SettingsRepositoryInterface

	mu        sync.RWMutex
	current   model.Settings
	listeners []func(model.Settings)
}

// NewSettingsStore loads the stored triple. When nothing was saved yet the
// seed is normalised, saved and used.
func NewSettingsStore(ctx context.Context, repo repository.SettingsRepositoryInterface, seed model.Settings) (*SettingsStore, error) {
	s := &SettingsStore{Repo: repo}
	stored, found, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		if stored.BaseURL == "" {
			stored.BaseURL = model.DefaultBaseURL
		}
		s.current = stored
		return s, nil
	}

	seed.BaseURL = model.NormalizeBaseURL(seed.BaseURL)
	if seed.BaseURL == "" {
		seed.BaseURL = model.DefaultBaseURL
	}
	if err := repo.Save(ctx, seed); err != nil {
		return nil, fmt.Errorf("save initial settings: %w", err)
	}
	logging.WithComponent("settings").Info("✅ settings initialised", "base_url", seed.BaseURL)
	s.current = seed
	return s, nil
}

// Settings returns the current snapshot.
func (s *SettingsStore) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers fn to run after every successful update.
func (s *SettingsStore) OnChange(fn func(model.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update persists next and makes it current. The base URL is normalised.
func (s *SettingsStore) Update(ctx context.Context, next model.Settings) (model.Settings, error) {
	next.BaseURL = model.NormalizeBaseURL(next.BaseURL)
	next.APIKey = strings.TrimSpace(next.APIKey)
	next.CompanyID = strings.TrimSpace(next.CompanyID)
	if next.BaseURL == "" {
		next.BaseURL = model.DefaultBaseURL
	}
	if err := s.Repo.Save(ctx, next); err != nil {
		return s.Settings(), err
	}

	s.mu.Lock()
	s.current = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next, nil
}

// SetCompany changes only the tenant scope. An empty id clears it.
func (s *SettingsStore) SetCompany(ctx context.Context, id string) error {
	next := s.Settings()
	next.CompanyID = id
	_, err := s.Update(ctx, next)
	return err
}
