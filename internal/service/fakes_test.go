package service_test

import (
	"context"
	"sync"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

// recordingToaster keeps every toast for assertions.
type recordingToaster struct {
	mu     sync.Mutex
	toasts []model.Toast
}

func (r *recordingToaster) Toast(level model.ToastLevel, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, model.Toast{Level: level, Message: message})
}

func (r *recordingToaster) all() []model.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Toast(nil), r.toasts...)
}

func (r *recordingToaster) last() model.Toast {
	all := r.all()
	if len(all) == 0 {
		return model.Toast{}
	}
	return all[len(all)-1]
}

// memSettingsRepo is an in-memory settings repository.
type memSettingsRepo struct {
	mu      sync.Mutex
	stored  model.Settings
	found   bool
	saves   int
	saveErr error
}

func (m *memSettingsRepo) Load(ctx context.Context) (model.Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored, m.found, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored, m.found = s, true
	m.saves++
	return nil
}

func rec(raw string) model.Record { return model.RecordOf(raw) }
