// Package memory provides repositories backed by the Fyne preferences store.
package memory

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

const settingsKey = "specviz.settings"

// settingsRecord is the persisted form of domain.Settings.
type settingsRecord struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	BackgroundPath string `json:"background_path,omitempty"`
}

// SettingsRepository implements ports.SettingsRepository using Fyne preferences.
// The settings are stored as one JSON document.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewSettingsRepository creates a settings repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewSettingsRepository(prefs fyne.Preferences) *SettingsRepository {
	return &SettingsRepository{prefs: prefs}
}

// SaveSettings persists the view settings.
func (r *SettingsRepository) SaveSettings(settings domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(settingsRecord{
		Title:          settings.Title,
		Description:    settings.Description,
		BackgroundPath: settings.BackgroundPath,
	})
	if err != nil {
		return domain.NewRepositoryError("save", "SettingsRepository", "failed to marshal settings", err)
	}

	r.prefs.SetString(settingsKey, string(data))
	return nil
}

// LoadSettings retrieves the saved settings, zero-valued when nothing was saved.
func (r *SettingsRepository) LoadSettings() (domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(settingsKey)
	if data == "" {
		return domain.Settings{}, nil
	}

	var rec settingsRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return domain.Settings{}, domain.NewRepositoryError("load", "SettingsRepository", "failed to unmarshal settings", err)
	}

	return domain.Settings{
		Title:          rec.Title,
		Description:    rec.Description,
		BackgroundPath: rec.BackgroundPath,
	}, nil
}

// Clear removes the saved settings.
func (r *SettingsRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(settingsKey)
	return nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
