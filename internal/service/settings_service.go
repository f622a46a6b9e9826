package service

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// Text limits of the view settings, in characters.
const (
	MaxTitleLength       = 30
	MaxDescriptionLength = 200
)

// SettingsService manages the title, description and background of the view.
// All operations are thread-safe via sync.RWMutex.
type SettingsService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	mu       sync.RWMutex
	settings domain.Settings
}

// NewSettingsService creates the service and loads the saved settings.
// Unreadable saved settings are logged and replaced by defaults.
func NewSettingsService(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &SettingsService{
		logger:     logger.With(slog.String("service", "settings")),
		repository: repository,
		bus:        bus,
	}

	settings, err := repository.LoadSettings()
	if err != nil {
		s.logger.Warn("failed to load settings, using defaults", slog.Any("error", err))
	} else if verr := validateSettings(settings); verr != nil {
		s.logger.Warn("saved settings are invalid, using defaults", slog.Any("error", verr))
	} else {
		s.settings = settings
	}

	s.logger.Debug("settings service initialized")
	return s
}

func validateSettings(settings domain.Settings) error {
	if n := utf8.RuneCountInString(settings.Title); n > MaxTitleLength {
		return domain.NewValidationError("title", n, "must be at most 30 characters")
	}
	if n := utf8.RuneCountInString(settings.Description); n > MaxDescriptionLength {
		return domain.NewValidationError("description", n, "must be at most 200 characters")
	}
	return nil
}

// Settings returns the current settings.
func (s *SettingsService) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update validates, saves and publishes new settings.
func (s *SettingsService) Update(settings domain.Settings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.settings
	if previous == settings {
		s.mu.Unlock()
		return nil
	}
	if err := s.repository.SaveSettings(settings); err != nil {
		s.mu.Unlock()
		return domain.NewServiceError("SettingsService", "Update", "failed to save settings", err)
	}
	s.settings = settings
	s.mu.Unlock()

	s.bus.Publish(domain.NewSettingsChangedEvent(settings))
	if previous.BackgroundPath != settings.BackgroundPath {
		s.bus.Publish(domain.NewBackgroundChangedEvent(settings.BackgroundPath, settings.BackgroundPath == ""))
	}

	return nil
}

// SetTitle changes the title.
func (s *SettingsService) SetTitle(title string) error {
	next := s.Settings()
	next.Title = title
	return s.Update(next)
}

// SetDescription changes the description.
func (s *SettingsService) SetDescription(description string) error {
	next := s.Settings()
	next.Description = description
	return s.Update(next)
}

// SetBackground changes the background image path. Callers check the file is an image.
func (s *SettingsService) SetBackground(path string) error {
	next := s.Settings()
	next.BackgroundPath = path
	return s.Update(next)
}

// ClearBackground removes the background image.
func (s *SettingsService) ClearBackground() error {
	return s.SetBackground("")
}

// Reset clears the saved settings.
func (s *SettingsService) Reset() error {
	if err := s.repository.Clear(); err != nil {
		return domain.NewServiceError("SettingsService", "Reset", "failed to clear settings", err)
	}

	s.mu.Lock()
	hadBackground := s.settings.BackgroundPath != ""
	s.settings = domain.Settings{}
	s.mu.Unlock()

	s.bus.Publish(domain.NewSettingsChangedEvent(domain.Settings{}))
	if hadBackground {
		s.bus.Publish(domain.NewBackgroundChangedEvent("", true))
	}
	return nil
}
