// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/specviz/internal/domain"
)

// SettingsRepository handles the persistence of the visualizer view settings.
//
// Thread-safety: Implementations must be thread-safe.
type SettingsRepository interface {
	// SaveSettings persists the view settings.
	//
	// Returns an error if saving fails.
	SaveSettings(settings domain.Settings) error

	// LoadSettings retrieves the saved settings.
	// If nothing was saved, returns zero-valued settings (not an error).
	LoadSettings() (domain.Settings, error)

	// Clear removes all saved settings.
	Clear() error
}

// MetadataReader extracts tag information from audio files.
type MetadataReader interface {
	// ReadMetadata returns the tags of the file at path.
	ReadMetadata(path string) (*domain.TrackMetadata, error)
}
