// Package metadata reads track tags with dhowden/tag.
package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// TagReader implements ports.MetadataReader.
type TagReader struct {
	logger *slog.Logger
}

// NewTagReader creates a tag reader.
func NewTagReader(logger *slog.Logger) *TagReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagReader{logger: logger.With(slog.String("component", "metadata"))}
}

// ReadMetadata returns the tags of the file at path. A file without tags yields
// empty metadata, not an error.
func (r *TagReader) ReadMetadata(path string) (*domain.TrackMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", domain.ErrFileNotFound, err)
		}
		return nil, domain.NewAudioEngineError("metadata", path, "cannot open file", err)
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return &domain.TrackMetadata{}, nil
		}
		r.logger.Debug("unreadable tags", slog.String("path", path), slog.Any("error", err))
		return &domain.TrackMetadata{}, nil
	}

	meta := &domain.TrackMetadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		meta.Picture = pic.Data
		meta.PictureMIME = pic.MIMEType
	}

	return meta, nil
}

var _ ports.MetadataReader = (*TagReader)(nil)
