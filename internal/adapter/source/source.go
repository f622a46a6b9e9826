// Package source turns user-picked files into media source handles, validating
// their content type before they reach the playback core.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tejashwikalptaru/specviz/internal/domain"
)

// Detect sniffs the file at path and returns its handle. The MIME type comes from
// the file content, not its extension.
func Detect(path string) (domain.SourceHandle, error) {
	if path == "" {
		return domain.SourceHandle{}, domain.ErrInvalidSource
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.SourceHandle{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return domain.SourceHandle{}, fmt.Errorf("detect %s: %w", path, err)
	}

	return domain.SourceHandle{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: topLevel(m, "audio/"),
	}, nil
}

// Audio returns the handle of an audio file.
// Anything else yields domain.ErrInvalidSource.
func Audio(path string) (domain.SourceHandle, error) {
	h, err := Detect(path)
	if err != nil {
		return domain.SourceHandle{}, err
	}
	if !IsAudio(h) {
		return domain.SourceHandle{}, fmt.Errorf("%w: %s is %s", domain.ErrInvalidSource, h.Name, h.MIMEType)
	}
	return h, nil
}

// IsAudio reports whether the handle carries an audio MIME type.
func IsAudio(h domain.SourceHandle) bool {
	return !h.IsZero() && strings.HasPrefix(h.MIMEType, "audio/")
}

// Image checks that path holds an image and returns its MIME type.
func Image(path string) (string, error) {
	if path == "" {
		return "", domain.ErrNotAnImage
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return "", fmt.Errorf("detect %s: %w", path, err)
	}

	mime := topLevel(m, "image/")
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s is %s", domain.ErrNotAnImage, filepath.Base(path), mime)
	}
	return mime, nil
}

// topLevel walks up the MIME hierarchy and returns the first type with prefix,
// or the detected type when none matches. Parameters are stripped.
func topLevel(m *mimetype.MIME, prefix string) string {
	for p := m; p != nil; p = p.Parent() {
		if t := bare(p.String()); strings.HasPrefix(t, prefix) {
			return t
		}
	}
	return bare(m.String())
}

func bare(mime string) string {
	t, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(t)
}
