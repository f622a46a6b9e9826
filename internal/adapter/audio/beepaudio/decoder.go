// Package beepaudio implements the audio ports on top of gopxl/beep: decoding and
// transport of a single source, and the analysis graph that taps it on its way
// to the speaker.
package beepaudio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/specviz/internal/domain"
)

type codec int

const (
	codecUnknown codec = iota
	codecMP3
	codecWAV
	codecFLAC
	codecVorbis
)

var codecByExt = map[string]codec{
	".mp3":  codecMP3,
	".wav":  codecWAV,
	".wave": codecWAV,
	".flac": codecFLAC,
	".ogg":  codecVorbis,
	".oga":  codecVorbis,
}

var codecByMIME = map[string]codec{
	"audio/mpeg":   codecMP3,
	"audio/mp3":    codecMP3,
	"audio/wav":    codecWAV,
	"audio/x-wav":  codecWAV,
	"audio/wave":   codecWAV,
	"audio/flac":   codecFLAC,
	"audio/x-flac": codecFLAC,
	"audio/ogg":    codecVorbis,
}

// codecFor picks the decoder from the detected MIME type, falling back to the extension.
func codecFor(src domain.SourceHandle) codec {
	mime, _, _ := strings.Cut(src.MIMEType, ";")
	if c, ok := codecByMIME[strings.TrimSpace(strings.ToLower(mime))]; ok {
		return c
	}
	return codecByExt[src.Ext()]
}

// Supported reports whether a decoder exists for src.
func Supported(src domain.SourceHandle) bool {
	return !src.IsZero() && codecFor(src) != codecUnknown
}

// Decode opens src and returns its decoded stream. The caller closes the stream,
// which also closes the file.
func Decode(src domain.SourceHandle) (beep.StreamSeekCloser, beep.Format, error) {
	c := codecFor(src)
	if c == codecUnknown {
		return nil, beep.Format{}, domain.NewAudioEngineError("decode", src.Path, "no decoder for source", domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", domain.ErrFileNotFound, err)
		}
		return nil, beep.Format{}, domain.NewAudioEngineError("open", src.Path, "cannot open source", err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch c {
	case codecMP3:
		stream, format, err = mp3.Decode(f)
	case codecWAV:
		stream, format, err = wav.Decode(f)
	case codecFLAC:
		stream, format, err = flac.Decode(f)
	case codecVorbis:
		stream, format, err = vorbis.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, domain.NewAudioEngineError("decode", src.Path, "cannot decode source",
			fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err))
	}

	return stream, format, nil
}
