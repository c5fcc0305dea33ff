// Package metadata resolves import-time track metadata from audio files.
//
// Tags are read with dhowden/tag (ID3v1/v2, MP4, FLAC and Ogg comments). Duration is not part of those tag
// formats, so it is probed by opening the stream with the matching beep decoder and measuring its length.
package metadata

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
	"github.com/dhowden/tag"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".mp3":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".ogg":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".wav":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	".flac": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(f) },
}

// Supported reports whether path has an extension with a known decoder.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ProbeDuration returns the playing time of the audio file at path.
func ProbeDuration(path string) (time.Duration, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported audio format %q", shared.ErrValidation, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	streamer, format, err := decode(f)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("failed to decode %s: invalid sample rate", filepath.Base(path))
	}
	return format.SampleRate.D(streamer.Len()), nil
}

// Resolver reads tags and duration for files being imported.
type Resolver struct {
	logger *log.Logger
	probe  func(path string) (time.Duration, error)
}

// NewResolver creates a Resolver. A nil logger falls back to [shared.NewLogger].
func NewResolver(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		logger: shared.WithLogger(logger, "component", "metadata"),
		probe:  ProbeDuration,
	}
}

// Resolve returns the metadata of the file at path with Unknown fallbacks applied.
//
// Missing tags and an unreadable duration are logged and tolerated; an unsupported extension or
// an unopenable file is an error.
func (r *Resolver) Resolve(path string) (models.Metadata, error) {
	if !Supported(path) {
		return models.Metadata{}, fmt.Errorf("%w: unsupported audio format %q", shared.ErrValidation, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	md := r.readTags(f, path)

	if d, err := r.probe(path); err != nil {
		r.logger.Warn("could not read duration", "file", filepath.Base(path), "error", err)
	} else {
		md.Duration = int(math.Round(d.Seconds()))
	}

	return md.WithFallbacks(models.TitleFromPath(path)), nil
}

func (r *Resolver) readTags(rs io.ReadSeeker, path string) models.Metadata {
	m, err := tag.ReadFrom(rs)
	if err != nil {
		r.logger.Debug("no tags", "file", filepath.Base(path), "error", err)
		return models.Metadata{}
	}

	trackNum, _ := m.Track()
	return models.Metadata{
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		AlbumArtist: strings.TrimSpace(m.AlbumArtist()),
		Genre:       m.Genre(),
		Year:        m.Year(),
		TrackNumber: trackNum,
	}
}
