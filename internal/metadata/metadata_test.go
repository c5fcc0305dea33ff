package metadata

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

// writeWAV writes a silent 16-bit mono PCM file of the given length.
func writeWAV(t *testing.T, path string, sampleRate, seconds int) {
	t.Helper()

	samples := sampleRate * seconds
	dataSize := samples * 2

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}
	defer f.Close()

	le := binary.LittleEndian
	write := func(v any) {
		if err := binary.Write(f, le, v); err != nil {
			t.Fatalf("failed to write wav: %v", err)
		}
	}

	f.WriteString("RIFF")
	write(uint32(36 + dataSize))
	f.WriteString("WAVE")
	f.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(1)) // mono
	write(uint32(sampleRate))
	write(uint32(sampleRate * 2))
	write(uint16(2))
	write(uint16(16))
	f.WriteString("data")
	write(uint32(dataSize))
	write(make([]byte, dataSize))
}

func newTestResolver() *Resolver {
	return NewResolver(shared.NewLogger(io.Discard))
}

func TestSupported(t *testing.T) {
	tc := map[string]bool{
		"a.mp3":  true,
		"a.MP3":  true,
		"a.flac": true,
		"a.wav":  true,
		"a.ogg":  true,
		"a.txt":  false,
		"a":      false,
	}
	for path, want := range tc {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestProbeDuration(t *testing.T) {
	t.Run("wav length", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tone.wav")
		writeWAV(t, path, 8000, 2)

		d, err := ProbeDuration(path)
		if err != nil {
			t.Fatalf("ProbeDuration failed: %v", err)
		}
		if d != 2*time.Second {
			t.Errorf("expected 2s, got %v", d)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := ProbeDuration("notes.txt"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.wav")
		if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := ProbeDuration(path); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("untagged file uses fallbacks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "field recording.wav")
		writeWAV(t, path, 8000, 3)

		md, err := newTestResolver().Resolve(path)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}

		want := models.Metadata{
			Title:       "field recording",
			Artist:      models.UnknownArtist,
			Album:       models.UnknownAlbum,
			AlbumArtist: models.UnknownArtist,
			Duration:    3,
		}
		if md != want {
			t.Errorf("Resolve = %+v, want %+v", md, want)
		}
	})

	t.Run("unreadable duration is tolerated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "silence.mp3")
		if err := os.WriteFile(path, []byte("no frames here"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		r := newTestResolver()
		r.probe = func(string) (time.Duration, error) { return 0, errors.New("no frames") }

		md, err := r.Resolve(path)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if md.Duration != 0 || md.Title != "silence" {
			t.Errorf("unexpected metadata: %+v", md)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := newTestResolver().Resolve("/music/cover.jpg")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := newTestResolver().Resolve(filepath.Join(t.TempDir(), "gone.mp3"))
		if err == nil {
			t.Error("expected error for missing file")
		}
	})
}
