package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
	tu "github.com/desertthunder/lark/internal/testing"
	"github.com/urfave/cli/v3"
)

// stubResolver names tracks after their files and fails for names containing "bad".
type stubResolver struct{}

func (stubResolver) Resolve(path string) (models.Metadata, error) {
	if strings.Contains(path, "bad") {
		return models.Metadata{}, errors.New("corrupt header")
	}
	return models.Metadata{Title: models.TitleFromPath(path), Artist: "Band", Album: "Record", Duration: 1}, nil
}

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = ":memory:"
	config.Library.ImportRate = 0
	config.Player.TickInterval = shared.Duration{Duration: 2 * time.Millisecond}
	config.Player.Autoplay = true

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:   config,
		Logger:   shared.NewLogger(io.Discard),
		Output:   output,
		Resolver: stubResolver{},
		Probe:    func(string) (time.Duration, error) { return 20 * time.Millisecond, nil },
	})
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

func runCommand(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app := &cli.Command{Name: "lark", Commands: r.register()}
	return app.Run(ctx, append([]string{"lark"}, args...))
}

func mustRun(t *testing.T, r *Runner, args ...string) {
	t.Helper()
	if err := runCommand(t, r, args...); err != nil {
		t.Fatalf("lark %s failed: %v", strings.Join(args, " "), err)
	}
}

// writeMusicDir creates two importable files, one the stub rejects, and one with a foreign extension.
func writeMusicDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "bad.mp3", "notes.txt"} {
		tu.MustWriteFile(t, filepath.Join(dir, name), "x")
	}
	return dir
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			db := shared.NewLazyDatabase(config.Database)
			resolver := stubResolver{}

			runner := NewRunner(RunnerOpts{
				Config:   config,
				Logger:   logger,
				Output:   output,
				Database: db,
				Resolver: resolver,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.db != db {
				t.Error("expected database to be set")
			}
			if runner.resolver != resolver {
				t.Error("expected resolver to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil database and resolver uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.db == nil {
				t.Error("expected lazy database to be set")
			}
			if runner.resolver == nil {
				t.Error("expected default resolver to be set")
			}
			if runner.refresh == nil {
				t.Error("expected refresh coordinator to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done %d", 3)
			if result := output.String(); result != "\ndone 3\n" {
				t.Errorf("expected %q, got %q", "\ndone 3\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "import", "playlist", "library", "play", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates config and database when missing", func(t *testing.T) {
		t.Chdir(t.TempDir())
		runner, output := newTestRunner(t)

		mustRun(t, runner, "setup")

		tu.AssertFileExists(t, "config.toml")
		tu.AssertFileExists(t, "lark.db")
		if !strings.Contains(output.String(), "schema version 2") {
			t.Errorf("expected schema version in output, got %q", output.String())
		}
	})

	t.Run("uses an existing config file", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "library.db")
		configPath := filepath.Join(dir, "custom.toml")
		tu.MustWriteFile(t, configPath, "[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\ndriver = \"sqlite\"\n")

		runner, output := newTestRunner(t)
		mustRun(t, runner, "setup", "--config", configPath)

		tu.AssertFileExists(t, dbPath)
		if strings.Contains(output.String(), "Created") {
			t.Errorf("expected the existing config to be kept, got %q", output.String())
		}
	})

	t.Run("rejects an invalid config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.toml")
		tu.MustWriteFile(t, configPath, "[database]\ndriver = \"postgres\"\n")

		runner, _ := newTestRunner(t)
		err := runCommand(t, runner, "setup", "-c", configPath)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestImport(t *testing.T) {
	t.Run("imports supported files and reports failures", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))

		out := output.String()
		if !strings.Contains(out, "Imported 2 of 3 files") {
			t.Errorf("expected import summary, got %q", out)
		}
		if !strings.Contains(out, "failed:") || !strings.Contains(out, "bad.mp3") {
			t.Errorf("expected bad.mp3 failure to be listed, got %q", out)
		}

		svc, err := runner.library()
		if err != nil {
			t.Fatalf("library() failed: %v", err)
		}
		count, err := svc.CountTracks(models.SentinelPlaylistID)
		if err != nil {
			t.Fatalf("CountTracks() failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 tracks in the library playlist, got %d", count)
		}
	})

	t.Run("requires a path", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := runCommand(t, runner, "import"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("rejects a missing path", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		err := runCommand(t, runner, "import", filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	t.Run("create, rename and list", func(t *testing.T) {
		runner, output := newTestRunner(t)

		mustRun(t, runner, "playlist", "create", "Road Trip")
		if !strings.Contains(output.String(), "Created playlist 2: Road Trip") {
			t.Fatalf("unexpected create output %q", output.String())
		}

		mustRun(t, runner, "playlist", "rename", "2", "Commute")

		output.Reset()
		mustRun(t, runner, "playlist", "list", "--json", "--pretty=false")

		var rows []playlistRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON %q: %v", output.String(), err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(rows))
		}
		if rows[0].PlaylistID != models.SentinelPlaylistID || rows[1].Name != "Commute" {
			t.Errorf("unexpected playlists %+v", rows)
		}

		output.Reset()
		mustRun(t, runner, "playlist", "list", "--user-only")
		if !strings.Contains(output.String(), "Playlists (1)") {
			t.Errorf("expected only user playlists, got %q", output.String())
		}
	})

	t.Run("sentinel cannot be deleted or renamed", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		if err := runCommand(t, runner, "playlist", "delete", "1"); !errors.Is(err, shared.ErrInvariantViolation) {
			t.Errorf("delete: expected ErrInvariantViolation, got %v", err)
		}
		if err := runCommand(t, runner, "playlist", "rename", "1", "Other"); !errors.Is(err, shared.ErrInvariantViolation) {
			t.Errorf("rename: expected ErrInvariantViolation, got %v", err)
		}
	})

	t.Run("empty name is a validation error", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := runCommand(t, runner, "playlist", "create", ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("ids are validated", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"non-numeric", []string{"playlist", "delete", "abc"}, shared.ErrInvalidArgument},
			{"zero", []string{"playlist", "tracks", "0"}, shared.ErrInvalidArgument},
			{"missing", []string{"playlist", "delete"}, shared.ErrMissingArgument},
			{"missing playlist id", []string{"playlist", "add", "1"}, shared.ErrMissingArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner, _ := newTestRunner(t)
				if err := runCommand(t, runner, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("add, tracks and remove", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))
		mustRun(t, runner, "playlist", "create", "Mixtape")
		mustRun(t, runner, "playlist", "add", "2", "2")
		mustRun(t, runner, "playlist", "add", "1", "2")
		mustRun(t, runner, "playlist", "add", "1", "2")

		output.Reset()
		mustRun(t, runner, "playlist", "tracks", "2", "--json")

		var tracks []models.ExportTrack
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("invalid JSON %q: %v", output.String(), err)
		}
		if len(tracks) != 2 || tracks[0].Name != "b" || tracks[1].Name != "a" {
			t.Fatalf("expected [b a] in insertion order, got %+v", tracks)
		}
		if tracks[0].Artist != "Band" || tracks[0].Album != "Record" {
			t.Errorf("expected resolved names, got %+v", tracks[0])
		}

		mustRun(t, runner, "playlist", "remove", "2", "2")
		output.Reset()
		mustRun(t, runner, "playlist", "tracks", "2")
		if strings.Contains(output.String(), "Band - b") || !strings.Contains(output.String(), "Band - a") {
			t.Errorf("expected only track a to remain, got %q", output.String())
		}

		if err := runCommand(t, runner, "playlist", "add", "99", "2"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
		if err := runCommand(t, runner, "playlist", "remove", "1", "1"); !errors.Is(err, shared.ErrInvariantViolation) {
			t.Errorf("expected ErrInvariantViolation, got %v", err)
		}
	})

	t.Run("tracks of an unknown playlist", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := runCommand(t, runner, "playlist", "tracks", "42"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))
		mustRun(t, runner, "playlist", "create", "Mixtape")
		mustRun(t, runner, "playlist", "add", "1", "2")

		t.Run("single playlist", func(t *testing.T) {
			dir := t.TempDir()
			output.Reset()
			mustRun(t, runner, "playlist", "export", "--format", "m3u", "--output", dir, "2")

			matches, _ := filepath.Glob(filepath.Join(dir, "*.m3u"))
			if len(matches) != 1 {
				t.Fatalf("expected one m3u file, got %v", matches)
			}
			if !strings.Contains(tu.MustReadFile(t, matches[0]), "#EXTM3U") {
				t.Error("expected an extended m3u header")
			}
			if !strings.Contains(output.String(), "Wrote ") {
				t.Errorf("expected written files to be listed, got %q", output.String())
			}
		})

		t.Run("several playlists with manifest", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			output.Reset()
			mustRun(t, runner, "playlist", "export", "-f", "json", "-o", dir, "1", "2")

			tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
			if !strings.Contains(output.String(), "Exported 2 of 2 playlists") {
				t.Errorf("unexpected summary %q", output.String())
			}
		})

		t.Run("unknown playlist is reported but others export", func(t *testing.T) {
			dir := t.TempDir()
			output.Reset()
			mustRun(t, runner, "playlist", "export", "-o", dir, "2", "77")

			if !strings.Contains(output.String(), "Exported 1 of 2 playlists") {
				t.Errorf("unexpected summary %q", output.String())
			}
			if !strings.Contains(output.String(), "Unknown (77)") {
				t.Errorf("expected the missing playlist to be listed, got %q", output.String())
			}
		})

		t.Run("unknown format", func(t *testing.T) {
			err := runCommand(t, runner, "playlist", "export", "-f", "xml", "2")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestLibraryCommands(t *testing.T) {
	runner, output := newTestRunner(t)

	mustRun(t, runner, "library", "path")
	if output.String() != ":memory:\n" {
		t.Errorf("expected in-memory path, got %q", output.String())
	}

	output.Reset()
	mustRun(t, runner, "library", "version")
	if output.String() != "2\n" {
		t.Errorf("expected schema version 2, got %q", output.String())
	}

	output.Reset()
	mustRun(t, runner, "library", "rollback")
	if !strings.Contains(output.String(), "version 1") {
		t.Errorf("expected rollback to version 1, got %q", output.String())
	}
}

func TestPlay(t *testing.T) {
	t.Run("plays the queue to the end", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))
		mustRun(t, runner, "playlist", "create", "Mixtape")
		mustRun(t, runner, "playlist", "add", "1", "2")
		mustRun(t, runner, "playlist", "add", "2", "2")

		output.Reset()
		mustRun(t, runner, "play", "2")

		out := output.String()
		first := strings.Index(out, "▶ Band - a")
		second := strings.Index(out, "▶ Band - b")
		if first < 0 || second < first {
			t.Errorf("expected a then b, got %q", out)
		}
		if !strings.HasSuffix(out, "Queue finished\n") {
			t.Errorf("expected the run to end with the queue, got %q", out)
		}
	})

	t.Run("starts from the requested track", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))

		output.Reset()
		mustRun(t, runner, "play", "--start", "2", "1")

		out := output.String()
		if strings.Contains(out, "Band - a") || !strings.Contains(out, "▶ Band - b") {
			t.Errorf("expected playback to start and end at b, got %q", out)
		}
	})

	t.Run("trace writes engine events as JSON lines", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))

		path := filepath.Join(t.TempDir(), "events.jsonl")
		mustRun(t, runner, "play", "--trace", path, "1")

		lines := strings.Split(strings.TrimSpace(tu.MustReadFile(t, path)), "\n")
		kinds := map[string]int{}
		for _, l := range lines {
			var ev struct {
				Kind      string `json:"kind"`
				RequestID uint64 `json:"request_id"`
			}
			if err := json.Unmarshal([]byte(l), &ev); err != nil {
				t.Fatalf("invalid trace line %q: %v", l, err)
			}
			kinds[ev.Kind]++
		}
		for _, want := range []string{"playing", "positionUpdate", "paused"} {
			if kinds[want] == 0 {
				t.Errorf("expected %s events in trace, got %v", want, kinds)
			}
		}
	})

	t.Run("trace path must be writable", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))

		path := filepath.Join(t.TempDir(), "missing", "events.jsonl")
		if err := runCommand(t, runner, "play", "--trace", path, "1"); err == nil {
			t.Error("expected an error for an unwritable trace path")
		}
	})

	t.Run("start track outside the playlist", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		mustRun(t, runner, "import", writeMusicDir(t))

		if err := runCommand(t, runner, "play", "--start", "9", "1"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := runCommand(t, runner, "play", "1"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := runCommand(t, runner, "play", "5"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}
