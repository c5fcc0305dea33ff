package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./lark.db" {
			t.Errorf("expected database path ./lark.db, got %s", config.Database.Path)
		}

		if config.Database.Driver != "sqlite3" {
			t.Errorf("expected driver sqlite3, got %s", config.Database.Driver)
		}

		if config.Player.TickInterval.Duration != 100*time.Millisecond {
			t.Errorf("expected tick interval 100ms, got %v", config.Player.TickInterval)
		}

		if len(config.Library.Extensions) == 0 {
			t.Error("expected default import extensions")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
driver = "sqlite"

[player]
tick_interval = "250ms"

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Database.Driver != "sqlite" {
			t.Errorf("expected driver sqlite, got %s", config.Database.Driver)
		}
		if config.Player.TickInterval.Duration != 250*time.Millisecond {
			t.Errorf("expected tick interval 250ms, got %v", config.Player.TickInterval)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
		if config.Library.ImportRate != DefaultConfig().Library.ImportRate {
			t.Errorf("missing keys should keep defaults, got import_rate %v", config.Library.ImportRate)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tc := []struct {
			name    string
			content string
		}{
			{name: "unknown driver", content: "[database]\ndriver = \"postgres\"\n"},
			{name: "bad duration", content: "[player]\ntick_interval = \"soon\"\n"},
			{name: "zero tick", content: "[player]\ntick_interval = \"0s\"\n"},
			{name: "negative rate", content: "[library]\nimport_rate = -1.0\n"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(configPath)
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.name != "bad duration" && !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("HasExtension", func(t *testing.T) {
		cfg := LibraryConfig{Extensions: []string{".mp3", ".flac"}}
		tc := []struct {
			path string
			want bool
		}{
			{"/music/a.mp3", true},
			{"/music/B.MP3", true},
			{"/music/c.flac", true},
			{"/music/d.txt", false},
			{"/music/mp3", false},
		}
		for _, tt := range tc {
			if got := cfg.HasExtension(tt.path); got != tt.want {
				t.Errorf("HasExtension(%q) = %v, want %v", tt.path, got, tt.want)
			}
		}
	})
}
