package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		version, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if version != 2 {
			t.Errorf("expected version 2, got %d", version)
		}

		for _, table := range []string{"Artists", "Albums", "Tracks", "Playlists", "TrackPlaylist"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		var name string
		if err := db.QueryRow("SELECT Name FROM Playlists WHERE PlaylistID = 1").Scan(&name); err != nil {
			t.Fatalf("sentinel playlist should be seeded: %v", err)
		}
		if name != "All Tracks" {
			t.Errorf("expected sentinel name All Tracks, got %s", name)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		newVersion, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version after rollback: %v", err)
		}
		if newVersion != 1 {
			t.Errorf("expected version 1 after rollback, got %d", newVersion)
		}
	})

	t.Run("Rollback Everything", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		for range 2 {
			if err := RollbackMigration(db); err != nil {
				t.Fatalf("failed to rollback: %v", err)
			}
		}

		if _, err := db.Exec("SELECT 1 FROM Tracks LIMIT 1"); err == nil {
			t.Error("Tracks table should be dropped")
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM Playlists").Scan(&count); err != nil {
			t.Fatalf("failed to count playlists: %v", err)
		}
		if count != 1 {
			t.Errorf("expected only the sentinel playlist, got %d rows", count)
		}
	})
}
