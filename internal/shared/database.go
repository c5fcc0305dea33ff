package shared

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// NewDatabase opens a connection to a SQLite database at the specified path using the mattn/go-sqlite3 driver.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return OpenDatabase("sqlite3", path)
}

// OpenDatabase opens a SQLite database with the given driver name ("sqlite3" or "sqlite") and enables foreign key enforcement.
//
// In-memory databases are pinned to a single connection since every new connection would see an empty database.
func OpenDatabase(driver, path string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn(driver, path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// dsn appends the per-connection foreign key pragma in the syntax each driver understands.
func dsn(driver, path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	switch driver {
	case "sqlite":
		return path + sep + "_pragma=foreign_keys(1)"
	default:
		return path + sep + "_foreign_keys=on"
	}
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// Database is the process-wide library handle. The connection is opened and migrated on first use and reused afterwards.
type Database struct {
	cfg  DatabaseConfig
	once sync.Once
	db   *sql.DB
	err  error
}

// NewLazyDatabase returns a [Database] that defers opening until [Database.Handle] is called.
func NewLazyDatabase(cfg DatabaseConfig) *Database {
	return &Database{cfg: cfg}
}

// Handle returns the shared [sql.DB], opening it and applying migrations on the first call.
func (d *Database) Handle() (*sql.DB, error) {
	d.once.Do(func() {
		driver := d.cfg.Driver
		if driver == "" {
			driver = "sqlite3"
		}
		db, err := OpenDatabase(driver, d.cfg.Path)
		if err != nil {
			d.err = err
			return
		}
		ConfigureDatabase(db, d.cfg.MaxOpenConns, d.cfg.MaxIdleConns)
		if err := RunMigrations(db); err != nil {
			db.Close()
			d.err = fmt.Errorf("failed to run migrations: %w", err)
			return
		}
		d.db = db
	})
	return d.db, d.err
}

// Close closes the underlying connection if it was ever opened.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
