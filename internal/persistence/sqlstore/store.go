// Package sqlstore implements the persistence repositories on database/sql
// for SQLite (modernc.org/sqlite) and PostgreSQL (pgx stdlib).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/migration"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Options configures Open.
type Options struct {
	Driver          persistence.Driver
	DSN             string
	BusyTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Logger          *slog.Logger
}

// Store holds the connection pool and implements every repository interface
// of the persistence package.
type Store struct {
	db     *sql.DB
	driver persistence.Driver
	retry  retryConfig
	now    func() time.Time
	logger *slog.Logger
}

var (
	_ persistence.BuildingRepository    = (*Store)(nil)
	_ persistence.RoomRepository        = (*Store)(nil)
	_ persistence.UserRepository        = (*Store)(nil)
	_ persistence.ReservationRepository = (*Store)(nil)
	_ persistence.CheckinCodeRepository = (*Store)(nil)
)

// Open connects to the configured database and applies driver settings.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: DSN cannot be empty")
	}
	if opts.Driver == "" {
		opts.Driver = persistence.DriverSQLite
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Driver == persistence.DriverSQLite {
		if err := ensureDatabaseDir(opts.DSN); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(opts.Driver.SQLDriverName(), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s database: %w", opts.Driver, err)
	}
	if opts.Driver == persistence.DriverSQLite {
		// Pragmas are per connection; a single connection keeps them applied
		// and serialises writers.
		db.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	store := &Store{
		db:     db,
		driver: opts.Driver,
		retry:  defaultRetryConfig(),
		now:    time.Now,
		logger: logger.With("component", "sqlstore", "driver", string(opts.Driver)),
	}
	if err := store.configure(ctx, opts); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s database: %w", opts.Driver, err)
	}
	return store, nil
}

func (s *Store) configure(ctx context.Context, opts Options) error {
	if s.driver != persistence.DriverSQLite {
		return nil
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("sqlstore: %s: %w", pragma, err)
		}
	}
	return nil
}

// ensureDatabaseDir creates the parent directory of a file-backed SQLite DSN.
func ensureDatabaseDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlstore: create database directory %s: %w", dir, err)
	}
	return nil
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver reports the backend in use.
func (s *Store) Driver() persistence.Driver {
	return s.driver
}

// Close closes the pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) ([]migration.Migration, error) {
	runner, err := migration.NewRunner(s.db, s.driver, s.logger)
	if err != nil {
		return nil, err
	}
	return runner.Up(ctx)
}

// MigrationStatus reports applied and pending migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	runner, err := migration.NewRunner(s.db, s.driver, s.logger)
	if err != nil {
		return migration.Status{}, err
	}
	return runner.Status(ctx)
}

func (s *Store) timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(timestampLayout, value)
}

func parseNullTimestamp(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTimestamp(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
