package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

//go:embed sql
var embedded embed.FS

const timestampLayout = "2006-01-02T15:04:05.000000Z"

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration is one schema change file.
type Migration struct {
	Version     string
	Description string
	SQL         string
	Checksum    string
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises the migration state of a database.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Runner applies migrations for one driver.
type Runner struct {
	db     *sql.DB
	driver persistence.Driver
	files  fs.FS
	now    func() time.Time
	logger *slog.Logger
}

// NewRunner returns a Runner over the embedded migrations for driver.
func NewRunner(db *sql.DB, driver persistence.Driver, logger *slog.Logger) (*Runner, error) {
	sub, err := fs.Sub(embedded, "sql/"+string(driver))
	if err != nil {
		return nil, newError("", "open embedded migrations", err)
	}
	return NewRunnerFS(db, driver, sub, logger), nil
}

// NewRunnerFS returns a Runner reading migration files from files.
func NewRunnerFS(db *sql.DB, driver persistence.Driver, files fs.FS, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:     db,
		driver: driver,
		files:  files,
		now:    time.Now,
		logger: logger.With("component", "migration", "driver", string(driver)),
	}
}

// Load reads and validates every migration file, sorted by version.
func (r *Runner) Load() ([]Migration, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, newError("", "read migration directory", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		matches := fileNamePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			return nil, newError("", "scan "+entry.Name(), ErrInvalidMigrationFile)
		}
		content, err := fs.ReadFile(r.files, entry.Name())
		if err != nil {
			return nil, newError(matches[1], "read file", err)
		}
		if len(splitStatements(string(content))) == 0 {
			return nil, newError(matches[1], "parse SQL", ErrInvalidMigrationFile)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Version:     matches[1],
			Description: strings.ReplaceAll(matches[2], "_", " "),
			SQL:         string(content),
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionLess(migrations[i].Version, migrations[j].Version)
	})
	for i := 1; i < len(migrations); i++ {
		if versionLess(migrations[i-1].Version, migrations[i].Version) {
			continue
		}
		return nil, newError(migrations[i].Version, "scan", ErrDuplicateVersion)
	}
	return migrations, nil
}

// Up applies every pending migration in order and returns the ones applied.
func (r *Runner) Up(ctx context.Context) ([]Migration, error) {
	status, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	if len(status.Pending) == 0 {
		r.logger.InfoContext(ctx, "schema is up to date", "version", status.CurrentVersion)
		return nil, nil
	}

	r.logger.InfoContext(ctx, "applying migrations",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)
	applied := make([]Migration, 0, len(status.Pending))
	for _, m := range status.Pending {
		started := r.now()
		if err := r.apply(ctx, m, started); err != nil {
			return applied, err
		}
		r.logger.InfoContext(ctx, "migration applied",
			"version", m.Version,
			"description", m.Description,
			"duration", r.now().Sub(started),
		)
		applied = append(applied, m)
	}
	return applied, nil
}

// Status compares the files with the schema_migrations table.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return Status{}, err
	}
	migrations, err := r.Load()
	if err != nil {
		return Status{}, err
	}
	applied, err := r.applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[string]AppliedMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}
	known := make(map[string]struct{}, len(migrations))

	status := Status{Applied: applied}
	for _, m := range migrations {
		known[m.Version] = struct{}{}
		a, ok := byVersion[m.Version]
		if !ok {
			status.Pending = append(status.Pending, m)
			continue
		}
		if a.Checksum != "" && a.Checksum != m.Checksum {
			return Status{}, newError(m.Version, "verify checksum", ErrChecksumMismatch)
		}
		status.CurrentVersion = m.Version
	}
	for _, a := range applied {
		if _, ok := known[a.Version]; !ok {
			return Status{}, newError(a.Version, "verify history", ErrUnknownVersion)
		}
	}
	return status, nil
}

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return newError("", "create schema_migrations table", err)
	}
	return nil
}

func (r *Runner) applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations`)
	if err != nil {
		return nil, newError("", "list applied migrations", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var (
			a         AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&a.Version, &appliedAt, &elapsedMs, &a.Checksum); err != nil {
			return nil, newError("", "scan applied migration", err)
		}
		if a.AppliedAt, err = time.Parse(timestampLayout, appliedAt); err != nil {
			return nil, newError(a.Version, "parse applied_at", err)
		}
		a.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("", "iterate applied migrations", err)
	}
	sort.Slice(out, func(i, j int) bool { return versionLess(out[i].Version, out[j].Version) })
	return out, nil
}

func (r *Runner) apply(ctx context.Context, m Migration, started time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(m.Version, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = newError(m.Version, fmt.Sprintf("execute statement %d", i+1), execErr)
			return
		}
	}

	elapsed := r.now().Sub(started)
	record := r.driver.Rebind(`
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)`)
	if _, execErr := tx.ExecContext(ctx, record, m.Version, r.now().UTC().Format(timestampLayout), m.Checksum, elapsed.Milliseconds()); execErr != nil {
		err = newError(m.Version, "record migration", execErr)
		return
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = newError(m.Version, "commit transaction", commitErr)
		return
	}
	return nil
}

// splitStatements breaks a file into statements on semicolons, dropping
// comment-only lines. Migration files must not put semicolons in literals.
func splitStatements(content string) []string {
	var statements []string
	for _, chunk := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, trimmed)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}

// versionLess orders numeric versions regardless of zero padding.
func versionLess(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
