package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

const userColumns = `id, email, full_name, area, role, active, created_at, updated_at`

// CreateUser inserts a profile. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}
	now := s.timestamp(s.now())
	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, s.db, `
			INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, normalizeEmail(user.Email), user.FullName, nullString(user.Area), user.Role, user.Active, now, now,
		)
		return s.mapError(err)
	})
}

// UpdateUser replaces a profile's mutable fields and returns the stored row.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	err := s.withRetry(ctx, func() error {
		result, err := s.exec(ctx, s.db, `
			UPDATE users
			SET email = ?, full_name = ?, area = ?, role = ?, active = ?, updated_at = ?
			WHERE id = ?`,
			normalizeEmail(user.Email), user.FullName, nullString(user.Area), user.Role, user.Active,
			s.timestamp(s.now()), user.ID,
		)
		if err != nil {
			return s.mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return persistence.User{}, err
	}
	return s.GetUser(ctx, user.ID)
}

// GetUser retrieves a profile by id.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return s.scanUser(s.queryRow(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail retrieves a profile by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return s.scanUser(s.queryRow(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// ListUsers returns every profile ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY full_name ASC, id ASC`)
}

// SearchUsersByName returns up to limit profiles whose name contains query.
func (s *Store) SearchUsersByName(ctx context.Context, query string, limit int) ([]persistence.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + escapeLike(query) + "%"
	return s.listUsers(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(full_name) LIKE ? ESCAPE '\'
		ORDER BY full_name ASC, id ASC
		LIMIT ?`, pattern, limit)
}

func (s *Store) listUsers(ctx context.Context, query string, args ...any) ([]persistence.User, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return users, nil
}

func (s *Store) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		area                 sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &area, &user.Role, &user.Active, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, s.mapError(err)
	}
	user.Area = stringPtr(area)
	if user.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("sqlstore: parse updated_at: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
