package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// CreateCheckinCode stores a code hash.
func (s *Store) CreateCheckinCode(ctx context.Context, code persistence.CheckinCode) error {
	if code.ID == "" || code.ReservationID == "" || code.CodeHash == "" {
		return persistence.ErrConstraintViolation
	}
	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, s.db, `
			INSERT INTO checkin_codes (id, reservation_id, code_hash, expires_at, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			code.ID, code.ReservationID, code.CodeHash, s.timestamp(code.ExpiresAt), s.timestamp(code.CreatedAt),
		)
		return s.mapError(err)
	})
}

// GetLatestCheckinCode returns the most recently issued code of a reservation.
func (s *Store) GetLatestCheckinCode(ctx context.Context, reservationID string) (persistence.CheckinCode, error) {
	var (
		code                 persistence.CheckinCode
		expiresAt, createdAt string
		usedAt               sql.NullString
	)
	err := s.queryRow(ctx, s.db, `
		SELECT id, reservation_id, code_hash, expires_at, used_at, created_at
		FROM checkin_codes
		WHERE reservation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, reservationID,
	).Scan(&code.ID, &code.ReservationID, &code.CodeHash, &expiresAt, &usedAt, &createdAt)
	if err != nil {
		return persistence.CheckinCode{}, s.mapError(err)
	}
	if code.ExpiresAt, err = parseTimestamp(expiresAt); err != nil {
		return persistence.CheckinCode{}, fmt.Errorf("sqlstore: parse expires_at: %w", err)
	}
	if code.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.CheckinCode{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	if code.UsedAt, err = parseNullTimestamp(usedAt); err != nil {
		return persistence.CheckinCode{}, fmt.Errorf("sqlstore: parse used_at: %w", err)
	}
	return code, nil
}

// MarkCheckinCodeUsed redeems a code. A code that was already used yields ErrNotFound.
func (s *Store) MarkCheckinCodeUsed(ctx context.Context, id string, at time.Time) error {
	return s.withRetry(ctx, func() error {
		result, err := s.exec(ctx, s.db, `
			UPDATE checkin_codes SET used_at = ?
			WHERE id = ? AND used_at IS NULL`,
			s.timestamp(at), id,
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
}
