package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

const reservationColumns = `
	res.id, res.room_id, res.user_id, res.date, res.start_time, res.end_time, res.purpose,
	res.responsible_name, res.status, res.checked_in, res.checked_in_at, res.created_at, res.updated_at,
	r.name, b.name, u.full_name, u.area`

const reservationFrom = `
	FROM reservations res
	JOIN rooms r ON r.id = res.room_id
	JOIN buildings b ON b.id = r.building_id
	JOIN users u ON u.id = res.user_id`

// CreateReservations inserts every block of a booking in one transaction;
// either all rows are stored or none are.
func (s *Store) CreateReservations(ctx context.Context, reservations []persistence.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	for _, r := range reservations {
		if strings.TrimSpace(r.ID) == "" || r.Date == "" || r.StartTime == "" || r.EndTime == "" {
			return persistence.ErrConstraintViolation
		}
	}
	now := s.timestamp(s.now())

	return s.withRetry(ctx, func() error {
		return s.withTransaction(ctx, func(tx *sql.Tx) error {
			for _, r := range reservations {
				status := r.Status
				if status == "" {
					status = "confirmada"
				}
				_, err := s.exec(ctx, tx, `
					INSERT INTO reservations (
						id, room_id, user_id, date, start_time, end_time, purpose,
						responsible_name, status, checked_in, created_at, updated_at
					) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					r.ID, r.RoomID, r.UserID, r.Date, r.StartTime, r.EndTime, r.Purpose,
					nullString(r.ResponsibleName), status, false, now, now,
				)
				if err != nil {
					return s.mapError(err)
				}
			}
			return nil
		})
	})
}

// GetReservation retrieves one reservation of any status.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := s.queryRow(ctx, s.db, `SELECT `+reservationColumns+reservationFrom+` WHERE res.id = ?`, id)
	return s.scanReservation(row)
}

// ListReservations returns reservations matching filter ordered by date,
// start time, room and id.
func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.StartDate != "" {
		clauses = append(clauses, "res.date >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		clauses = append(clauses, "res.date <= ?")
		args = append(args, filter.EndDate)
	}
	if filter.RoomID != nil {
		clauses = append(clauses, "res.room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.UserID != nil {
		clauses = append(clauses, "res.user_id = ?")
		args = append(args, *filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			marks[i] = "?"
			args = append(args, status)
		}
		clauses = append(clauses, "res.status IN ("+strings.Join(marks, ", ")+")")
	}

	query := `SELECT ` + reservationColumns + reservationFrom
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY res.date ASC, res.start_time ASC, r.name ASC, res.id ASC`

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var out []persistence.Reservation
	for rows.Next() {
		r, err := s.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

// TransitionStatus moves a reservation from one status to another. A row that
// does not exist or is not in the from status yields ErrNotFound.
func (s *Store) TransitionStatus(ctx context.Context, id, from, to string, at time.Time) error {
	return s.withRetry(ctx, func() error {
		result, err := s.exec(ctx, s.db, `
			UPDATE reservations SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			to, s.timestamp(at), id, from,
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

// MarkCheckedIn records the check-in of a confirmed reservation.
func (s *Store) MarkCheckedIn(ctx context.Context, id string, at time.Time) error {
	return s.withRetry(ctx, func() error {
		stamp := s.timestamp(at)
		result, err := s.exec(ctx, s.db, `
			UPDATE reservations SET checked_in = ?, checked_in_at = ?, updated_at = ?
			WHERE id = ? AND status = 'confirmada' AND checked_in = ?`,
			true, stamp, stamp, id, false,
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

func (s *Store) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		r                    persistence.Reservation
		responsible, area    sql.NullString
		checkedInAt          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&r.ID, &r.RoomID, &r.UserID, &r.Date, &r.StartTime, &r.EndTime, &r.Purpose,
		&responsible, &r.Status, &r.CheckedIn, &checkedInAt, &createdAt, &updatedAt,
		&r.RoomName, &r.BuildingName, &r.OwnerName, &area,
	)
	if err != nil {
		return persistence.Reservation{}, s.mapError(err)
	}
	r.ResponsibleName = stringPtr(responsible)
	r.OwnerArea = stringPtr(area)
	if r.CheckedInAt, err = parseNullTimestamp(checkedInAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlstore: parse checked_in_at: %w", err)
	}
	if r.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	if r.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlstore: parse updated_at: %w", err)
	}
	return r, nil
}
