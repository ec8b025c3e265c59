package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

// CreateBuilding inserts a building.
func (s *Store) CreateBuilding(ctx context.Context, building persistence.Building) error {
	if strings.TrimSpace(building.ID) == "" || strings.TrimSpace(building.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	now := s.timestamp(s.now())
	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, s.db, `
			INSERT INTO buildings (id, name, address, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			building.ID, building.Name, nullString(building.Address), building.Active, now, now,
		)
		return s.mapError(err)
	})
}

// ListBuildings returns every building ordered by name.
func (s *Store) ListBuildings(ctx context.Context) ([]persistence.Building, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, name, address, active, created_at, updated_at
		FROM buildings
		ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var buildings []persistence.Building
	for rows.Next() {
		var (
			b                    persistence.Building
			address              sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&b.ID, &b.Name, &address, &b.Active, &createdAt, &updatedAt); err != nil {
			return nil, s.mapError(err)
		}
		b.Address = stringPtr(address)
		if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("sqlstore: parse created_at: %w", err)
		}
		if b.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: parse updated_at: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return buildings, nil
}

const roomColumns = `
	r.id, r.building_id, b.name, r.name, r.capacity, r.equipment, r.active, r.created_at, r.updated_at`

const roomFrom = `
	FROM rooms r
	JOIN buildings b ON b.id = r.building_id`

// CreateRoom inserts a room.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) error {
	if strings.TrimSpace(room.ID) == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	equipment, err := encodeEquipment(room.Equipment)
	if err != nil {
		return err
	}
	now := s.timestamp(s.now())
	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, s.db, `
			INSERT INTO rooms (id, building_id, name, capacity, equipment, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			room.ID, room.BuildingID, room.Name, room.Capacity, equipment, room.Active, now, now,
		)
		return s.mapError(err)
	})
}

// GetRoom retrieves a room with its building name.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := s.queryRow(ctx, s.db, `SELECT `+roomColumns+roomFrom+` WHERE r.id = ?`, id)
	return s.scanRoom(row)
}

// ListRooms returns every room ordered by building then room name.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+roomColumns+roomFrom+` ORDER BY b.name ASC, r.name ASC, r.id ASC`)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := s.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return rooms, nil
}

// SetRoomActive toggles whether a room can be booked and returns the updated room.
func (s *Store) SetRoomActive(ctx context.Context, id string, active bool) (persistence.Room, error) {
	err := s.withRetry(ctx, func() error {
		result, err := s.exec(ctx, s.db, `UPDATE rooms SET active = ?, updated_at = ? WHERE id = ?`,
			active, s.timestamp(s.now()), id)
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
		return persistence.Room{}, err
	}
	return s.GetRoom(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		equipment            string
		createdAt, updatedAt string
	)
	err := row.Scan(&room.ID, &room.BuildingID, &room.BuildingName, &room.Name, &room.Capacity,
		&equipment, &room.Active, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Room{}, s.mapError(err)
	}
	if room.Equipment, err = decodeEquipment(equipment); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlstore: parse updated_at: %w", err)
	}
	return room, nil
}

func encodeEquipment(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("sqlstore: encode equipment: %w", err)
	}
	return string(data), nil
}

func decodeEquipment(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("sqlstore: decode equipment: %w", err)
	}
	return items, nil
}
