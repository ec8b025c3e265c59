package persistence

import (
	"context"
	"time"
)

// BuildingRepository stores school sites.
type BuildingRepository interface {
	CreateBuilding(ctx context.Context, building Building) error
	ListBuildings(ctx context.Context) ([]Building, error)
}

// RoomRepository stores the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SetRoomActive(ctx context.Context, id string, active bool) (Room, error)
}

// UserRepository stores staff profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SearchUsersByName(ctx context.Context, query string, limit int) ([]User, error)
}

// ReservationRepository stores booked blocks. Status changes never delete rows.
type ReservationRepository interface {
	CreateReservations(ctx context.Context, reservations []Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	TransitionStatus(ctx context.Context, id, from, to string, at time.Time) error
	MarkCheckedIn(ctx context.Context, id string, at time.Time) error
}

// CheckinCodeRepository stores check-in code hashes.
type CheckinCodeRepository interface {
	CreateCheckinCode(ctx context.Context, code CheckinCode) error
	GetLatestCheckinCode(ctx context.Context, reservationID string) (CheckinCode, error)
	MarkCheckinCodeUsed(ctx context.Context, id string, at time.Time) error
}
