package application

import (
	"time"

	"github.com/example/room-reservations/internal/booking"
)

// Principal is the authenticated caller an operation acts for.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   booking.Role
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Building groups rooms at one site.
type Building struct {
	ID      string
	Name    string
	Address string
	Active  bool
}

// Room is a bookable space.
type Room struct {
	ID           string
	BuildingID   string
	BuildingName string
	Name         string
	Capacity     int
	Equipment    []string
	Active       bool
}

// User is a staff profile.
type User struct {
	ID       string
	Email    string
	FullName string
	Area     *string
	Role     booking.Role
	Active   bool
}

// CheckinCode is a single-use code for checking into a reservation. Only the
// hash of the code is persisted.
type CheckinCode struct {
	ID            string
	ReservationID string
	CodeHash      string
	ExpiresAt     time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}

// AnnotatedEntry is a consolidated entry plus the actions the requester may take on it.
type AnnotatedEntry struct {
	Entry       booking.Entry
	Permissions booking.Permissions
}

// DayParams selects one day's reservations, optionally for one room.
type DayParams struct {
	Principal Principal
	Date      booking.Date
	RoomID    *string
}

// RangeParams selects the principal's own reservations in a named range.
type RangeParams struct {
	Principal Principal
	Range     booking.RangeName
}

// GridParams selects the availability of one room on one day.
type GridParams struct {
	Principal Principal
	Date      booking.Date
	RoomID    string
}

// EntryRef identifies a consolidated entry. ReservationID is any record of
// the entry; Span, when known, is the block the caller saw and bounds the
// group so later adjacent bookings are never swept in.
type EntryRef struct {
	Kind          booking.EntryKind
	ReservationID string
	Span          *booking.TimeBlock
}

// CancelScope names the view a cancellation was requested from.
type CancelScope string

const (
	// ScopeDay is the shared day view.
	ScopeDay CancelScope = "day"
	// ScopePersonal is the requester's own reservation list.
	ScopePersonal CancelScope = "personal"
)

// CancelParams requests cancellation of a single record or a whole group.
type CancelParams struct {
	Principal Principal
	Target    EntryRef
	Scope     CancelScope
}

// CancelResult counts the outcome of independent cancel calls.
type CancelResult struct {
	Succeeded int
	Failed    int
}

// ExpandParams requests the constituent records of a group for editing.
type ExpandParams struct {
	Principal Principal
	Target    EntryRef
	Scope     CancelScope
}

// CancelBlocksParams removes selected blocks from a group.
type CancelBlocksParams struct {
	Principal Principal
	Target    EntryRef
	Scope     CancelScope
	Blocks    []booking.TimeBlock
}

// ReservationInput carries the fields a user fills when booking a room.
type ReservationInput struct {
	RoomID          string
	Date            booking.Date
	Slots           []booking.TimeBlock
	Purpose         string
	ResponsibleName *string
	Recurrence      booking.Recurrence
}

// CreateReservationParams wraps the reservation input with the acting principal.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// IssueCodeParams requests a check-in code for a reservation.
type IssueCodeParams struct {
	Principal     Principal
	ReservationID string
}

// IssuedCode is returned once, when the code is generated.
type IssuedCode struct {
	ReservationID string
	Code          string
	ExpiresAt     time.Time
}

// CheckInParams redeems a check-in code.
type CheckInParams struct {
	Principal     Principal
	ReservationID string
	Code          string
}

// StatsParams selects the month statistics are computed for.
type StatsParams struct {
	Principal Principal
	Month     booking.Date
}

// RoomCount is a room and the number of reservations it received.
type RoomCount struct {
	RoomID       string
	RoomName     string
	BuildingName string
	Count        int
}

// Overview summarises usage for administrators.
type Overview struct {
	Today      int
	Month      int
	NoShowRate float64
	TopRooms   []RoomCount
}

// RoomUsage is one room's monthly breakdown.
type RoomUsage struct {
	RoomID       string
	RoomName     string
	BuildingName string
	Total        int
	Confirmed    int
	Cancelled    int
	NoShows      int
	CheckedIn    int
	CheckinRate  float64
}

// ListRoomsParams controls room listing.
type ListRoomsParams struct {
	Principal       Principal
	BuildingID      *string
	IncludeInactive bool
}

// SetRoomActiveParams toggles whether a room can be booked.
type SetRoomActiveParams struct {
	Principal Principal
	RoomID    string
	Active    bool
}

// UpdateRoleParams changes a user's role.
type UpdateRoleParams struct {
	Principal Principal
	UserID    string
	Role      booking.Role
}
