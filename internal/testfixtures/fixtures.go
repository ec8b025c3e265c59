package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

var (
	buildingCounter    uint64
	roomCounter        uint64
	userCounter        uint64
	reservationCounter uint64
)

// referenceTime is a Monday morning before the first block of the default grid.
var referenceTime = time.Date(2024, time.March, 11, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the baseline instant used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the calendar day of ReferenceTime.
func ReferenceDate() booking.Date {
	return booking.DateOf(referenceTime)
}

// ----------------------------- Buildings -----------------------------

// BuildingFixture is a deterministic building.
type BuildingFixture struct {
	ID      string
	Name    string
	Address *string
	Active  bool
}

// NewBuildingFixture returns a building with generated id and name.
func NewBuildingFixture(opts ...func(*BuildingFixture)) BuildingFixture {
	idx := atomic.AddUint64(&buildingCounter, 1)
	f := BuildingFixture{
		ID:     fmt.Sprintf("building-%03d", idx),
		Name:   fmt.Sprintf("Edificio %03d", idx),
		Active: true,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Persistence converts the fixture into its stored form.
func (f BuildingFixture) Persistence() persistence.Building {
	return persistence.Building{ID: f.ID, Name: f.Name, Address: copyStringPtr(f.Address), Active: f.Active}
}

// ----------------------------- Rooms -----------------------------

// RoomFixture is a deterministic room.
type RoomFixture struct {
	ID           string
	BuildingID   string
	BuildingName string
	Name         string
	Capacity     int
	Equipment    []string
	Active       bool
}

// RoomOption configures a RoomFixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns an active room in building.
func NewRoomFixture(building BuildingFixture, opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	f := RoomFixture{
		ID:           fmt.Sprintf("room-%03d", idx),
		BuildingID:   building.ID,
		BuildingName: building.Name,
		Name:         fmt.Sprintf("Sala %03d", idx),
		Capacity:     20,
		Equipment:    []string{"proyector"},
		Active:       true,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithRoomName overrides the room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomInactive marks the room as not bookable.
func WithRoomInactive() RoomOption {
	return func(f *RoomFixture) { f.Active = false }
}

// Persistence converts the fixture into its stored form.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:           f.ID,
		BuildingID:   f.BuildingID,
		BuildingName: f.BuildingName,
		Name:         f.Name,
		Capacity:     f.Capacity,
		Equipment:    append([]string(nil), f.Equipment...),
		Active:       f.Active,
	}
}

// Application converts the fixture into the catalog model.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:           f.ID,
		BuildingID:   f.BuildingID,
		BuildingName: f.BuildingName,
		Name:         f.Name,
		Capacity:     f.Capacity,
		Equipment:    append([]string(nil), f.Equipment...),
		Active:       f.Active,
	}
}

// ----------------------------- Users -----------------------------

// UserFixture is a deterministic staff profile.
type UserFixture struct {
	ID       string
	Email    string
	FullName string
	Area     *string
	Role     booking.Role
	Active   bool
}

// UserOption configures a UserFixture.
type UserOption func(*UserFixture)

// NewUserFixture returns an active funcionario.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	f := UserFixture{
		ID:       id,
		Email:    id + "@colegio.example",
		FullName: fmt.Sprintf("Funcionario %03d", idx),
		Role:     booking.RoleFuncionario,
		Active:   true,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithUserRole overrides the role.
func WithUserRole(role booking.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserName overrides the full name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) { f.FullName = name }
}

// WithUserEmail overrides the email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserInactive deactivates the profile.
func WithUserInactive() UserOption {
	return func(f *UserFixture) { f.Active = false }
}

// Persistence converts the fixture into its stored form.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:       f.ID,
		Email:    f.Email,
		FullName: f.FullName,
		Area:     copyStringPtr(f.Area),
		Role:     string(f.Role),
		Active:   f.Active,
	}
}

// Principal returns the caller identity of the user.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Email: f.Email, Name: f.FullName, Role: f.Role}
}

// ----------------------------- Reservations -----------------------------

// ReservationFixture is one booked block.
type ReservationFixture struct {
	ID              string
	Room            RoomFixture
	Owner           UserFixture
	Date            booking.Date
	Block           booking.TimeBlock
	Purpose         string
	ResponsibleName *string
	Status          booking.Status
}

// ReservationOption configures a ReservationFixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a confirmed 09:00-10:00 block on ReferenceDate.
func NewReservationFixture(room RoomFixture, owner UserFixture, opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	f := ReservationFixture{
		ID:      fmt.Sprintf("reservation-%03d", idx),
		Room:    room,
		Owner:   owner,
		Date:    ReferenceDate(),
		Block:   booking.MustBlock("09:00", "10:00"),
		Purpose: "Reunión de departamento",
		Status:  booking.StatusConfirmed,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithReservationID overrides the generated id.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) { f.ID = id }
}

// WithBlock sets the booked block.
func WithBlock(start, end string) ReservationOption {
	return func(f *ReservationFixture) { f.Block = booking.MustBlock(start, end) }
}

// WithDate sets the booked day.
func WithDate(d booking.Date) ReservationOption {
	return func(f *ReservationFixture) { f.Date = d }
}

// WithPurpose sets the purpose.
func WithPurpose(purpose string) ReservationOption {
	return func(f *ReservationFixture) { f.Purpose = purpose }
}

// WithResponsible sets the responsible party.
func WithResponsible(name string) ReservationOption {
	return func(f *ReservationFixture) { f.ResponsibleName = &name }
}

// WithStatus sets the lifecycle status.
func WithStatus(status booking.Status) ReservationOption {
	return func(f *ReservationFixture) { f.Status = status }
}

// Persistence converts the fixture into its stored form.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:              f.ID,
		RoomID:          f.Room.ID,
		UserID:          f.Owner.ID,
		Date:            f.Date.String(),
		StartTime:       f.Block.Start.String(),
		EndTime:         f.Block.End.String(),
		Purpose:         f.Purpose,
		ResponsibleName: copyStringPtr(f.ResponsibleName),
		Status:          string(f.Status),
	}
}

// Record converts the fixture into the denormalised booking record.
func (f ReservationFixture) Record() booking.ReservationRecord {
	return booking.ReservationRecord{
		ID:              f.ID,
		Date:            f.Date,
		Block:           f.Block,
		RoomID:          f.Room.ID,
		RoomName:        f.Room.Name,
		BuildingName:    f.Room.BuildingName,
		Purpose:         f.Purpose,
		Status:          f.Status,
		OwnerUserID:     f.Owner.ID,
		OwnerName:       f.Owner.FullName,
		OwnerArea:       copyStringPtr(f.Owner.Area),
		ResponsibleName: copyStringPtr(f.ResponsibleName),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
