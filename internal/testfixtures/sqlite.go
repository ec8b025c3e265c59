package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/sqlstore"
)

// SQLiteHarness exposes a migrated SQLite store in a temporary directory.
type SQLiteHarness struct {
	Store *sqlstore.Store

	Buildings    persistence.BuildingRepository
	Rooms        persistence.RoomRepository
	Users        persistence.UserRepository
	Reservations persistence.ReservationRepository
	Codes        persistence.CheckinCodeRepository

	tb testing.TB
}

// NewSQLiteHarness opens and migrates a temporary database. The store is
// closed through tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver: persistence.DriverSQLite,
		DSN:    filepath.Join(tb.TempDir(), "reservas.db"),
	})
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}

	return &SQLiteHarness{
		Store:        store,
		Buildings:    store,
		Rooms:        store,
		Users:        store,
		Reservations: store,
		Codes:        store,
		tb:           tb,
	}
}

// SeedBuildings stores the given buildings.
func (h *SQLiteHarness) SeedBuildings(buildings ...BuildingFixture) {
	h.tb.Helper()
	for _, b := range buildings {
		if err := h.Buildings.CreateBuilding(context.Background(), b.Persistence()); err != nil {
			h.tb.Fatalf("failed to seed building %s: %v", b.ID, err)
		}
	}
}

// SeedRooms stores the given rooms; their buildings must exist.
func (h *SQLiteHarness) SeedRooms(rooms ...RoomFixture) {
	h.tb.Helper()
	for _, r := range rooms {
		if err := h.Rooms.CreateRoom(context.Background(), r.Persistence()); err != nil {
			h.tb.Fatalf("failed to seed room %s: %v", r.ID, err)
		}
	}
}

// SeedUsers stores the given profiles.
func (h *SQLiteHarness) SeedUsers(users ...UserFixture) {
	h.tb.Helper()
	for _, u := range users {
		if err := h.Users.CreateUser(context.Background(), u.Persistence()); err != nil {
			h.tb.Fatalf("failed to seed user %s: %v", u.ID, err)
		}
	}
}

// SeedReservations stores the given blocks in one batch.
func (h *SQLiteHarness) SeedReservations(reservations ...ReservationFixture) {
	h.tb.Helper()
	rows := make([]persistence.Reservation, len(reservations))
	for i, r := range reservations {
		rows[i] = r.Persistence()
	}
	if err := h.Reservations.CreateReservations(context.Background(), rows); err != nil {
		h.tb.Fatalf("failed to seed reservations: %v", err)
	}
}

// Campus is a small seeded catalog: one building, two rooms and a user per role.
type Campus struct {
	Building    BuildingFixture
	RoomA       RoomFixture
	RoomB       RoomFixture
	SuperAdmin  UserFixture
	Admin       UserFixture
	Subdirector UserFixture
	Funcionario UserFixture
}

// SeedCampus stores a Campus and returns it.
func (h *SQLiteHarness) SeedCampus() Campus {
	h.tb.Helper()
	building := NewBuildingFixture(func(b *BuildingFixture) { b.Name = "Liceo Central" })
	c := Campus{
		Building:    building,
		RoomA:       NewRoomFixture(building, WithRoomName("Aula Magna")),
		RoomB:       NewRoomFixture(building, WithRoomName("Biblioteca")),
		SuperAdmin:  NewUserFixture(WithUserRole("super_admin"), WithUserName("Marta Vidal")),
		Admin:       NewUserFixture(WithUserRole("admin"), WithUserName("Jorge Pinto")),
		Subdirector: NewUserFixture(WithUserRole("subdirector"), WithUserName("Ana Rojas")),
		Funcionario: NewUserFixture(WithUserName("Luis Soto")),
	}
	h.SeedBuildings(c.Building)
	h.SeedRooms(c.RoomA, c.RoomB)
	h.SeedUsers(c.SuperAdmin, c.Admin, c.Subdirector, c.Funcionario)
	return c
}
