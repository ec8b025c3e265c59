package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

type roomRepoStub struct {
	rooms     map[string]Room
	buildings []Building
	listErr   error
	toggled   []string
}

func (s *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (s *roomRepoStub) ListBuildings(ctx context.Context) ([]Building, error) {
	return s.buildings, nil
}

func (s *roomRepoStub) SetRoomActive(ctx context.Context, id string, active bool) (Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	room.Active = active
	s.rooms[id] = room
	s.toggled = append(s.toggled, id)
	return room, nil
}

func newRoomRepoStub() *roomRepoStub {
	return &roomRepoStub{
		rooms: map[string]Room{
			"r1": {ID: "r1", BuildingID: "b2", BuildingName: "Primaria", Name: "Aula 2", Active: true},
			"r2": {ID: "r2", BuildingID: "b1", BuildingName: "Liceo", Name: "Sala de Profesores", Active: true},
			"r3": {ID: "r3", BuildingID: "b2", BuildingName: "Primaria", Name: "Aula 1", Active: true},
			"r4": {ID: "r4", BuildingID: "b2", BuildingName: "Primaria", Name: "Gimnasio", Active: false},
		},
		buildings: []Building{
			{ID: "b2", Name: "Primaria", Active: true},
			{ID: "b1", Name: "Liceo", Active: true},
			{ID: "b3", Name: "Anexo", Active: false},
		},
	}
}

func roomIDs(rooms []Room) []string {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	return ids
}

func TestRoomService_ListRooms(t *testing.T) {
	ctx := context.Background()

	t.Run("requires authentication", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub())
		if _, err := svc.ListRooms(ctx, ListRoomsParams{}); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("hides inactive rooms from staff", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub())
		rooms, err := svc.ListRooms(ctx, ListRoomsParams{Principal: principal("u1", booking.RoleFuncionario), IncludeInactive: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := roomIDs(rooms)
		want := []string{"r2", "r3", "r1"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("admins see inactive rooms filtered by building", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub())
		building := "b2"
		rooms, err := svc.ListRooms(ctx, ListRoomsParams{
			Principal:       principal("a1", booking.RoleAdmin),
			BuildingID:      &building,
			IncludeInactive: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rooms) != 3 || rooms[2].ID != "r4" {
			t.Fatalf("expected three Primaria rooms ending with Gimnasio, got %v", roomIDs(rooms))
		}
	})

	t.Run("wraps store failures", func(t *testing.T) {
		repo := newRoomRepoStub()
		repo.listErr = errors.New("timeout")
		_, err := NewRoomService(repo).ListRooms(ctx, ListRoomsParams{Principal: principal("u1", booking.RoleFuncionario)})
		if !errors.Is(err, ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	})
}

func TestRoomService_ListBuildings(t *testing.T) {
	svc := NewRoomService(newRoomRepoStub())
	buildings, err := svc.ListBuildings(context.Background(), principal("u1", booking.RoleFuncionario))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buildings) != 2 || buildings[0].Name != "Liceo" || buildings[1].Name != "Primaria" {
		t.Fatalf("unexpected buildings %+v", buildings)
	}
}

func TestRoomService_SetRoomActive(t *testing.T) {
	ctx := context.Background()

	t.Run("only room managers", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub())
		_, err := svc.SetRoomActive(ctx, SetRoomActiveParams{Principal: principal("d1", booking.RoleSubdirector), RoomID: "r1"})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("toggles and notifies", func(t *testing.T) {
		repo := newRoomRepoStub()
		changed := 0
		svc := NewRoomServiceWithLogger(repo, func() { changed++ }, nil)
		room, err := svc.SetRoomActive(ctx, SetRoomActiveParams{Principal: principal("a1", booking.RoleAdmin), RoomID: "r4", Active: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !room.Active || changed != 1 {
			t.Fatalf("expected active room and one change notification, got %+v (%d)", room, changed)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub())
		_, err := svc.SetRoomActive(ctx, SetRoomActiveParams{Principal: principal("a1", booking.RoleSuperAdmin), RoomID: "nope"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		svc := NewRoomService(newRoomRepoStub())
		_, err := svc.SetRoomActive(ctx, SetRoomActiveParams{Principal: principal("a1", booking.RoleAdmin), RoomID: "  "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
