package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	ListBuildings(ctx context.Context) ([]Building, error)
	SetRoomActive(ctx context.Context, id string, active bool) (Room, error)
}

// RoomService exposes the building and room catalog.
type RoomService struct {
	rooms    RoomRepository
	onChange func()
	logger   *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository) *RoomService {
	return NewRoomServiceWithLogger(rooms, nil, nil)
}

// NewRoomServiceWithLogger constructs a room service with a change hook and logger.
func NewRoomServiceWithLogger(rooms RoomRepository, onChange func(), logger *slog.Logger) *RoomService {
	if onChange == nil {
		onChange = func() {}
	}
	return &RoomService{rooms: rooms, onChange: onChange, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// GetRoom satisfies RoomCatalog for the reservation service.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	room, err := s.rooms.GetRoom(ctx, strings.TrimSpace(id))
	if err != nil {
		return Room{}, mapRoomRepoError(err)
	}
	return room, nil
}

// ListRooms returns rooms sorted by building then name. Inactive rooms are
// included only for room managers who ask for them.
func (s *RoomService) ListRooms(ctx context.Context, params ListRoomsParams) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !params.Principal.Authenticated() {
		err = ErrNotAuthenticated
		return
	}
	includeInactive := params.IncludeInactive && booking.CanManageRooms(params.Principal.Role)

	all, listErr := s.rooms.ListRooms(ctx)
	if listErr != nil {
		err = mapRoomRepoError(listErr)
		return
	}
	for _, r := range all {
		if !r.Active && !includeInactive {
			continue
		}
		if params.BuildingID != nil && r.BuildingID != *params.BuildingID {
			continue
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].BuildingName != rooms[j].BuildingName {
			return rooms[i].BuildingName < rooms[j].BuildingName
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

// ListBuildings returns active buildings sorted by name.
func (s *RoomService) ListBuildings(ctx context.Context, principal Principal) (buildings []Building, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if !principal.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	all, err := s.rooms.ListBuildings(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListBuildings").ErrorContext(ctx, "failed to list buildings", "error", err)
		return nil, mapRoomRepoError(err)
	}
	for _, b := range all {
		if b.Active {
			buildings = append(buildings, b)
		}
	}
	sort.Slice(buildings, func(i, j int) bool { return buildings[i].Name < buildings[j].Name })
	return buildings, nil
}

// SetRoomActive enables or disables booking of a room.
func (s *RoomService) SetRoomActive(ctx context.Context, params SetRoomActiveParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetRoomActive",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"active", params.Active,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !params.Principal.Authenticated() {
		err = ErrNotAuthenticated
		return
	}
	if !booking.CanManageRooms(params.Principal.Role) {
		err = ErrPermissionDenied
		return
	}
	if strings.TrimSpace(params.RoomID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", "room id is required")
		err = vErr
		return
	}

	room, err = s.rooms.SetRoomActive(ctx, params.RoomID, params.Active)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	s.onChange()
	return room, nil
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return &UpstreamError{Op: "room catalog", Err: err}
}
