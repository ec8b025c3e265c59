package main

import (
	"context"
	"fmt"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

var (
	_ application.ReservationFacade = (*reservationRepositoryAdapter)(nil)
	_ application.CheckinStore      = (*reservationRepositoryAdapter)(nil)
	_ application.StatsSource       = (*statsSourceAdapter)(nil)
	_ application.RoomRepository    = (*roomRepositoryAdapter)(nil)
	_ application.RoomCatalog       = (*roomRepositoryAdapter)(nil)
	_ application.UserRepository    = (*userRepositoryAdapter)(nil)
	_ application.ProfileStore      = (*userRepositoryAdapter)(nil)
)

var confirmedOnly = []string{string(booking.StatusConfirmed)}

type reservationRepositoryAdapter struct {
	repo  persistence.ReservationRepository
	codes persistence.CheckinCodeRepository
	now   func() time.Time
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository, codes persistence.CheckinCodeRepository, now func() time.Time) *reservationRepositoryAdapter {
	if now == nil {
		now = time.Now
	}
	return &reservationRepositoryAdapter{repo: repo, codes: codes, now: now}
}

func (a *reservationRepositoryAdapter) FetchConfirmedReservations(ctx context.Context, date booking.Date, roomID *string) ([]booking.ReservationRecord, error) {
	return a.list(ctx, persistence.ReservationFilter{
		StartDate: date.String(),
		EndDate:   date.String(),
		RoomID:    roomID,
		Statuses:  confirmedOnly,
	})
}

func (a *reservationRepositoryAdapter) FetchConfirmedReservationsRange(ctx context.Context, start, end booking.Date, ownerUserID *string) ([]booking.ReservationRecord, error) {
	return a.list(ctx, persistence.ReservationFilter{
		StartDate: start.String(),
		EndDate:   end.String(),
		UserID:    ownerUserID,
		Statuses:  confirmedOnly,
	})
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (booking.ReservationRecord, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return booking.ReservationRecord{}, err
	}
	return toApplicationReservation(stored)
}

// CancelReservation only moves confirmed rows; anything else reads as not found.
func (a *reservationRepositoryAdapter) CancelReservation(ctx context.Context, id string) error {
	return a.repo.TransitionStatus(ctx, id, string(booking.StatusConfirmed), string(booking.StatusCancelled), a.now())
}

func (a *reservationRepositoryAdapter) MarkNoShow(ctx context.Context, id string) error {
	return a.repo.TransitionStatus(ctx, id, string(booking.StatusConfirmed), string(booking.StatusNoShow), a.now())
}

func (a *reservationRepositoryAdapter) MarkCheckedIn(ctx context.Context, id string, at time.Time) error {
	return a.repo.MarkCheckedIn(ctx, id, at)
}

func (a *reservationRepositoryAdapter) CreateReservations(ctx context.Context, records []booking.ReservationRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]persistence.Reservation, 0, len(records))
	for _, r := range records {
		models = append(models, toPersistenceReservation(r))
	}
	return a.repo.CreateReservations(ctx, models)
}

func (a *reservationRepositoryAdapter) CreateCheckinCode(ctx context.Context, code application.CheckinCode) error {
	return a.codes.CreateCheckinCode(ctx, persistence.CheckinCode{
		ID:            code.ID,
		ReservationID: code.ReservationID,
		CodeHash:      code.CodeHash,
		ExpiresAt:     code.ExpiresAt,
		UsedAt:        code.UsedAt,
		CreatedAt:     code.CreatedAt,
	})
}

func (a *reservationRepositoryAdapter) GetLatestCheckinCode(ctx context.Context, reservationID string) (application.CheckinCode, error) {
	stored, err := a.codes.GetLatestCheckinCode(ctx, reservationID)
	if err != nil {
		return application.CheckinCode{}, err
	}
	return application.CheckinCode{
		ID:            stored.ID,
		ReservationID: stored.ReservationID,
		CodeHash:      stored.CodeHash,
		ExpiresAt:     stored.ExpiresAt,
		UsedAt:        stored.UsedAt,
		CreatedAt:     stored.CreatedAt,
	}, nil
}

func (a *reservationRepositoryAdapter) MarkCheckinCodeUsed(ctx context.Context, id string, at time.Time) error {
	return a.codes.MarkCheckinCodeUsed(ctx, id, at)
}

func (a *reservationRepositoryAdapter) list(ctx context.Context, filter persistence.ReservationFilter) ([]booking.ReservationRecord, error) {
	models, err := a.repo.ListReservations(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	records := make([]booking.ReservationRecord, 0, len(models))
	for _, model := range models {
		record, err := toApplicationReservation(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// statsSourceAdapter lists reservations of every status for the statistics service.
type statsSourceAdapter struct {
	reservations *reservationRepositoryAdapter
}

func newStatsSourceAdapter(reservations *reservationRepositoryAdapter) *statsSourceAdapter {
	return &statsSourceAdapter{reservations: reservations}
}

func (a *statsSourceAdapter) ListReservations(ctx context.Context, start, end booking.Date) ([]booking.ReservationRecord, error) {
	return a.reservations.list(ctx, persistence.ReservationFilter{StartDate: start.String(), EndDate: end.String()})
}

type roomRepositoryAdapter struct {
	rooms     persistence.RoomRepository
	buildings persistence.BuildingRepository
}

func newRoomRepositoryAdapter(rooms persistence.RoomRepository, buildings persistence.BuildingRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{rooms: rooms, buildings: buildings}
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.rooms.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

func (a *roomRepositoryAdapter) ListBuildings(ctx context.Context) ([]application.Building, error) {
	models, err := a.buildings.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	buildings := make([]application.Building, 0, len(models))
	for _, model := range models {
		buildings = append(buildings, toApplicationBuilding(model))
	}
	return buildings, nil
}

func (a *roomRepositoryAdapter) SetRoomActive(ctx context.Context, id string, active bool) (application.Room, error) {
	stored, err := a.rooms.SetRoomActive(ctx, id, active)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	stored, err := a.repo.UpdateUser(ctx, toPersistenceUser(user))
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationUsers(models), nil
}

func (a *userRepositoryAdapter) SearchUsersByName(ctx context.Context, query string, limit int) ([]application.User, error) {
	models, err := a.repo.SearchUsersByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return toApplicationUsers(models), nil
}

func toApplicationReservation(model persistence.Reservation) (booking.ReservationRecord, error) {
	date, err := booking.ParseDate(model.Date)
	if err != nil {
		return booking.ReservationRecord{}, fmt.Errorf("reservation %s: %w", model.ID, err)
	}
	block, err := booking.ParseTimeBlock(model.StartTime, model.EndTime)
	if err != nil {
		return booking.ReservationRecord{}, fmt.Errorf("reservation %s: %w", model.ID, err)
	}
	return booking.ReservationRecord{
		ID:              model.ID,
		Date:            date,
		Block:           block,
		RoomID:          model.RoomID,
		RoomName:        model.RoomName,
		BuildingName:    model.BuildingName,
		Purpose:         model.Purpose,
		Status:          booking.Status(model.Status),
		OwnerUserID:     model.UserID,
		OwnerName:       model.OwnerName,
		OwnerArea:       model.OwnerArea,
		ResponsibleName: model.ResponsibleName,
		CheckedIn:       model.CheckedIn,
		CheckedInAt:     model.CheckedInAt,
	}, nil
}

func toPersistenceReservation(record booking.ReservationRecord) persistence.Reservation {
	return persistence.Reservation{
		ID:              record.ID,
		RoomID:          record.RoomID,
		UserID:          record.OwnerUserID,
		Date:            record.Date.String(),
		StartTime:       record.Block.Start.String(),
		EndTime:         record.Block.End.String(),
		Purpose:         record.Purpose,
		ResponsibleName: record.ResponsibleName,
		Status:          string(record.Status),
		CheckedIn:       record.CheckedIn,
		CheckedInAt:     record.CheckedInAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:           model.ID,
		BuildingID:   model.BuildingID,
		BuildingName: model.BuildingName,
		Name:         model.Name,
		Capacity:     model.Capacity,
		Equipment:    append([]string(nil), model.Equipment...),
		Active:       model.Active,
	}
}

func toApplicationBuilding(model persistence.Building) application.Building {
	building := application.Building{ID: model.ID, Name: model.Name, Active: model.Active}
	if model.Address != nil {
		building.Address = *model.Address
	}
	return building
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:       model.ID,
		Email:    model.Email,
		FullName: model.FullName,
		Area:     model.Area,
		Role:     booking.ParseRole(model.Role),
		Active:   model.Active,
	}
}

func toApplicationUsers(models []persistence.User) []application.User {
	if len(models) == 0 {
		return nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Area:     user.Area,
		Role:     string(user.Role),
		Active:   user.Active,
	}
}
