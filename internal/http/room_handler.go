package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/room-reservations/internal/application"
)

type roomService interface {
	ListRooms(ctx context.Context, params application.ListRoomsParams) ([]application.Room, error)
	ListBuildings(ctx context.Context, principal application.Principal) ([]application.Building, error)
	SetRoomActive(ctx context.Context, params application.SetRoomActiveParams) (application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	params := application.ListRoomsParams{Principal: principal}
	if buildingID := strings.TrimSpace(query.Get("building_id")); buildingID != "" {
		params.BuildingID = &buildingID
	}
	if value := query.Get("include_inactive"); value != "" {
		include, err := strconv.ParseBool(value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, nil)
			return
		}
		params.IncludeInactive = include
	}

	rooms, err := h.service.ListRooms(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "List", "result_count", len(rooms)).DebugContext(r.Context(), "rooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *RoomHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	buildings, err := h.service.ListBuildings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]buildingDTO, 0, len(buildings))
	for _, b := range buildings {
		out = append(out, buildingDTO{ID: b.ID, Name: b.Name, Address: b.Address, Active: b.Active})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBuildingsResponse{Buildings: out})
}

// Update toggles whether a room accepts bookings.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.PathValue("id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req updateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.SetRoomActive(r.Context(), application.SetRoomActiveParams{
		Principal: principal,
		RoomID:    roomID,
		Active:    *req.Active,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

type updateRoomRequest struct {
	Active *bool `json:"active"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type listBuildingsResponse struct {
	Buildings []buildingDTO `json:"buildings"`
}

type buildingDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Active  bool   `json:"active"`
}

type roomDTO struct {
	ID           string   `json:"id"`
	BuildingID   string   `json:"building_id"`
	BuildingName string   `json:"building_name"`
	Name         string   `json:"name"`
	Capacity     int      `json:"capacity"`
	Equipment    []string `json:"equipment"`
	Active       bool     `json:"active"`
}

func toRoomDTO(room application.Room) roomDTO {
	equipment := room.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return roomDTO{
		ID:           room.ID,
		BuildingID:   room.BuildingID,
		BuildingName: room.BuildingName,
		Name:         room.Name,
		Capacity:     room.Capacity,
		Equipment:    equipment,
		Active:       room.Active,
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
