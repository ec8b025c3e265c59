package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

var errInvalidMonth = errors.New("El mes debe tener el formato AAAA-MM.")

type statsService interface {
	Overview(ctx context.Context, params application.StatsParams) (application.Overview, error)
	RoomUsage(ctx context.Context, params application.StatsParams) ([]application.RoomUsage, error)
}

type StatsHandler struct {
	service   statsService
	responder responder
}

func NewStatsHandler(service statsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{service: service, responder: newResponder(logger)}
}

func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params, err := statsParams(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	overview, err := h.service.Overview(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	top := make([]roomCountDTO, 0, len(overview.TopRooms))
	for _, rc := range overview.TopRooms {
		top = append(top, roomCountDTO{RoomID: rc.RoomID, RoomName: rc.RoomName, BuildingName: rc.BuildingName, Count: rc.Count})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overviewResponse{
		Today:      overview.Today,
		Month:      overview.Month,
		NoShowRate: overview.NoShowRate,
		TopRooms:   top,
	})
}

func (h *StatsHandler) RoomUsage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params, err := statsParams(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	usage, err := h.service.RoomUsage(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]roomUsageDTO, 0, len(usage))
	for _, u := range usage {
		out = append(out, roomUsageDTO{
			RoomID:       u.RoomID,
			RoomName:     u.RoomName,
			BuildingName: u.BuildingName,
			Total:        u.Total,
			Confirmed:    u.Confirmed,
			Cancelled:    u.Cancelled,
			NoShows:      u.NoShows,
			CheckedIn:    u.CheckedIn,
			CheckinRate:  u.CheckinRate,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomUsageResponse{Rooms: out})
}

// statsParams accepts month=YYYY-MM or a full date.
func statsParams(r *http.Request) (application.StatsParams, error) {
	principal, _ := PrincipalFromContext(r.Context())
	params := application.StatsParams{Principal: principal}
	value := strings.TrimSpace(r.URL.Query().Get("month"))
	if value == "" {
		return params, nil
	}
	if t, err := time.Parse("2006-01", value); err == nil {
		params.Month = booking.DateOf(t)
		return params, nil
	}
	d, err := booking.ParseDate(value)
	if err != nil {
		return params, errInvalidMonth
	}
	params.Month = d
	return params, nil
}

type roomCountDTO struct {
	RoomID       string `json:"room_id"`
	RoomName     string `json:"room_name"`
	BuildingName string `json:"building_name"`
	Count        int    `json:"count"`
}

type overviewResponse struct {
	Today      int            `json:"today"`
	Month      int            `json:"month"`
	NoShowRate float64        `json:"no_show_rate"`
	TopRooms   []roomCountDTO `json:"top_rooms"`
}

type roomUsageDTO struct {
	RoomID       string  `json:"room_id"`
	RoomName     string  `json:"room_name"`
	BuildingName string  `json:"building_name"`
	Total        int     `json:"total"`
	Confirmed    int     `json:"confirmed"`
	Cancelled    int     `json:"cancelled"`
	NoShows      int     `json:"no_shows"`
	CheckedIn    int     `json:"checked_in"`
	CheckinRate  float64 `json:"checkin_rate"`
}

type roomUsageResponse struct {
	Rooms []roomUsageDTO `json:"rooms"`
}
