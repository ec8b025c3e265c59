package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

type checkinService interface {
	IssueCode(ctx context.Context, params application.IssueCodeParams) (application.IssuedCode, error)
	CheckIn(ctx context.Context, params application.CheckInParams) (booking.ReservationRecord, error)
}

type CheckinHandler struct {
	service   checkinService
	responder responder
	logger    *slog.Logger
}

func NewCheckinHandler(service checkinService, logger *slog.Logger) *CheckinHandler {
	base := defaultLogger(logger)
	return &CheckinHandler{service: service, responder: newResponder(base), logger: base}
}

// IssueCode returns a fresh check-in code. The plaintext is only ever sent here.
func (h *CheckinHandler) IssueCode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	issued, err := h.service.IssueCode(r.Context(), application.IssueCodeParams{Principal: principal, ReservationID: id})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, issuedCodeResponse{
		ReservationID: issued.ReservationID,
		Code:          issued.Code,
		ExpiresAt:     issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// CheckIn redeems a check-in code.
func (h *CheckinHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger(r.Context(), h.logger, "CheckinHandler", "CheckIn", "reservation_id", id, "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode check-in request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	record, err := h.service.CheckIn(r.Context(), application.CheckInParams{
		Principal:     principal,
		ReservationID: id,
		Code:          req.Code,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toRecordDTO(record)})
}

type checkInRequest struct {
	Code string `json:"code"`
}

type issuedCodeResponse struct {
	ReservationID string `json:"reservation_id"`
	Code          string `json:"code"`
	ExpiresAt     string `json:"expires_at"`
}

type reservationResponse struct {
	Reservation recordDTO `json:"reservation"`
}
