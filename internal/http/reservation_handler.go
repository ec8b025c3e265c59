package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

type reservationService interface {
	GetGroupedReservationsForDay(ctx context.Context, params application.DayParams) ([]application.AnnotatedEntry, error)
	GetReservationsForRange(ctx context.Context, params application.RangeParams) ([]application.AnnotatedEntry, booking.DateRange, error)
	GetAvailabilityGrid(ctx context.Context, params application.GridParams) (booking.Availability, error)
	CancelGroupOrRecord(ctx context.Context, params application.CancelParams) (application.CancelResult, error)
	ExpandGroup(ctx context.Context, params application.ExpandParams) ([]booking.ReservationRecord, error)
	CancelBlocks(ctx context.Context, params application.CancelBlocksParams) (application.CancelResult, error)
	CreateReservation(ctx context.Context, params application.CreateReservationParams) ([]booking.ReservationRecord, error)
	Today() booking.Date
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// Day serves the shared consolidated view of one day.
func (h *ReservationHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	date, err := parseOptionalDate(query.Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	if date.IsZero() {
		date = h.service.Today()
	}
	params := application.DayParams{Principal: principal, Date: date}
	if roomID := strings.TrimSpace(query.Get("room_id")); roomID != "" {
		params.RoomID = &roomID
	}

	entries, err := h.service.GetGroupedReservationsForDay(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dayResponse{
		Date:    date.String(),
		Entries: toEntryDTOs(entries),
	})
}

// Mine serves the caller's own reservations in a named range.
func (h *ReservationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rangeName := booking.ParseRangeName(r.URL.Query().Get("range"))

	entries, window, err := h.service.GetReservationsForRange(r.Context(), application.RangeParams{
		Principal: principal,
		Range:     rangeName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rangeResponse{
		Range:   string(rangeName),
		Start:   window.Start.String(),
		End:     window.End.String(),
		Entries: toEntryDTOs(entries),
	})
}

// Availability serves the slot grid of one room on one day.
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.PathValue("id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	date, err := parseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	if date.IsZero() {
		date = h.service.Today()
	}

	principal, _ := PrincipalFromContext(r.Context())
	availability, err := h.service.GetAvailabilityGrid(r.Context(), application.GridParams{
		Principal: principal,
		Date:      date,
		RoomID:    roomID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityResponse(roomID, date, availability))
}

// Create books the selected slots.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "invalid reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	records, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationsResponse{Reservations: toRecordDTOs(records)})
}

// Expand serves the records of a group for editing.
func (h *ReservationHandler) Expand(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ref, err := entryRefFromRequest(r, booking.EntryGrouped)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	records, err := h.service.ExpandGroup(r.Context(), application.ExpandParams{
		Principal: principal,
		Target:    ref,
		Scope:     parseScope(r.URL.Query().Get("view")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationsResponse{Reservations: toRecordDTOs(records)})
}

// Cancel cancels a single record or every record of a group.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ref, err := entryRefFromRequest(r, booking.EntrySingle)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.CancelGroupOrRecord(r.Context(), application.CancelParams{
		Principal: principal,
		Target:    ref,
		Scope:     parseScope(r.URL.Query().Get("view")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, cancelResponse{Succeeded: result.Succeeded, Failed: result.Failed})
}

// CancelBlocks cancels selected blocks of a group.
func (h *ReservationHandler) CancelBlocks(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, _ := booking.ParseEntryID(strings.TrimSpace(r.PathValue("id")))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req cancelBlocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CancelBlocks", "principal_id", principal.UserID, "reservation_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode cancel-blocks request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	span, err := parseOptionalSpan(req.Start, req.End)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBlock)
		return
	}
	blocks, err := parseBlocks(req.Blocks)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBlock)
		return
	}

	result, err := h.service.CancelBlocks(r.Context(), application.CancelBlocksParams{
		Principal: principal,
		Target:    application.EntryRef{Kind: booking.EntryGrouped, ReservationID: id, Span: span},
		Scope:     parseScope(req.View),
		Blocks:    blocks,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, cancelResponse{Succeeded: result.Succeeded, Failed: result.Failed})
}

var (
	errInvalidDate  = errors.New("La fecha debe tener el formato AAAA-MM-DD.")
	errInvalidBlock = errors.New("Los bloques deben tener el formato HH:MM.")
)

func parseOptionalDate(value string) (booking.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return booking.Date{}, nil
	}
	return booking.ParseDate(value)
}

func parseOptionalSpan(start, end string) (*booking.TimeBlock, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	block, err := booking.ParseTimeBlock(start, end)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func parseBlocks(in []blockDTO) ([]booking.TimeBlock, error) {
	out := make([]booking.TimeBlock, 0, len(in))
	for _, b := range in {
		block, err := booking.ParseTimeBlock(b.Start, b.End)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	return out, nil
}

func parseScope(value string) application.CancelScope {
	if strings.EqualFold(strings.TrimSpace(value), string(application.ScopePersonal)) {
		return application.ScopePersonal
	}
	return application.ScopeDay
}

func parseKind(value string, fallback booking.EntryKind) booking.EntryKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "grouped", "group":
		return booking.EntryGrouped
	case "single":
		return booking.EntrySingle
	default:
		return fallback
	}
}

// entryRefFromRequest reads the entry reference from the path id and the
// kind, start and end query parameters. A grouped display id selects the group.
func entryRefFromRequest(r *http.Request, fallback booking.EntryKind) (application.EntryRef, error) {
	id, kind := booking.ParseEntryID(strings.TrimSpace(r.PathValue("id")))
	if id == "" {
		return application.EntryRef{}, errInvalidReservation
	}
	if kind == booking.EntryGrouped {
		fallback = booking.EntryGrouped
	}
	query := r.URL.Query()
	span, err := parseOptionalSpan(query.Get("start"), query.Get("end"))
	if err != nil {
		return application.EntryRef{}, errInvalidBlock
	}
	return application.EntryRef{
		Kind:          parseKind(query.Get("kind"), fallback),
		ReservationID: id,
		Span:          span,
	}, nil
}

type blockDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type recurrenceRequest struct {
	Frequency string `json:"frequency"`
	Weekdays  []int  `json:"weekdays"`
	Until     string `json:"until"`
}

type createReservationRequest struct {
	RoomID          string             `json:"room_id"`
	Date            string             `json:"date"`
	Slots           []blockDTO         `json:"slots"`
	Purpose         string             `json:"purpose"`
	ResponsibleName *string            `json:"responsible_name"`
	Recurrence      *recurrenceRequest `json:"recurrence,omitempty"`
}

func (r createReservationRequest) toInput() (application.ReservationInput, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return application.ReservationInput{}, err
	}
	slots, err := parseBlocks(r.Slots)
	if err != nil {
		return application.ReservationInput{}, err
	}
	var responsible *string
	if r.ResponsibleName != nil {
		if trimmed := strings.TrimSpace(*r.ResponsibleName); trimmed != "" {
			responsible = &trimmed
		}
	}

	input := application.ReservationInput{
		RoomID:          strings.TrimSpace(r.RoomID),
		Date:            date,
		Slots:           slots,
		Purpose:         r.Purpose,
		ResponsibleName: responsible,
	}
	if r.Recurrence != nil {
		until, err := parseOptionalDate(r.Recurrence.Until)
		if err != nil {
			return application.ReservationInput{}, err
		}
		input.Recurrence = booking.Recurrence{
			Frequency: booking.Frequency(strings.ToLower(strings.TrimSpace(r.Recurrence.Frequency))),
			Until:     until,
		}
		for _, wd := range r.Recurrence.Weekdays {
			if wd < int(time.Sunday) || wd > int(time.Saturday) {
				return application.ReservationInput{}, errors.New("weekday out of range")
			}
			input.Recurrence.Weekdays = append(input.Recurrence.Weekdays, time.Weekday(wd))
		}
	}
	return input, nil
}

type cancelBlocksRequest struct {
	Start  string     `json:"start"`
	End    string     `json:"end"`
	View   string     `json:"view"`
	Blocks []blockDTO `json:"blocks"`
}

type cancelResponse struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type dayResponse struct {
	Date    string     `json:"date"`
	Entries []entryDTO `json:"entries"`
}

type rangeResponse struct {
	Range   string     `json:"range"`
	Start   string     `json:"start"`
	End     string     `json:"end"`
	Entries []entryDTO `json:"entries"`
}

type reservationsResponse struct {
	Reservations []recordDTO `json:"reservations"`
}

type entryDTO struct {
	ID              string   `json:"id"`
	Kind            string   `json:"kind"`
	Date            string   `json:"date"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	RoomID          string   `json:"room_id"`
	RoomName        string   `json:"room_name"`
	BuildingName    string   `json:"building_name"`
	Purpose         string   `json:"purpose"`
	OwnerUserID     string   `json:"owner_user_id"`
	OwnerName       string   `json:"owner_name"`
	OwnerArea       *string  `json:"owner_area,omitempty"`
	ResponsibleName *string  `json:"responsible_name,omitempty"`
	RecordIDs       []string `json:"record_ids"`
	CanCancel       bool     `json:"can_cancel"`
	CanEdit         bool     `json:"can_edit"`
}

func toEntryDTOs(entries []application.AnnotatedEntry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		first := e.Entry.First()
		block := e.Entry.Block()
		out = append(out, entryDTO{
			ID:              e.Entry.ID(),
			Kind:            e.Entry.Kind.String(),
			Date:            first.Date.String(),
			Start:           block.Start.String(),
			End:             block.End.String(),
			RoomID:          first.RoomID,
			RoomName:        first.RoomName,
			BuildingName:    first.BuildingName,
			Purpose:         e.Entry.Purpose(),
			OwnerUserID:     first.OwnerUserID,
			OwnerName:       first.OwnerName,
			OwnerArea:       first.OwnerArea,
			ResponsibleName: first.ResponsibleName,
			RecordIDs:       e.Entry.RecordIDs(),
			CanCancel:       e.Permissions.CanCancel,
			CanEdit:         e.Permissions.CanEdit,
		})
	}
	return out
}

type recordDTO struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	RoomID          string  `json:"room_id"`
	RoomName        string  `json:"room_name"`
	BuildingName    string  `json:"building_name"`
	Purpose         string  `json:"purpose"`
	Status          string  `json:"status"`
	OwnerUserID     string  `json:"owner_user_id"`
	OwnerName       string  `json:"owner_name"`
	ResponsibleName *string `json:"responsible_name,omitempty"`
	CheckedIn       bool    `json:"checked_in"`
	CheckedInAt     string  `json:"checked_in_at,omitempty"`
}

func toRecordDTO(r booking.ReservationRecord) recordDTO {
	dto := recordDTO{
		ID:              r.ID,
		Date:            r.Date.String(),
		Start:           r.Block.Start.String(),
		End:             r.Block.End.String(),
		RoomID:          r.RoomID,
		RoomName:        r.RoomName,
		BuildingName:    r.BuildingName,
		Purpose:         r.Purpose,
		Status:          string(r.Status),
		OwnerUserID:     r.OwnerUserID,
		OwnerName:       r.OwnerName,
		ResponsibleName: r.ResponsibleName,
		CheckedIn:       r.CheckedIn,
	}
	if r.CheckedInAt != nil {
		dto.CheckedInAt = r.CheckedInAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toRecordDTOs(records []booking.ReservationRecord) []recordDTO {
	out := make([]recordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordDTO(r))
	}
	return out
}

type slotDTO struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	State         string `json:"state"`
	ReservationID string `json:"reservation_id,omitempty"`
	OwnerName     string `json:"owner_name,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
}

type availabilityResponse struct {
	RoomID    string    `json:"room_id"`
	Date      string    `json:"date"`
	Available int       `json:"available"`
	Slots     []slotDTO `json:"slots"`
}

func toAvailabilityResponse(roomID string, date booking.Date, availability booking.Availability) availabilityResponse {
	resp := availabilityResponse{
		RoomID:    roomID,
		Date:      date.String(),
		Available: availability.Count(booking.SlotAvailable),
	}
	for _, s := range availability.Slots() {
		dto := slotDTO{Start: s.Block.Start.String(), End: s.Block.End.String(), State: string(s.State)}
		if s.Record != nil {
			dto.ReservationID = s.Record.ID
			dto.OwnerName = s.Record.OwnerName
			dto.Purpose = s.Record.Purpose
		}
		resp.Slots = append(resp.Slots, dto)
	}
	return resp
}
