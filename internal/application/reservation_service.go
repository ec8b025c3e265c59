package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

const maxPurposeLength = 500

// ReservationFacade is the store of reservation records. It is the only
// source of truth; the service never keeps records between calls.
type ReservationFacade interface {
	FetchConfirmedReservations(ctx context.Context, date booking.Date, roomID *string) ([]booking.ReservationRecord, error)
	FetchConfirmedReservationsRange(ctx context.Context, start, end booking.Date, ownerUserID *string) ([]booking.ReservationRecord, error)
	GetReservation(ctx context.Context, id string) (booking.ReservationRecord, error)
	CancelReservation(ctx context.Context, id string) error
	CreateReservations(ctx context.Context, records []booking.ReservationRecord) error
}

// RoomCatalog looks up rooms referenced by bookings.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// ReservationServiceOptions carries the optional collaborators of ReservationService.
type ReservationServiceOptions struct {
	Grid     booking.Grid
	Location *time.Location
	Events   EventPublisher
	// OnChange runs after any mutation that reached the store.
	OnChange func()
	Logger   *slog.Logger
}

// ReservationService builds the day, personal and availability views and
// applies cancellations and bookings through the facade.
type ReservationService struct {
	facade      ReservationFacade
	rooms       RoomCatalog
	idGenerator func() string
	now         func() time.Time
	grid        booking.Grid
	location    *time.Location
	events      EventPublisher
	onChange    func()
	logger      *slog.Logger
}

// NewReservationService constructs a ReservationService.
func NewReservationService(facade ReservationFacade, rooms RoomCatalog, idGenerator func() string, now func() time.Time, opts ReservationServiceOptions) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if opts.Grid.Len() == 0 {
		opts.Grid = booking.DefaultGrid()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Events == nil {
		opts.Events = NoopPublisher{}
	}
	if opts.OnChange == nil {
		opts.OnChange = func() {}
	}
	return &ReservationService{
		facade:      facade,
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		grid:        opts.Grid,
		location:    opts.Location,
		events:      opts.Events,
		onChange:    opts.OnChange,
		logger:      defaultLogger(opts.Logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Grid returns the slot grid offered for booking.
func (s *ReservationService) Grid() booking.Grid {
	return s.grid
}

func (s *ReservationService) today() booking.Date {
	return booking.DateOf(s.now().In(s.location))
}

// Today is the current calendar day in the service's time zone.
func (s *ReservationService) Today() booking.Date {
	return s.today()
}

// ended reports whether the block has finished at now.
func (s *ReservationService) ended(date booking.Date, block booking.TimeBlock) bool {
	return !s.now().Before(date.At(block.End, s.location))
}

// pending drops the records whose block has already finished.
func (s *ReservationService) pending(records []booking.ReservationRecord) []booking.ReservationRecord {
	out := make([]booking.ReservationRecord, 0, len(records))
	for _, r := range records {
		if !s.ended(r.Date, r.Block) {
			out = append(out, r)
		}
	}
	return out
}

// GetGroupedReservationsForDay returns the consolidated day view annotated
// with what the principal may do with each entry.
func (s *ReservationService) GetGroupedReservationsForDay(ctx context.Context, params DayParams) (entries []AnnotatedEntry, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetGroupedReservationsForDay",
		"principal_id", params.Principal.UserID,
		"date", params.Date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load day view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !params.Principal.Authenticated() {
		err = ErrNotAuthenticated
		return
	}
	if params.Date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	records, fetchErr := s.facade.FetchConfirmedReservations(ctx, params.Date, params.RoomID)
	if fetchErr != nil {
		err = mapFacadeError("fetch confirmed reservations", fetchErr)
		return
	}

	role := params.Principal.Role
	for _, e := range booking.Consolidate(records) {
		isOwn := e.First().OwnerUserID == params.Principal.UserID
		canCancel := !s.ended(e.Last().Date, e.Last().Block) && booking.CanCancel(role, isOwn)
		entries = append(entries, AnnotatedEntry{
			Entry: e,
			Permissions: booking.Permissions{
				CanCancel: canCancel,
				CanEdit:   e.Grouped() && canCancel && booking.CanEditGrouped(role),
			},
		})
	}
	return entries, nil
}

// GetReservationsForRange returns the principal's own consolidated
// reservations within a named range relative to today.
func (s *ReservationService) GetReservationsForRange(ctx context.Context, params RangeParams) (entries []AnnotatedEntry, window booking.DateRange, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetReservationsForRange",
		"principal_id", params.Principal.UserID,
		"range", string(params.Range),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load personal view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !params.Principal.Authenticated() {
		err = ErrNotAuthenticated
		return
	}

	today := s.today()
	window = booking.ResolveRange(params.Range, today)
	owner := params.Principal.UserID
	records, fetchErr := s.facade.FetchConfirmedReservationsRange(ctx, window.Start, window.End, &owner)
	if fetchErr != nil {
		err = mapFacadeError("fetch reservations range", fetchErr)
		return
	}

	role := params.Principal.Role
	for _, e := range booking.Consolidate(records) {
		isOwn := e.First().OwnerUserID == owner
		canCancel := !s.ended(e.Last().Date, e.Last().Block) && booking.CanCancelOwn(role, isOwn)
		entries = append(entries, AnnotatedEntry{
			Entry: e,
			Permissions: booking.Permissions{
				CanCancel: canCancel,
				CanEdit:   e.Grouped() && canCancel,
			},
		})
	}
	return entries, window, nil
}

// GetAvailabilityGrid maps one room's confirmed bookings onto the slot grid.
func (s *ReservationService) GetAvailabilityGrid(ctx context.Context, params GridParams) (availability booking.Availability, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetAvailabilityGrid",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute availability", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !params.Principal.Authenticated() {
		err = ErrNotAuthenticated
		return
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(params.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	roomID := params.RoomID
	records, fetchErr := s.facade.FetchConfirmedReservations(ctx, params.Date, &roomID)
	if fetchErr != nil {
		err = mapFacadeError("fetch confirmed reservations", fetchErr)
		return
	}
	return booking.ComputeAvailability(s.grid, records, roomID, params.Principal.UserID), nil
}

// CancelGroupOrRecord cancels a single record, or every record of a group.
//
// Group members are recovered from the store rather than from any earlier
// view, and each is cancelled independently. There is no rollback: when only
// some cancels succeed the counts are returned together with a
// *PartialFailureError, and callers must reload from the store.
func (s *ReservationService) CancelGroupOrRecord(ctx context.Context, params CancelParams) (result CancelResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelGroupOrRecord",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.Target.ReservationID,
		"kind", params.Target.Kind.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err),
				"succeeded", result.Succeeded, "failed", result.Failed)
			return
		}
		logger.InfoContext(ctx, "reservation cancelled", "succeeded", result.Succeeded)
	}()

	allow := booking.CanCancel
	if params.Scope == ScopePersonal {
		allow = booking.CanCancelOwn
	}
	anchor, err := s.authorizeTarget(ctx, params.Principal, params.Target, allow)
	if err != nil {
		return
	}

	targets := []booking.ReservationRecord{anchor}
	if params.Target.Kind == booking.EntryGrouped {
		targets, err = s.members(ctx, anchor, params.Target.Span)
		if err != nil {
			return
		}
		if targets = s.pending(targets); len(targets) == 0 {
			err = ErrReservationEnded
			return
		}
	}

	result, err = s.cancelAll(ctx, params.Principal, targets)
	return
}

// ExpandGroup returns the independently cancellable records of a group.
func (s *ReservationService) ExpandGroup(ctx context.Context, params ExpandParams) (records []booking.ReservationRecord, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ExpandGroup",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.Target.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to expand group", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	anchor, err := s.authorizeTarget(ctx, params.Principal, params.Target, editPolicy(params.Scope))
	if err != nil {
		return
	}
	return s.expand(ctx, anchor, params.Target.Span)
}

// CancelBlocks cancels the selected blocks of a group and leaves the rest booked.
func (s *ReservationService) CancelBlocks(ctx context.Context, params CancelBlocksParams) (result CancelResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelBlocks",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.Target.ReservationID,
		"blocks", len(params.Blocks),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel blocks", "error", err, "error_kind", ErrorKind(err),
				"succeeded", result.Succeeded, "failed", result.Failed)
			return
		}
		logger.InfoContext(ctx, "blocks cancelled", "succeeded", result.Succeeded)
	}()

	if len(params.Blocks) == 0 {
		vErr := &ValidationError{}
		vErr.add("blocks", "select at least one block")
		err = vErr
		return
	}

	anchor, err := s.authorizeTarget(ctx, params.Principal, params.Target, editPolicy(params.Scope))
	if err != nil {
		return
	}
	units, err := s.expand(ctx, anchor, params.Target.Span)
	if err != nil {
		return
	}

	byBlock := make(map[booking.TimeBlock]booking.ReservationRecord, len(units))
	for _, u := range units {
		byBlock[u.Block] = u
	}
	vErr := &ValidationError{}
	targets := make([]booking.ReservationRecord, 0, len(params.Blocks))
	seen := make(map[booking.TimeBlock]bool, len(params.Blocks))
	for _, b := range params.Blocks {
		u, ok := byBlock[b]
		if !ok {
			vErr.add("blocks", fmt.Sprintf("block %s is not part of the reservation", b))
			continue
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		if s.ended(u.Date, u.Block) {
			err = ErrReservationEnded
			return
		}
		targets = append(targets, u)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	result, err = s.cancelAll(ctx, params.Principal, targets)
	return
}

// editPolicy returns the check for removing blocks from a group in scope.
// In the personal view any known role edits its own bookings.
func editPolicy(scope CancelScope) func(booking.Role, bool) bool {
	if scope == ScopePersonal {
		return booking.CanCancelOwn
	}
	return func(role booking.Role, isOwn bool) bool {
		return booking.CanEditGrouped(role) && booking.CanCancel(role, isOwn)
	}
}

// authorizeTarget loads the referenced record and checks allow before any mutation.
func (s *ReservationService) authorizeTarget(ctx context.Context, principal Principal, ref EntryRef, allow func(booking.Role, bool) bool) (booking.ReservationRecord, error) {
	if !principal.Authenticated() {
		return booking.ReservationRecord{}, ErrNotAuthenticated
	}
	if strings.TrimSpace(ref.ReservationID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", "reservation id is required")
		return booking.ReservationRecord{}, vErr
	}

	anchor, err := s.facade.GetReservation(ctx, ref.ReservationID)
	if err != nil {
		return booking.ReservationRecord{}, mapFacadeError("get reservation", err)
	}
	if !anchor.Confirmed() {
		return booking.ReservationRecord{}, ErrNotFound
	}
	if !allow(principal.Role, anchor.OwnerUserID == principal.UserID) {
		return booking.ReservationRecord{}, ErrPermissionDenied
	}
	if ref.Span != nil && !ref.Span.Contains(anchor.Block) {
		vErr := &ValidationError{}
		vErr.add("span", "the reservation lies outside the requested span")
		return booking.ReservationRecord{}, vErr
	}
	// A group stays open until its last block ends; a single record until its own.
	last := anchor.Block
	if ref.Kind == booking.EntryGrouped && ref.Span != nil {
		last = *ref.Span
	}
	if ref.Kind != booking.EntryGrouped || ref.Span != nil {
		if s.ended(anchor.Date, last) {
			return booking.ReservationRecord{}, ErrReservationEnded
		}
	}
	return anchor, nil
}

// expand returns one record per block of the run the anchor belongs to.
func (s *ReservationService) expand(ctx context.Context, anchor booking.ReservationRecord, span *booking.TimeBlock) ([]booking.ReservationRecord, error) {
	members, err := s.members(ctx, anchor, span)
	if err != nil {
		return nil, err
	}
	return booking.UniqueBlocks(members), nil
}

// members re-reads the anchor owner's bookings for the day and recovers every
// record of the run the anchor belongs to. Without a span the run is
// recomputed from the fresh records.
func (s *ReservationService) members(ctx context.Context, anchor booking.ReservationRecord, span *booking.TimeBlock) ([]booking.ReservationRecord, error) {
	owner := anchor.OwnerUserID
	candidates, err := s.facade.FetchConfirmedReservationsRange(ctx, anchor.Date, anchor.Date, &owner)
	if err != nil {
		return nil, mapFacadeError("fetch reservations range", err)
	}

	var bounds booking.TimeBlock
	if span != nil {
		bounds = *span
	} else {
		run, ok := booking.RunContaining(anchor.ID, candidates)
		if !ok {
			return nil, ErrNotFound
		}
		bounds = run.Block()
	}

	members := booking.Members(anchor, bounds, candidates)
	if len(members) == 0 {
		return nil, ErrNotFound
	}
	return members, nil
}

func (s *ReservationService) cancelAll(ctx context.Context, principal Principal, targets []booking.ReservationRecord) (CancelResult, error) {
	var (
		result    CancelResult
		errs      []error
		cancelled []booking.ReservationRecord
	)
	for _, t := range targets {
		if err := s.facade.CancelReservation(ctx, t.ID); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("cancel %s: %w", t.ID, err))
			continue
		}
		result.Succeeded++
		cancelled = append(cancelled, t)
	}

	if result.Succeeded > 0 {
		s.onChange()
		s.publish(ctx, EventReservationCancelled, newReservationEvent(principal, cancelled))
	}

	switch {
	case result.Failed == 0:
		return result, nil
	case result.Succeeded == 0:
		return result, mapFacadeError("cancel reservation", errors.Unwrap(errs[0]))
	default:
		return result, &PartialFailureError{Succeeded: result.Succeeded, Failed: result.Failed, Errs: errs}
	}
}

// CreateReservation books one confirmed record per selected slot on the
// requested date and on every recurrence date.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (records []booking.ReservationRecord, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
		"date", params.Input.Date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation created", "records", len(records))
	}()

	if !params.Principal.Authenticated() {
		err = ErrNotAuthenticated
		return
	}
	if !booking.CanCreate(params.Principal.Role) {
		err = ErrPermissionDenied
		return
	}

	input := params.Input
	input.Purpose = strings.TrimSpace(input.Purpose)
	dates, vErr := s.validateReservationInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room, roomErr := s.rooms.GetRoom(ctx, input.RoomID)
	if roomErr != nil {
		err = mapFacadeError("get room", roomErr)
		return
	}
	if !room.Active {
		vErr := &ValidationError{}
		vErr.add("room_id", "room is not available for booking")
		err = vErr
		return
	}

	slots := sortedSlots(input.Slots)
	for _, date := range dates {
		roomID := room.ID
		existing, fetchErr := s.facade.FetchConfirmedReservations(ctx, date, &roomID)
		if fetchErr != nil {
			err = mapFacadeError("fetch confirmed reservations", fetchErr)
			return
		}
		for _, slot := range slots {
			record := booking.ReservationRecord{
				ID:              s.idGenerator(),
				Date:            date,
				Block:           slot,
				RoomID:          room.ID,
				RoomName:        room.Name,
				BuildingName:    room.BuildingName,
				Purpose:         input.Purpose,
				Status:          booking.StatusConfirmed,
				OwnerUserID:     params.Principal.UserID,
				OwnerName:       params.Principal.Name,
				ResponsibleName: cloneString(input.ResponsibleName),
			}
			if conflicts := booking.DetectConflicts(existing, record); len(conflicts) > 0 {
				err = fmt.Errorf("%w: %s %s", ErrConflict, date, slot)
				records = nil
				return
			}
			records = append(records, record)
		}
	}

	if createErr := s.facade.CreateReservations(ctx, records); createErr != nil {
		err = mapFacadeError("create reservations", createErr)
		records = nil
		return
	}

	s.onChange()
	s.publish(ctx, EventReservationCreated, newReservationEvent(params.Principal, records))
	return records, nil
}

func (s *ReservationService) validateReservationInput(input ReservationInput) ([]booking.Date, *ValidationError) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	} else if input.Date.Before(s.today()) {
		vErr.add("date", "date must not be in the past")
	}
	if input.Purpose == "" {
		vErr.add("purpose", "purpose is required")
	} else if len([]rune(input.Purpose)) > maxPurposeLength {
		vErr.add("purpose", fmt.Sprintf("purpose must be at most %d characters", maxPurposeLength))
	}
	if len(input.Slots) == 0 {
		vErr.add("slots", "select at least one slot")
	}
	seen := make(map[booking.TimeBlock]bool, len(input.Slots))
	for _, slot := range input.Slots {
		if !s.grid.Has(slot) {
			vErr.add("slots", fmt.Sprintf("%s is not a bookable slot", slot))
			break
		}
		if seen[slot] {
			vErr.add("slots", fmt.Sprintf("%s selected twice", slot))
			break
		}
		seen[slot] = true
	}

	var dates []booking.Date
	if !input.Date.IsZero() {
		var err error
		dates, err = input.Recurrence.Dates(input.Date)
		if err != nil {
			vErr.add("recurrence", err.Error())
		}
	}
	return dates, vErr
}

func sortedSlots(slots []booking.TimeBlock) []booking.TimeBlock {
	out := make([]booking.TimeBlock, len(slots))
	copy(out, slots)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (s *ReservationService) publish(ctx context.Context, eventType string, payload ReservationEvent) {
	payload.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.loggerWith(ctx, "publish", "event_type", eventType).
			WarnContext(ctx, "failed to publish event", "error", err)
	}
}

func mapFacadeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrConflict
	case errors.Is(err, ErrUpstream):
		return err
	default:
		return &UpstreamError{Op: op, Err: err}
	}
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
