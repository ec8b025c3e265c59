package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

// CheckinStore captures the persistence interactions of the check-in flow.
type CheckinStore interface {
	GetReservation(ctx context.Context, id string) (booking.ReservationRecord, error)
	FetchConfirmedReservations(ctx context.Context, date booking.Date, roomID *string) ([]booking.ReservationRecord, error)
	MarkCheckedIn(ctx context.Context, id string, at time.Time) error
	MarkNoShow(ctx context.Context, id string) error
	CreateCheckinCode(ctx context.Context, code CheckinCode) error
	GetLatestCheckinCode(ctx context.Context, reservationID string) (CheckinCode, error)
	MarkCheckinCodeUsed(ctx context.Context, id string, at time.Time) error
}

// CheckinServiceOptions configures CheckinService.
type CheckinServiceOptions struct {
	// Window is how long before and after the start a check-in is accepted.
	Window        time.Duration
	CodeTTL       time.Duration
	Location      *time.Location
	HashParams    Argon2idParams
	CodeGenerator func() (string, error)
	Events        EventPublisher
	OnChange      func()
	Logger        *slog.Logger
}

// CheckinService issues and redeems check-in codes and records no-shows.
type CheckinService struct {
	store       CheckinStore
	idGenerator func() string
	now         func() time.Time
	opts        CheckinServiceOptions
	logger      *slog.Logger
}

// NewCheckinService constructs a CheckinService.
func NewCheckinService(store CheckinStore, idGenerator func() string, now func() time.Time, opts CheckinServiceOptions) *CheckinService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if opts.Window <= 0 {
		opts.Window = 15 * time.Minute
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 2 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HashParams.KeyLength == 0 {
		opts.HashParams = DefaultArgon2idParams
	}
	if opts.CodeGenerator == nil {
		opts.CodeGenerator = GenerateCheckinCode
	}
	if opts.Events == nil {
		opts.Events = NoopPublisher{}
	}
	if opts.OnChange == nil {
		opts.OnChange = func() {}
	}
	return &CheckinService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		opts:        opts,
		logger:      defaultLogger(opts.Logger),
	}
}

func (s *CheckinService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CheckinService", operation, attrs...)
}

// window returns the interval in which record accepts a check-in.
func (s *CheckinService) window(record booking.ReservationRecord) (time.Time, time.Time) {
	start := record.Date.At(record.Block.Start, s.opts.Location)
	return start.Add(-s.opts.Window), start.Add(s.opts.Window)
}

// run returns the records of the consecutive booking record belongs to, in
// block order. A booking made of adjacent hourly records checks in once.
func (s *CheckinService) run(ctx context.Context, record booking.ReservationRecord) ([]booking.ReservationRecord, error) {
	roomID := record.RoomID
	day, err := s.store.FetchConfirmedReservations(ctx, record.Date, &roomID)
	if err != nil {
		return nil, mapFacadeError("fetch confirmed reservations", err)
	}
	if entry, ok := booking.RunContaining(record.ID, day); ok {
		return entry.Records, nil
	}
	return []booking.ReservationRecord{record}, nil
}

func (s *CheckinService) loadOwned(ctx context.Context, principal Principal, reservationID string) (booking.ReservationRecord, error) {
	if !principal.Authenticated() {
		return booking.ReservationRecord{}, ErrNotAuthenticated
	}
	if strings.TrimSpace(reservationID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", "reservation id is required")
		return booking.ReservationRecord{}, vErr
	}
	record, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return booking.ReservationRecord{}, mapFacadeError("get reservation", err)
	}
	if !record.Confirmed() {
		return booking.ReservationRecord{}, ErrNotFound
	}
	if !booking.CanCancelOwn(principal.Role, record.OwnerUserID == principal.UserID) {
		return booking.ReservationRecord{}, ErrPermissionDenied
	}
	if record.CheckedIn {
		return booking.ReservationRecord{}, ErrAlreadyCheckedIn
	}
	return record, nil
}

// IssueCode generates a single-use check-in code for a reservation. The
// plaintext is returned only here; the store keeps its hash.
func (s *CheckinService) IssueCode(ctx context.Context, params IssueCodeParams) (issued IssuedCode, err error) {
	if s == nil {
		err = fmt.Errorf("CheckinService is nil")
		return
	}

	logger := s.loggerWith(ctx, "IssueCode",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue check-in code", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "check-in code issued", "expires_at", issued.ExpiresAt)
	}()

	record, err := s.loadOwned(ctx, params.Principal, params.ReservationID)
	if err != nil {
		return
	}

	code, err := s.opts.CodeGenerator()
	if err != nil {
		err = fmt.Errorf("generate check-in code: %w", err)
		return
	}
	hash, err := HashCheckinCode(code, s.opts.HashParams)
	if err != nil {
		err = fmt.Errorf("hash check-in code: %w", err)
		return
	}

	now := s.now().UTC()
	stored := CheckinCode{
		ID:            s.idGenerator(),
		ReservationID: record.ID,
		CodeHash:      hash,
		ExpiresAt:     now.Add(s.opts.CodeTTL),
		CreatedAt:     now,
	}
	if createErr := s.store.CreateCheckinCode(ctx, stored); createErr != nil {
		err = mapFacadeError("create check-in code", createErr)
		return
	}

	return IssuedCode{ReservationID: record.ID, Code: code, ExpiresAt: stored.ExpiresAt}, nil
}

// CheckIn redeems a code inside the reservation's check-in window.
func (s *CheckinService) CheckIn(ctx context.Context, params CheckInParams) (record booking.ReservationRecord, err error) {
	if s == nil {
		err = fmt.Errorf("CheckinService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckIn",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "check-in rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "checked in")
	}()

	record, err = s.loadOwned(ctx, params.Principal, params.ReservationID)
	if err != nil {
		return
	}

	members, err := s.run(ctx, record)
	if err != nil {
		return
	}

	now := s.now()
	opens, closes := s.window(members[0])
	if now.Before(opens) || now.After(closes) {
		err = ErrCheckinWindowClosed
		return
	}

	code, codeErr := s.store.GetLatestCheckinCode(ctx, record.ID)
	if codeErr != nil {
		if errors.Is(codeErr, persistence.ErrNotFound) || errors.Is(codeErr, ErrNotFound) {
			err = ErrCodeInvalid
			return
		}
		err = mapFacadeError("get check-in code", codeErr)
		return
	}
	switch {
	case code.UsedAt != nil:
		err = ErrCodeUsed
		return
	case now.After(code.ExpiresAt):
		err = ErrCodeExpired
		return
	}
	if verifyErr := VerifyCheckinCode(code.CodeHash, params.Code); verifyErr != nil {
		if errors.Is(verifyErr, ErrCodeInvalid) {
			err = ErrCodeInvalid
			return
		}
		err = fmt.Errorf("verify check-in code: %w", verifyErr)
		return
	}

	// The code is burned only once the whole run is checked in.
	at := now.UTC()
	checked := make([]booking.ReservationRecord, 0, len(members))
	for _, m := range members {
		if !m.CheckedIn {
			if markErr := s.store.MarkCheckedIn(ctx, m.ID, at); markErr != nil {
				err = mapFacadeError("mark checked in", markErr)
				return
			}
		}
		m.CheckedIn = true
		m.CheckedInAt = &at
		checked = append(checked, m)
		if m.ID == record.ID {
			record = m
		}
	}
	if markErr := s.store.MarkCheckinCodeUsed(ctx, code.ID, at); markErr != nil {
		err = mapFacadeError("mark code used", markErr)
		return
	}

	s.opts.OnChange()
	event := newReservationEvent(params.Principal, checked)
	event.OccurredAt = at
	if pubErr := s.opts.Events.Publish(ctx, EventReservationCheckedIn, event); pubErr != nil {
		logger.WarnContext(ctx, "failed to publish event", "error", pubErr)
	}
	return record, nil
}

// MarkNoShows flags confirmed reservations on day whose check-in window has
// closed without a check-in. Each record is updated independently.
func (s *CheckinService) MarkNoShows(ctx context.Context, day booking.Date) (result CancelResult, err error) {
	if s == nil {
		err = fmt.Errorf("CheckinService is nil")
		return
	}

	logger := s.loggerWith(ctx, "MarkNoShows", "date", day.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark no-shows", "error", err, "error_kind", ErrorKind(err),
				"succeeded", result.Succeeded, "failed", result.Failed)
			return
		}
		logger.InfoContext(ctx, "no-shows marked", "count", result.Succeeded)
	}()

	records, fetchErr := s.store.FetchConfirmedReservations(ctx, day, nil)
	if fetchErr != nil {
		err = mapFacadeError("fetch confirmed reservations", fetchErr)
		return
	}

	// A consecutive booking is judged as one: a check-in on any of its
	// records covers the rest, and the window is the one of its first block.
	now := s.now()
	var errs []error
	for _, e := range booking.Consolidate(records) {
		if anyCheckedIn(e.Records) {
			continue
		}
		if _, closes := s.window(e.First()); !now.After(closes) {
			continue
		}
		for _, r := range e.Records {
			if markErr := s.store.MarkNoShow(ctx, r.ID); markErr != nil {
				result.Failed++
				errs = append(errs, fmt.Errorf("mark %s: %w", r.ID, markErr))
				continue
			}
			result.Succeeded++
		}
	}

	if result.Succeeded > 0 {
		s.opts.OnChange()
	}
	if result.Failed > 0 {
		err = &PartialFailureError{Succeeded: result.Succeeded, Failed: result.Failed, Errs: errs}
	}
	return
}

func anyCheckedIn(records []booking.ReservationRecord) bool {
	for _, r := range records {
		if r.CheckedIn {
			return true
		}
	}
	return false
}
