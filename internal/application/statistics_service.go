package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/room-reservations/internal/booking"
)

const (
	statsCacheSize = 64
	topRoomsLimit  = 3
)

// StatsSource lists reservations of every status in a date range.
type StatsSource interface {
	ListReservations(ctx context.Context, start, end booking.Date) ([]booking.ReservationRecord, error)
}

// StatisticsService aggregates usage figures for administrators. Results are
// cached briefly and dropped whenever a reservation changes.
type StatisticsService struct {
	source   StatsSource
	now      func() time.Time
	location *time.Location
	overview *expirable.LRU[string, Overview]
	usage    *expirable.LRU[string, []RoomUsage]
	logger   *slog.Logger
}

// NewStatisticsService constructs a StatisticsService. A non-positive ttl disables caching.
func NewStatisticsService(source StatsSource, now func() time.Time, location *time.Location, ttl time.Duration, logger *slog.Logger) *StatisticsService {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	s := &StatisticsService{
		source:   source,
		now:      now,
		location: location,
		logger:   defaultLogger(logger),
	}
	if ttl > 0 {
		s.overview = expirable.NewLRU[string, Overview](statsCacheSize, nil, ttl)
		s.usage = expirable.NewLRU[string, []RoomUsage](statsCacheSize, nil, ttl)
	}
	return s
}

func (s *StatisticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StatisticsService", operation, attrs...)
}

// Invalidate drops every cached figure.
func (s *StatisticsService) Invalidate() {
	if s == nil {
		return
	}
	if s.overview != nil {
		s.overview.Purge()
	}
	if s.usage != nil {
		s.usage.Purge()
	}
}

// Overview reports today's and this month's reservation counts, the month's
// no-show rate and its most used rooms.
func (s *StatisticsService) Overview(ctx context.Context, params StatsParams) (overview Overview, err error) {
	if s == nil {
		err = fmt.Errorf("StatisticsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Overview", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute overview", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = authorizeStats(params.Principal); err != nil {
		return
	}

	today := booking.DateOf(s.now().In(s.location))
	month := params.Month
	if month.IsZero() {
		month = today
	}
	key := month.FirstOfMonth().String() + "@" + today.String()
	if s.overview != nil {
		if cached, ok := s.overview.Get(key); ok {
			return cached, nil
		}
	}

	window := booking.ResolveRange(booking.RangeMonth, month)
	records, fetchErr := s.source.ListReservations(ctx, window.Start, window.End)
	if fetchErr != nil {
		err = mapFacadeError("list reservations", fetchErr)
		return
	}

	overview = summarize(records, today)
	if s.overview != nil {
		s.overview.Add(key, overview)
	}
	return overview, nil
}

// RoomUsage reports per-room counts for the month containing params.Month.
func (s *StatisticsService) RoomUsage(ctx context.Context, params StatsParams) (usage []RoomUsage, err error) {
	if s == nil {
		err = fmt.Errorf("StatisticsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RoomUsage", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute room usage", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = authorizeStats(params.Principal); err != nil {
		return
	}

	month := params.Month
	if month.IsZero() {
		month = booking.DateOf(s.now().In(s.location))
	}
	key := month.FirstOfMonth().String()
	if s.usage != nil {
		if cached, ok := s.usage.Get(key); ok {
			return cloneUsage(cached), nil
		}
	}

	window := booking.ResolveRange(booking.RangeMonth, month)
	records, fetchErr := s.source.ListReservations(ctx, window.Start, window.End)
	if fetchErr != nil {
		err = mapFacadeError("list reservations", fetchErr)
		return
	}

	usage = roomUsage(records)
	if s.usage != nil {
		s.usage.Add(key, cloneUsage(usage))
	}
	return usage, nil
}

func authorizeStats(principal Principal) error {
	if !principal.Authenticated() {
		return ErrNotAuthenticated
	}
	if !booking.CanViewStatistics(principal.Role) {
		return ErrPermissionDenied
	}
	return nil
}

// summarize counts non-cancelled bookings; the no-show rate is taken over
// every record of the month.
func summarize(records []booking.ReservationRecord, today booking.Date) Overview {
	var (
		overview Overview
		noShows  int
		byRoom   = make(map[string]*RoomCount)
	)
	for _, r := range records {
		if r.Status == booking.StatusNoShow {
			noShows++
		}
		if r.Status == booking.StatusCancelled {
			continue
		}
		overview.Month++
		if r.Date == today {
			overview.Today++
		}
		rc, ok := byRoom[r.RoomID]
		if !ok {
			rc = &RoomCount{RoomID: r.RoomID, RoomName: r.RoomName, BuildingName: r.BuildingName}
			byRoom[r.RoomID] = rc
		}
		rc.Count++
	}
	overview.NoShowRate = percentage(noShows, len(records))

	rooms := make([]RoomCount, 0, len(byRoom))
	for _, rc := range byRoom {
		rooms = append(rooms, *rc)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Count != rooms[j].Count {
			return rooms[i].Count > rooms[j].Count
		}
		return rooms[i].RoomName < rooms[j].RoomName
	})
	if len(rooms) > topRoomsLimit {
		rooms = rooms[:topRoomsLimit]
	}
	overview.TopRooms = rooms
	return overview
}

func roomUsage(records []booking.ReservationRecord) []RoomUsage {
	byRoom := make(map[string]*RoomUsage)
	for _, r := range records {
		u, ok := byRoom[r.RoomID]
		if !ok {
			u = &RoomUsage{RoomID: r.RoomID, RoomName: r.RoomName, BuildingName: r.BuildingName}
			byRoom[r.RoomID] = u
		}
		u.Total++
		switch r.Status {
		case booking.StatusConfirmed:
			u.Confirmed++
		case booking.StatusCancelled:
			u.Cancelled++
		case booking.StatusNoShow:
			u.NoShows++
		}
		if r.CheckedIn {
			u.CheckedIn++
		}
	}

	out := make([]RoomUsage, 0, len(byRoom))
	for _, u := range byRoom {
		u.CheckinRate = percentage(u.CheckedIn, u.Total)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BuildingName != out[j].BuildingName {
			return out[i].BuildingName < out[j].BuildingName
		}
		return out[i].RoomName < out[j].RoomName
	})
	return out
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func cloneUsage(in []RoomUsage) []RoomUsage {
	out := make([]RoomUsage, len(in))
	copy(out, in)
	return out
}
