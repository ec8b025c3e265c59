package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-reservations/internal/booking"
)

type statsSourceStub struct {
	records []booking.ReservationRecord
	err     error
	calls   int
}

func (s *statsSourceStub) ListReservations(ctx context.Context, start, end booking.Date) ([]booking.ReservationRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	window := booking.DateRange{Start: start, End: end}
	var out []booking.ReservationRecord
	for _, r := range s.records {
		if window.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func inRoom(id, name string) func(*booking.ReservationRecord) {
	return func(r *booking.ReservationRecord) { r.RoomID = id; r.RoomName = name }
}

func withStatus(s booking.Status) func(*booking.ReservationRecord) {
	return func(r *booking.ReservationRecord) { r.Status = s }
}

func onDay(d booking.Date) func(*booking.ReservationRecord) {
	return func(r *booking.ReservationRecord) { r.Date = d }
}

func statsFixture() *statsSourceStub {
	later := onDay(testDay.AddDays(3))
	return &statsSourceStub{records: []booking.ReservationRecord{
		record("1", "09:00", "10:00", inRoom("r-a", "Aula A")),
		record("2", "10:00", "11:00", inRoom("r-a", "Aula A"), func(r *booking.ReservationRecord) { r.CheckedIn = true }),
		record("3", "09:00", "10:00", inRoom("r-b", "Biblioteca"), later),
		record("4", "09:00", "10:00", inRoom("r-c", "Comedor"), withStatus(booking.StatusNoShow), later),
		record("5", "11:00", "12:00", inRoom("r-d", "Laboratorio"), withStatus(booking.StatusCancelled)),
		record("6", "11:00", "12:00", inRoom("r-b", "Biblioteca"), later),
		record("7", "09:00", "10:00", inRoom("r-a", "Aula A"), onDay(booking.MustParseDate("2024-04-02"))),
	}}
}

func newTestStatisticsService(source StatsSource, ttl time.Duration) *StatisticsService {
	now := func() time.Time { return time.Date(2024, time.March, 11, 12, 0, 0, 0, time.UTC) }
	return NewStatisticsService(source, now, time.UTC, ttl, nil)
}

func TestStatisticsService_Overview(t *testing.T) {
	t.Run("requires statistics permission", func(t *testing.T) {
		svc := newTestStatisticsService(statsFixture(), 0)
		_, err := svc.Overview(context.Background(), StatsParams{Principal: principal("sub-1", booking.RoleSubdirector)})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("aggregates the current month", func(t *testing.T) {
		svc := newTestStatisticsService(statsFixture(), 0)
		got, err := svc.Overview(context.Background(), StatsParams{Principal: principal("admin-1", booking.RoleAdmin)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Today != 2 || got.Month != 5 {
			t.Fatalf("expected today=2 month=5, got %+v", got)
		}
		if got.NoShowRate != 16.7 {
			t.Fatalf("expected 16.7%% no-shows, got %v", got.NoShowRate)
		}
		if len(got.TopRooms) != 3 || got.TopRooms[0].RoomName != "Aula A" || got.TopRooms[1].RoomName != "Biblioteca" {
			t.Fatalf("unexpected top rooms %+v", got.TopRooms)
		}
	})

	t.Run("caches until invalidated", func(t *testing.T) {
		source := statsFixture()
		svc := newTestStatisticsService(source, time.Minute)
		p := StatsParams{Principal: principal("admin-1", booking.RoleSuperAdmin)}

		for i := 0; i < 2; i++ {
			if _, err := svc.Overview(context.Background(), p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if source.calls != 1 {
			t.Fatalf("expected one source call, got %d", source.calls)
		}
		svc.Invalidate()
		if _, err := svc.Overview(context.Background(), p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if source.calls != 2 {
			t.Fatalf("expected a reload after invalidation, got %d", source.calls)
		}
	})
}

func TestStatisticsService_RoomUsage(t *testing.T) {
	svc := newTestStatisticsService(statsFixture(), 0)
	usage, err := svc.RoomUsage(context.Background(), StatsParams{Principal: principal("admin-1", booking.RoleAdmin)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(usage) != 4 {
		t.Fatalf("expected 4 rooms, got %d", len(usage))
	}
	first := usage[0]
	if first.RoomName != "Aula A" || first.Total != 2 || first.Confirmed != 2 || first.CheckedIn != 1 || first.CheckinRate != 50 {
		t.Fatalf("unexpected usage for Aula A: %+v", first)
	}
	for _, u := range usage {
		if u.RoomName == "Laboratorio" && u.Cancelled != 1 {
			t.Fatalf("expected cancelled count, got %+v", u)
		}
		if u.RoomName == "Comedor" && u.NoShows != 1 {
			t.Fatalf("expected no-show count, got %+v", u)
		}
	}

	source := &statsSourceStub{err: errors.New("db down")}
	_, err = newTestStatisticsService(source, 0).RoomUsage(context.Background(), StatsParams{Principal: principal("admin-1", booking.RoleAdmin)})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
