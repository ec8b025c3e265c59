package cli

import (
	"strings"
	"testing"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

func record(id, start, end, owner string) booking.ReservationRecord {
	return booking.ReservationRecord{
		ID:          id,
		Date:        booking.MustParseDate("2024-03-11"),
		Block:       booking.MustBlock(start, end),
		RoomID:      "room-1",
		RoomName:    "Aula Magna",
		Purpose:     "Consejo",
		Status:      booking.StatusConfirmed,
		OwnerUserID: owner,
		OwnerName:   "Ana Rojas",
	}
}

func TestRenderAvailability(t *testing.T) {
	grid := booking.DefaultGrid()
	availability := booking.ComputeAvailability(grid, []booking.ReservationRecord{
		record("r1", "09:00", "10:00", "user-1"),
		record("r2", "10:00", "11:00", "user-2"),
	}, "room-1", "user-1")

	out := RenderAvailability("Aula Magna", booking.MustParseDate("2024-03-11"), availability)

	for _, want := range []string{"Aula Magna · 2024-03-11", "09:00-10:00", "propia", "ocupado", "disponible", "9 de 11 bloques disponibles", "Consejo"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderEntries(t *testing.T) {
	entries := booking.Consolidate([]booking.ReservationRecord{
		record("r1", "09:00", "10:00", "user-1"),
		record("r2", "10:00", "11:00", "user-1"),
	})
	out := RenderEntries("Mis reservas", []application.AnnotatedEntry{{Entry: entries[0], Permissions: booking.Permissions{CanCancel: true}}})
	if !strings.Contains(out, "09:00-11:00") || !strings.Contains(out, "Consejo (2 hours)") || !strings.Contains(out, "[cancelable]") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if out := RenderEntries("Mis reservas", nil); !strings.Contains(out, "sin reservas") {
		t.Fatalf("expected empty marker, got:\n%s", out)
	}
}

func TestRenderRangeAndOverview(t *testing.T) {
	today := booking.MustParseDate("2024-03-13")
	out := RenderRange(booking.RangeWeek, booking.ResolveRange(booking.RangeWeek, today))
	if !strings.Contains(out, "2024-03-11 → 2024-03-17") || !strings.Contains(out, "7 días") {
		t.Fatalf("unexpected range output: %s", out)
	}

	overview := application.Overview{Today: 1, Month: 4, NoShowRate: 25, TopRooms: []application.RoomCount{{RoomName: "Aula Magna", BuildingName: "Liceo Central", Count: 3}}}
	out = RenderOverview(today, overview)
	for _, want := range []string{"2024-03", "25.0%", "1. Aula Magna (Liceo Central): 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
