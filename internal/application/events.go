package application

import (
	"context"
	"time"

	"github.com/example/room-reservations/internal/booking"
)

// Event types published after reservation changes.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCheckedIn = "reservation.checked_in"
)

// EventPublisher delivers domain events to interested consumers such as the
// notification mailer. Delivery failures never undo the change that raised
// the event.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// ReservationEvent describes the records affected by one change.
type ReservationEvent struct {
	ActorID      string       `json:"actor_id"`
	OwnerUserID  string       `json:"owner_user_id"`
	RoomID       string       `json:"room_id"`
	RoomName     string       `json:"room_name"`
	BuildingName string       `json:"building_name"`
	Purpose      string       `json:"purpose"`
	Blocks       []EventBlock `json:"blocks"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// EventBlock is one affected record.
type EventBlock struct {
	ReservationID string `json:"reservation_id"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

func newReservationEvent(actor Principal, records []booking.ReservationRecord) ReservationEvent {
	event := ReservationEvent{ActorID: actor.UserID}
	if len(records) == 0 {
		return event
	}
	first := records[0]
	event.OwnerUserID = first.OwnerUserID
	event.RoomID = first.RoomID
	event.RoomName = first.RoomName
	event.BuildingName = first.BuildingName
	event.Purpose = first.Purpose
	event.Blocks = make([]EventBlock, len(records))
	for i, r := range records {
		event.Blocks[i] = EventBlock{
			ReservationID: r.ID,
			Date:          r.Date.String(),
			Start:         r.Block.Start.String(),
			End:           r.Block.End.String(),
		}
	}
	return event
}
