package booking

import "time"

// Status is the lifecycle state of a reservation record.
type Status string

const (
	// StatusConfirmed marks an active booking.
	StatusConfirmed Status = "confirmada"
	// StatusCancelled is terminal; cancelled records are kept, not deleted.
	StatusCancelled Status = "cancelada"
	// StatusNoShow marks a confirmed booking whose check-in window closed unused.
	StatusNoShow Status = "no_show"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// ReservationRecord is one booked time block for one room on one day, with
// room, building and owner details already denormalised.
type ReservationRecord struct {
	ID              string
	Date            Date
	Block           TimeBlock
	RoomID          string
	RoomName        string
	BuildingName    string
	Purpose         string
	Status          Status
	OwnerUserID     string
	OwnerName       string
	OwnerArea       *string
	ResponsibleName *string
	CheckedIn       bool
	CheckedInAt     *time.Time
}

// Confirmed reports whether the record is still an active booking.
func (r ReservationRecord) Confirmed() bool {
	return r.Status == StatusConfirmed
}

// Key returns the consolidation key of the record.
func (r ReservationRecord) Key() GroupKey {
	responsible := noResponsible
	if r.ResponsibleName != nil && *r.ResponsibleName != "" {
		responsible = *r.ResponsibleName
	}
	return GroupKey{
		OwnerUserID: r.OwnerUserID,
		RoomName:    r.RoomName,
		Purpose:     r.Purpose,
		Responsible: responsible,
	}
}
