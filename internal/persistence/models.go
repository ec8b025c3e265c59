package persistence

import "time"

// Building is a school site.
type Building struct {
	ID        string
	Name      string
	Address   *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room is a bookable space. BuildingName is filled on reads.
type Room struct {
	ID           string
	BuildingID   string
	BuildingName string
	Name         string
	Capacity     int
	Equipment    []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User is a staff profile.
type User struct {
	ID        string
	Email     string
	FullName  string
	Area      *string
	Role      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is one booked block. Date is stored as YYYY-MM-DD and the
// times as HH:MM. RoomName, BuildingName, OwnerName and OwnerArea are
// joined in on reads.
type Reservation struct {
	ID              string
	RoomID          string
	UserID          string
	Date            string
	StartTime       string
	EndTime         string
	Purpose         string
	ResponsibleName *string
	Status          string
	CheckedIn       bool
	CheckedInAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	RoomName     string
	BuildingName string
	OwnerName    string
	OwnerArea    *string
}

// ReservationFilter narrows reservation queries. Zero values do not filter.
type ReservationFilter struct {
	StartDate string
	EndDate   string
	RoomID    *string
	UserID    *string
	Statuses  []string
}

// CheckinCode is the stored hash of a single-use check-in code.
type CheckinCode struct {
	ID            string
	ReservationID string
	CodeHash      string
	ExpiresAt     time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}
