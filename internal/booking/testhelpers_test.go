package booking

func rec(id, start, end string, mutate ...func(*ReservationRecord)) ReservationRecord {
	r := ReservationRecord{
		ID:           id,
		Date:         MustParseDate("2024-03-11"),
		Block:        MustBlock(start, end),
		RoomID:       "room-y",
		RoomName:     "Sala Y",
		BuildingName: "Edificio Central",
		Purpose:      "meeting",
		Status:       StatusConfirmed,
		OwnerUserID:  "user-x",
		OwnerName:    "Usuario X",
	}
	for _, m := range mutate {
		m(&r)
	}
	return r
}

func strPtr(v string) *string { return &v }

func withResponsible(name string) func(*ReservationRecord) {
	return func(r *ReservationRecord) { r.ResponsibleName = strPtr(name) }
}

func withOwner(id string) func(*ReservationRecord) {
	return func(r *ReservationRecord) { r.OwnerUserID = id }
}

func withPurpose(p string) func(*ReservationRecord) {
	return func(r *ReservationRecord) { r.Purpose = p }
}

func withRoom(id, name string) func(*ReservationRecord) {
	return func(r *ReservationRecord) { r.RoomID = id; r.RoomName = name }
}

func withStatus(s Status) func(*ReservationRecord) {
	return func(r *ReservationRecord) { r.Status = s }
}

func ids(records []ReservationRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
