package booking

// DetectConflicts returns the confirmed records in the candidate's room and
// date whose blocks overlap the candidate's block. Overlap is interval based,
// so bookings that do not line up with grid slots still conflict.
func DetectConflicts(existing []ReservationRecord, candidate ReservationRecord) []ReservationRecord {
	var conflicts []ReservationRecord
	for _, r := range existing {
		if r.ID != "" && r.ID == candidate.ID {
			continue
		}
		if !r.Confirmed() || r.RoomID != candidate.RoomID || r.Date != candidate.Date {
			continue
		}
		if r.Block.Overlaps(candidate.Block) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}
