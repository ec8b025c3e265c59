package booking

// SlotState is the occupancy of one grid slot as seen by a requester.
type SlotState string

const (
	SlotAvailable SlotState = "available"
	SlotOccupied  SlotState = "occupied"
	SlotOwn       SlotState = "own"
)

// SlotAvailability pairs a grid slot with its state and, when booked, the
// record that covers it.
type SlotAvailability struct {
	Block  TimeBlock
	State  SlotState
	Record *ReservationRecord
}

// Availability is the per-slot occupancy of one room for one day, in grid order.
type Availability struct {
	slots []SlotAvailability
}

// Slots returns the slots in grid order.
func (a Availability) Slots() []SlotAvailability {
	out := make([]SlotAvailability, len(a.slots))
	copy(out, a.slots)
	return out
}

// State returns the state for block, or SlotAvailable when block is not a grid slot.
func (a Availability) State(block TimeBlock) SlotState {
	for _, s := range a.slots {
		if s.Block == block {
			return s.State
		}
	}
	return SlotAvailable
}

// Count reports how many slots are in state.
func (a Availability) Count(state SlotState) int {
	n := 0
	for _, s := range a.slots {
		if s.State == state {
			n++
		}
	}
	return n
}

// ComputeAvailability maps confirmed records for roomID onto the grid.
//
// Only records whose block equals a slot exactly are considered; a record that
// straddles slot boundaries leaves those slots available. When several records
// match one slot, a record owned by requesterID wins.
func ComputeAvailability(grid Grid, records []ReservationRecord, roomID, requesterID string) Availability {
	slots := make([]SlotAvailability, len(grid.slots))
	for i, block := range grid.slots {
		slots[i] = SlotAvailability{Block: block, State: SlotAvailable}
		for j := range records {
			r := records[j]
			if r.RoomID != roomID || !r.Confirmed() || r.Block != block {
				continue
			}
			if r.OwnerUserID == requesterID {
				slots[i].State = SlotOwn
				slots[i].Record = &r
				break
			}
			if slots[i].State == SlotAvailable {
				slots[i].State = SlotOccupied
				slots[i].Record = &r
			}
		}
	}
	return Availability{slots: slots}
}
