package booking

import (
	"fmt"
	"time"
)

// Grid is the fixed, ordered list of equal-length slots offered for booking
// on a single day. A Grid is immutable once built.
type Grid struct {
	slots []TimeBlock
}

// NewGrid builds consecutive slots of length step covering [start, end).
func NewGrid(start, end Clock, step time.Duration) (Grid, error) {
	minutes := int(step / time.Minute)
	if minutes <= 0 || step%time.Minute != 0 {
		return Grid{}, fmt.Errorf("%w: step %s", ErrInvalidGrid, step)
	}
	if end <= start || end > 24*60 {
		return Grid{}, fmt.Errorf("%w: %s-%s", ErrInvalidGrid, start, end)
	}
	if int(end-start)%minutes != 0 {
		return Grid{}, fmt.Errorf("%w: %s-%s is not a multiple of %s", ErrInvalidGrid, start, end, step)
	}
	slots := make([]TimeBlock, 0, int(end-start)/minutes)
	for s := start; s < end; s += Clock(minutes) {
		slots = append(slots, TimeBlock{Start: s, End: s + Clock(minutes)})
	}
	return Grid{slots: slots}, nil
}

// DefaultGrid returns the 08:00-19:00 grid in one-hour steps.
func DefaultGrid() Grid {
	g, err := NewGrid(8*60, 19*60, time.Hour)
	if err != nil {
		panic(err)
	}
	return g
}

// Slots returns a copy of the grid's slots in order.
func (g Grid) Slots() []TimeBlock {
	out := make([]TimeBlock, len(g.slots))
	copy(out, g.slots)
	return out
}

// Len reports the number of slots.
func (g Grid) Len() int { return len(g.slots) }

// Has reports whether block is exactly one of the grid's slots.
func (g Grid) Has(block TimeBlock) bool {
	for _, s := range g.slots {
		if s == block {
			return true
		}
	}
	return false
}

// Span returns the block from the first slot's start to the last slot's end.
func (g Grid) Span() TimeBlock {
	if len(g.slots) == 0 {
		return TimeBlock{}
	}
	return TimeBlock{Start: g.slots[0].Start, End: g.slots[len(g.slots)-1].End}
}
