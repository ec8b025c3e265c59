package booking

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day expressed in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM" (a trailing ":SS" as returned by SQL time columns is accepted).
func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	if len(value) == len("15:04:05") {
		value = value[:5]
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustParseClock is ParseClock for literals; it panics on malformed input.
func MustParseClock(value string) Clock {
	c, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimeBlock is a half-open [Start, End) interval within one day.
type TimeBlock struct {
	Start Clock
	End   Clock
}

// NewTimeBlock validates that end is after start.
func NewTimeBlock(start, end Clock) (TimeBlock, error) {
	if end <= start {
		return TimeBlock{}, fmt.Errorf("%w: %s-%s", ErrInvalidBlock, start, end)
	}
	return TimeBlock{Start: start, End: end}, nil
}

// ParseTimeBlock parses a pair of HH:MM values.
func ParseTimeBlock(start, end string) (TimeBlock, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeBlock{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeBlock{}, err
	}
	return NewTimeBlock(s, e)
}

// MustBlock builds a block from HH:MM literals and panics on malformed input.
func MustBlock(start, end string) TimeBlock {
	b, err := ParseTimeBlock(start, end)
	if err != nil {
		panic(err)
	}
	return b
}

// String formats the block as HH:MM-HH:MM.
func (b TimeBlock) String() string {
	return b.Start.String() + "-" + b.End.String()
}

// Duration reports the length of the block.
func (b TimeBlock) Duration() time.Duration {
	return time.Duration(b.End-b.Start) * time.Minute
}

// Adjacent reports whether next starts exactly where b ends.
func (b TimeBlock) Adjacent(next TimeBlock) bool {
	return b.End == next.Start
}

// Contains reports whether inner lies entirely within b.
func (b TimeBlock) Contains(inner TimeBlock) bool {
	return inner.Start >= b.Start && inner.End <= b.End
}

// Overlaps reports whether the two blocks share any instant.
func (b TimeBlock) Overlaps(other TimeBlock) bool {
	return b.Start < other.End && other.Start < b.End
}
