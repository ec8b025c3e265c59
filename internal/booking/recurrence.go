package booking

import (
	"fmt"
	"time"
)

// MaxOccurrences bounds how many days a single recurring booking may cover.
const MaxOccurrences = 52

// Frequency is how often a recurring booking repeats.
type Frequency string

const (
	FrequencyNone   Frequency = ""
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Recurrence repeats a booking from its first date up to and including Until.
// Daily recurrences skip weekends. Weekly recurrences use Weekdays, or the
// first date's weekday when Weekdays is empty.
type Recurrence struct {
	Frequency Frequency
	Weekdays  []time.Weekday
	Until     Date
}

// Dates expands the recurrence starting at first. A FrequencyNone recurrence
// yields just first.
func (rec Recurrence) Dates(first Date) ([]Date, error) {
	if rec.Frequency == FrequencyNone {
		return []Date{first}, nil
	}
	if rec.Until.IsZero() || rec.Until.Before(first) {
		return nil, fmt.Errorf("%w: until %s precedes %s", ErrInvalidRecurrence, rec.Until, first)
	}

	include := make(map[time.Weekday]bool)
	switch rec.Frequency {
	case FrequencyDaily:
		for wd := time.Monday; wd <= time.Friday; wd++ {
			include[wd] = true
		}
	case FrequencyWeekly:
		if len(rec.Weekdays) == 0 {
			include[first.Weekday()] = true
		}
		for _, wd := range rec.Weekdays {
			include[wd] = true
		}
	default:
		return nil, fmt.Errorf("%w: frequency %q", ErrInvalidRecurrence, rec.Frequency)
	}

	var dates []Date
	for d := first; !d.After(rec.Until); d = d.AddDays(1) {
		if !include[d.Weekday()] {
			continue
		}
		if len(dates) == MaxOccurrences {
			return nil, fmt.Errorf("%w: more than %d occurrences", ErrInvalidRecurrence, MaxOccurrences)
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no matching days", ErrInvalidRecurrence)
	}
	return dates, nil
}
