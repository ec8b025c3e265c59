package booking

import (
	"fmt"
	"sort"
	"strings"
)

const (
	noResponsible = "none"
	groupIDPrefix = "grouped-"
)

// GroupKey identifies records that may be merged into one entry.
type GroupKey struct {
	OwnerUserID string
	RoomName    string
	Purpose     string
	Responsible string
}

// EntryKind distinguishes a lone record from a merged run.
type EntryKind int

const (
	EntrySingle EntryKind = iota + 1
	EntryGrouped
)

func (k EntryKind) String() string {
	switch k {
	case EntrySingle:
		return "single"
	case EntryGrouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// Entry is one line of a consolidated day view: either a single record or a
// maximal run of time-adjacent records sharing a GroupKey.
type Entry struct {
	Kind    EntryKind
	Records []ReservationRecord
}

// First returns the earliest constituent record.
func (e Entry) First() ReservationRecord {
	return e.Records[0]
}

// Last returns the latest constituent record.
func (e Entry) Last() ReservationRecord {
	return e.Records[len(e.Records)-1]
}

// Grouped reports whether the entry merges two or more records.
func (e Entry) Grouped() bool { return e.Kind == EntryGrouped }

// Len reports the number of constituent records.
func (e Entry) Len() int { return len(e.Records) }

// ID is the display identifier: the record id, or "grouped-" plus the first
// record id for merged runs.
func (e Entry) ID() string {
	if e.Kind == EntryGrouped {
		return groupIDPrefix + e.First().ID
	}
	return e.First().ID
}

// ParseEntryID splits a display identifier produced by Entry.ID into the
// underlying record id and the entry kind.
func ParseEntryID(id string) (string, EntryKind) {
	if rest, ok := strings.CutPrefix(id, groupIDPrefix); ok && rest != "" {
		return rest, EntryGrouped
	}
	return id, EntrySingle
}

// Block spans from the first record's start to the last record's end.
func (e Entry) Block() TimeBlock {
	return TimeBlock{Start: e.First().Block.Start, End: e.Last().Block.End}
}

// Purpose returns the purpose annotated with the block count for merged runs.
func (e Entry) Purpose() string {
	if e.Kind == EntryGrouped {
		return fmt.Sprintf("%s (%d hours)", e.First().Purpose, len(e.Records))
	}
	return e.First().Purpose
}

// RecordIDs lists the constituent record ids in start order.
func (e Entry) RecordIDs() []string {
	ids := make([]string, len(e.Records))
	for i, r := range e.Records {
		ids[i] = r.ID
	}
	return ids
}

// Record returns the display form of the entry: the original record for
// singles, or the first record stretched over the whole run for groups.
func (e Entry) Record() ReservationRecord {
	r := e.First()
	if e.Kind != EntryGrouped {
		return r
	}
	r.ID = e.ID()
	r.Block = e.Block()
	r.Purpose = e.Purpose()
	return r
}

// Key returns the shared grouping key.
func (e Entry) Key() GroupKey { return e.First().Key() }

type partitionKey struct {
	date Date
	key  GroupKey
}

// Consolidate merges runs of exactly adjacent records that share a GroupKey
// and returns the entries ordered by start time. Records with different keys
// are never merged; a gap between same-key records always starts a new run.
// Records on different dates never merge, and multi-day input is ordered by
// date first. The input slice is not modified. Input must be flat source
// records, never entries that were already consolidated.
func Consolidate(records []ReservationRecord) []Entry {
	if len(records) == 0 {
		return nil
	}

	partitions := make(map[partitionKey][]ReservationRecord)
	var keys []partitionKey
	for _, r := range records {
		k := partitionKey{date: r.Date, key: r.Key()}
		if _, ok := partitions[k]; !ok {
			keys = append(keys, k)
		}
		partitions[k] = append(partitions[k], r)
	}

	entries := make([]Entry, 0, len(records))
	for _, k := range keys {
		group := partitions[k]
		sortRecords(group)

		run := []ReservationRecord{group[0]}
		for _, r := range group[1:] {
			if run[len(run)-1].Block.Adjacent(r.Block) {
				run = append(run, r)
				continue
			}
			entries = append(entries, closeRun(run))
			run = []ReservationRecord{r}
		}
		entries = append(entries, closeRun(run))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].First(), entries[j].First()
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Block.Start != b.Block.Start {
			return a.Block.Start < b.Block.Start
		}
		if a.RoomName != b.RoomName {
			return a.RoomName < b.RoomName
		}
		return a.ID < b.ID
	})
	return entries
}

func closeRun(run []ReservationRecord) Entry {
	kind := EntrySingle
	if len(run) > 1 {
		kind = EntryGrouped
	}
	return Entry{Kind: kind, Records: run}
}

func sortRecords(records []ReservationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Block.Start != records[j].Block.Start {
			return records[i].Block.Start < records[j].Block.Start
		}
		return records[i].ID < records[j].ID
	})
}

// Expand recovers the constituent records of the run anchored at anchor from a
// fresh set of candidates, one record per block. See Members for the filter.
func Expand(anchor ReservationRecord, span TimeBlock, candidates []ReservationRecord) []ReservationRecord {
	return UniqueBlocks(Members(anchor, span, candidates))
}

// Members returns every confirmed candidate on the anchor's date with the
// anchor's GroupKey and a block inside span, sorted. Records sharing a block
// are all kept.
func Members(anchor ReservationRecord, span TimeBlock, candidates []ReservationRecord) []ReservationRecord {
	key := anchor.Key()
	matched := make([]ReservationRecord, 0, len(candidates))
	for _, c := range candidates {
		if !c.Confirmed() || c.Date != anchor.Date || c.Key() != key {
			continue
		}
		if !span.Contains(c.Block) {
			continue
		}
		matched = append(matched, c)
	}
	sortRecords(matched)
	return matched
}

// UniqueBlocks keeps the first record of each block, preserving order.
func UniqueBlocks(records []ReservationRecord) []ReservationRecord {
	out := make([]ReservationRecord, 0, len(records))
	seen := make(map[TimeBlock]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.Block]; dup {
			continue
		}
		seen[r.Block] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RunContaining returns the consolidated entry that includes the record with
// id, or false when no candidate has that id.
func RunContaining(id string, candidates []ReservationRecord) (Entry, bool) {
	for _, e := range Consolidate(candidates) {
		for _, r := range e.Records {
			if r.ID == id {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// RoomGroup is the slice of a day's entries booked against one room.
type RoomGroup struct {
	Key     string
	Entries []Entry
}

// GroupByRoom splits entries by "Building - Room", preserving entry order
// inside each room and sorting rooms by key.
func GroupByRoom(entries []Entry) []RoomGroup {
	index := make(map[string]int)
	var groups []RoomGroup
	for _, e := range entries {
		first := e.First()
		key := first.BuildingName + " - " + first.RoomName
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, RoomGroup{Key: key})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}
