package connection

import (
	"github.com/nihalm/duetrack/internal/due"
)

// EntryType tags a timeline entry as a ledger record or an audit flag
type EntryType string

const (
	EntryDue  EntryType = "due"
	EntryFlag EntryType = "flag"
)

// TimelineEntry is one element of a room's unified timeline
type TimelineEntry struct {
	Type EntryType `json:"type"`
	Due  *due.Due  `json:"due,omitempty"`
	Flag *due.Flag `json:"flag,omitempty"`
}

// mergeTimeline interleaves dues and flags into one chronologically
// ascending sequence. Both inputs are already ordered by creation
// time, so this is a plain two-way merge; dues win ties so a flag
// emitted for a due never precedes it.
func mergeTimeline(dues []*due.Due, flags []*due.Flag) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(dues)+len(flags))

	i, j := 0, 0
	for i < len(dues) && j < len(flags) {
		if !dues[i].CreatedAt.After(flags[j].CreatedAt) {
			entries = append(entries, TimelineEntry{Type: EntryDue, Due: dues[i]})
			i++
		} else {
			entries = append(entries, TimelineEntry{Type: EntryFlag, Flag: flags[j]})
			j++
		}
	}
	for ; i < len(dues); i++ {
		entries = append(entries, TimelineEntry{Type: EntryDue, Due: dues[i]})
	}
	for ; j < len(flags); j++ {
		entries = append(entries, TimelineEntry{Type: EntryFlag, Flag: flags[j]})
	}

	return entries
}
