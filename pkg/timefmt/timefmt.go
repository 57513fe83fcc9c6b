// Package timefmt renders the display dates used in ledger statuses
// and flag messages.
package timefmt

import (
	"fmt"
	"time"
)

// Month names as the UI has always shown them ("July" is spelled out).
var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"July", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Date formats a timestamp as e.g. "04 July 2025".
func Date(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// Clock formats the time-of-day portion as e.g. "09:41".
func Clock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
