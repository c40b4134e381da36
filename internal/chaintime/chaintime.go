// Package chaintime converts Solana block times into instants and
// formats them for display. The canonical representation everywhere in
// the pipeline is time.Time; the localized string exists only at the
// presentation boundary.
package chaintime

import (
	"fmt"
	"time"
)

// DisplayLayout is the fixed layout used for human-readable timestamps.
const DisplayLayout = "02/01/2006, 15:04:05"

// DisplayZone is the fixed timezone for display formatting.
var DisplayZone = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("chaintime: load location %s: %v", name, err))
	}
	return loc
}

// FromBlockTime converts a chain block time (seconds since epoch) to an
// instant. A zero or negative block time reports ok=false; callers skip
// such records instead of failing the batch.
func FromBlockTime(secs int64) (t time.Time, ok bool) {
	if secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// FormatDisplay renders an instant in the fixed display zone.
func FormatDisplay(t time.Time) string {
	return t.In(DisplayZone).Format(DisplayLayout)
}

// ParseDisplay strictly parses a display-formatted timestamp back into
// an instant. Second precision only.
func ParseDisplay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DisplayLayout, s, DisplayZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse display timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
