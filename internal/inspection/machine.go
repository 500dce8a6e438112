// Package inspection holds the inspection lifecycle rules: the state
// machine, completion validation and the action authorization table.
package inspection

import (
	"fmt"
	"time"

	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
)

// CanTransition reports whether the status change is a legal forward
// step. There are no backward transitions.
func CanTransition(from, to string) bool {
	switch from {
	case database.StatusPending:
		return to == database.StatusInProgress
	case database.StatusInProgress:
		return to == database.StatusCompleted
	default:
		return false
	}
}

// ValidateComplete checks the completion preconditions: at least one
// part, and every part with at least one item. The returned error
// names the first offending part.
func ValidateComplete(insp *database.Inspection) error {
	if len(insp.Parts) == 0 {
		return i18n.ErrorInspectionNoParts
	}
	for i := range insp.Parts {
		if len(insp.Parts[i].Items) == 0 {
			return i18n.ErrorInspectionPartEmpty.WithParam("Part", insp.Parts[i].PartNumber)
		}
	}
	return nil
}

// ClockNow formats a wall-clock timestamp the way start and end times
// are stored.
func ClockNow(now time.Time) string {
	return now.Format("15:04")
}

// NormalizeClock coerces user-supplied clock strings to HH:MM. Seconds
// are dropped; anything unparseable comes back empty.
func NormalizeClock(v string) string {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}

// Stamp sets the transition timestamps: start keeps an existing
// start_time, complete keeps an existing end_time.
func Stamp(insp *database.Inspection, to string, now time.Time) {
	switch to {
	case database.StatusInProgress:
		if insp.StartTime == "" {
			insp.StartTime = ClockNow(now)
		}
	case database.StatusCompleted:
		if insp.EndTime == "" {
			insp.EndTime = ClockNow(now)
		}
	}
	insp.Status = to
}

// String representation used in logs.
func TransitionString(from, to string) string {
	return fmt.Sprintf("%s->%s", from, to)
}
