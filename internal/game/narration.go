package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/life-rpg/internal/types"
)

// ActivityNote describes class synergy and recency for an activity that was
// just logged. logs must be newest first and already contain the new entry.
func ActivityNote(a types.ActivityType, archetype types.Archetype, logs []types.ActivityLog) string {
	var parts []string
	if SuitsArchetype(a, archetype) {
		parts = append(parts, fmt.Sprintf("%s fits the %s path", a.Label, archetype))
	}

	if len(logs) > 0 {
		if prev, ok := previousLog(a.ID, logs[1:]); ok {
			gap := time.Duration(logs[0].Timestamp-prev.Timestamp) * time.Millisecond
			parts = append(parts, fmt.Sprintf("last %s was %s ago", strings.ToLower(a.Label), humanizeGap(gap)))
		} else {
			parts = append(parts, fmt.Sprintf("first %s on record", strings.ToLower(a.Label)))
		}
	}

	return strings.Join(parts, "; ")
}

func previousLog(id string, logs []types.ActivityLog) (types.ActivityLog, bool) {
	for _, l := range logs {
		if l.ActivityID == id {
			return l, true
		}
	}
	return types.ActivityLog{}, false
}

func humanizeGap(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	}
}
