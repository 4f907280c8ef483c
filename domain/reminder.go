package domain

import "time"

// ExternalRecord is a reminder as fetched from the external source. The
// identifier is stable for now but may churn when a record is deleted and
// re-created on the external side.
type ExternalRecord struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Priority     int        `json:"priority"` // 0 = unset, 1-4 = high, 5 = medium, 6-9 = low
	DueDate      *time.Time `json:"due_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CollectionID string     `json:"collection_id,omitempty"`
}

// Collection identifies a list on the external side.
type Collection struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ImportanceFromExternalPriority collapses the external 10-point priority
// scale onto the local three-level scale. Zero maps to unset, never to a
// default guess.
func ImportanceFromExternalPriority(priority int) Importance {
	switch {
	case priority <= 0:
		return ""
	case priority <= 4:
		return ImportanceHigh
	case priority == 5:
		return ImportanceMedium
	case priority <= 9:
		return ImportanceLow
	default:
		return ""
	}
}

// ExternalPriorityFromImportance is the outbound mapping used when exporting
// locally created tasks to the external source.
func ExternalPriorityFromImportance(importance Importance) int {
	switch importance {
	case ImportanceHigh:
		return 1
	case ImportanceMedium:
		return 5
	case ImportanceLow:
		return 9
	default:
		return 0
	}
}
