package domain

import "time"

// Settings is the persisted local configuration for external reconciliation.
type Settings struct {
	// VisibleCollections limits which external collections contribute
	// records to the import scope. Empty means every collection is visible.
	// Hidden collections still feed the soft-delete safety set.
	VisibleCollections []string `json:"visible_collections,omitempty"`
	// MarkExternalComplete controls whether completing a linked task pushes
	// the completion out to the external record.
	MarkExternalComplete bool      `json:"mark_external_complete"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CollectionVisible reports whether records from the given collection are in
// the import scope. Records without a collection are always visible.
func (s *Settings) CollectionVisible(collectionID string) bool {
	if s == nil || len(s.VisibleCollections) == 0 || collectionID == "" {
		return true
	}
	for _, id := range s.VisibleCollections {
		if id == collectionID {
			return true
		}
	}
	return false
}
