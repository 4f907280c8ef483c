package repository

import "context"

// ExternalIDRegistry persists the union of every external identifier the
// reconciliation engine is aware of, across all collections, visible or not.
// Soft-delete decisions consult this union rather than the filtered subset
// imported during a cycle.
type ExternalIDRegistry interface {
	// Replace swaps the stored union for the identifiers observed by a
	// fully successful fetch.
	Replace(ctx context.Context, ids []string) error
	// Union returns the stored identifier set.
	Union(ctx context.Context) (map[string]struct{}, error)
}
