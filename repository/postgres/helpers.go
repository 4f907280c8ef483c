package postgres

import "encoding/json"

var emptyJSONArray = []byte("[]")

// marshalStrings never returns nil: the jsonb columns it feeds are NOT NULL,
// and pgx encodes a nil []byte as SQL NULL.
func marshalStrings(values []string) []byte {
	if len(values) == 0 {
		return emptyJSONArray
	}
	b, err := json.Marshal(values)
	if err != nil {
		return emptyJSONArray
	}
	return b
}

func marshalInts(values []int) []byte {
	if len(values) == 0 {
		return emptyJSONArray
	}
	b, err := json.Marshal(values)
	if err != nil {
		return emptyJSONArray
	}
	return b
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
