package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	OperationMarkComplete = "mark_complete"
	OperationCreate       = "create"
	OperationUpdate       = "update"
)

// Item represents an outbound external write that should be retried while the
// reminder source is unavailable.
type Item struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"external_id"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data,omitempty"`
	Priority   int             `json:"priority"`
	Retries    int             `json:"retries"`
	Timestamp  time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
