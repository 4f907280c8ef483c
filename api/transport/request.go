package transport

// TaskRequest is the wire shape accepted for task creation and updates.
type TaskRequest struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Importance      string   `json:"importance"`
	Urgency         string   `json:"urgency"`
	Category        string   `json:"category"`
	DurationMinutes int      `json:"duration_minutes"`
	DueDate         string   `json:"due_date"`
	Tags            []string `json:"tags"`
	SortOrder       float64  `json:"sort_order"`
	NextUp          bool     `json:"next_up"`
	TimeBlockID     string   `json:"time_block_id"`
	Pattern         string   `json:"pattern"`
	Weekdays        []int    `json:"weekdays"`
	MonthDay        int      `json:"month_day"`
	Interval        int      `json:"interval"`
	IsTemplate      bool     `json:"is_template"`
}

// SyncRequest triggers a reconciliation cycle.
type SyncRequest struct {
	MarkExternalComplete *bool `json:"mark_external_complete"`
}

// SettingsRequest updates the persisted local configuration.
type SettingsRequest struct {
	VisibleCollections   []string `json:"visible_collections"`
	MarkExternalComplete bool     `json:"mark_external_complete"`
}
