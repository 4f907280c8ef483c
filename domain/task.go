package domain

import (
	"strings"
	"time"
)

// Importance is the tri-level importance scale. The empty string means unset.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

func (i Importance) Valid() bool {
	switch i {
	case "", ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}

// Urgency distinguishes urgent from non-urgent work. The empty string means unset.
type Urgency string

const (
	UrgencyUrgent    Urgency = "urgent"
	UrgencyNotUrgent Urgency = "not_urgent"
)

func (u Urgency) Valid() bool {
	switch u {
	case "", UrgencyUrgent, UrgencyNotUrgent:
		return true
	}
	return false
}

// SourceSystem records where a task originated and whether it currently
// participates in external reconciliation.
type SourceSystem string

const (
	SourceLocal    SourceSystem = "local"
	SourceExternal SourceSystem = "external"
)

func (s SourceSystem) Valid() bool {
	return s == SourceLocal || s == SourceExternal
}

// RecurrencePattern identifies the cadence of a recurring series.
type RecurrencePattern string

const (
	PatternNone         RecurrencePattern = "none"
	PatternDaily        RecurrencePattern = "daily"
	PatternWeekdays     RecurrencePattern = "weekdays"
	PatternWeekends     RecurrencePattern = "weekends"
	PatternWeekly       RecurrencePattern = "weekly"
	PatternBiweekly     RecurrencePattern = "biweekly"
	PatternMonthly      RecurrencePattern = "monthly"
	PatternQuarterly    RecurrencePattern = "quarterly"
	PatternSemiannually RecurrencePattern = "semiannually"
	PatternYearly       RecurrencePattern = "yearly"
	PatternCustom       RecurrencePattern = "custom"
)

func (p RecurrencePattern) Valid() bool {
	switch p {
	case PatternNone, PatternDaily, PatternWeekdays, PatternWeekends,
		PatternWeekly, PatternBiweekly, PatternMonthly, PatternQuarterly,
		PatternSemiannually, PatternYearly, PatternCustom:
		return true
	}
	return false
}

// MonthDayLast is the sentinel month-day meaning "last day of the target month".
const MonthDayLast = 32

// Task is the central entity. A task is either a plain one-off item, an
// instance of a recurring series, or the template that carries a series'
// canonical configuration. Templates never carry a due date and are never
// completable.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Importance      Importance `json:"importance,omitempty"`
	Urgency         Urgency    `json:"urgency,omitempty"`
	Category        string     `json:"category,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	SortOrder       float64    `json:"sort_order"`
	RescheduleCount int        `json:"reschedule_count"`
	NextUp          bool       `json:"next_up"`
	TimeBlockID     string     `json:"time_block_id,omitempty"`

	Pattern    RecurrencePattern `json:"pattern"`
	Weekdays   []int             `json:"weekdays,omitempty"` // 1=Monday .. 7=Sunday
	MonthDay   int               `json:"month_day,omitempty"`
	Interval   int               `json:"interval,omitempty"`
	GroupID    string            `json:"group_id,omitempty"`
	IsTemplate bool              `json:"is_template"`

	ExternalID   string       `json:"external_id,omitempty"`
	SourceSystem SourceSystem `json:"source_system"`
}

// IsRecurring reports whether the task belongs to a non-terminating series.
func (t *Task) IsRecurring() bool {
	return t != nil && t.Pattern != "" && t.Pattern != PatternNone
}

// IsLinked reports whether the task currently tracks an external record.
// Only linked tasks participate in soft-delete and reactivation transitions.
func (t *Task) IsLinked() bool {
	return t != nil && t.SourceSystem == SourceExternal && t.ExternalID != ""
}

// DisplayID returns the short identifier shown to users, derived from the
// first segment of the stable UUID.
func (t *Task) DisplayID() string {
	if t == nil || t.ID == "" {
		return ""
	}
	if idx := strings.IndexByte(t.ID, '-'); idx > 0 {
		return t.ID[:idx]
	}
	return t.ID
}

// SameDueDay reports whether both tasks fall on the same calendar day.
// Tasks without a due date never share a day.
func SameDueDay(a, b *Task) bool {
	if a == nil || b == nil || a.DueDate == nil || b.DueDate == nil {
		return false
	}
	ay, am, ad := a.DueDate.Date()
	by, bm, bd := b.DueDate.Date()
	return ay == by && am == bm && ad == bd
}
