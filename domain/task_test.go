package domain

import (
	"testing"
	"time"
)

func TestTaskIsRecurring(t *testing.T) {
	tests := []struct {
		pattern RecurrencePattern
		want    bool
	}{
		{PatternNone, false},
		{"", false},
		{PatternDaily, true},
		{PatternCustom, true},
	}
	for _, tt := range tests {
		task := &Task{Pattern: tt.pattern}
		if got := task.IsRecurring(); got != tt.want {
			t.Errorf("pattern %q: expected %v, got %v", tt.pattern, tt.want, got)
		}
	}
	var nilTask *Task
	if nilTask.IsRecurring() {
		t.Error("nil task cannot recur")
	}
}

func TestTaskIsLinked(t *testing.T) {
	linked := &Task{SourceSystem: SourceExternal, ExternalID: "ext-1"}
	if !linked.IsLinked() {
		t.Error("expected linked")
	}
	// Soft-delete residue keeps the externalID but demotes the source.
	residue := &Task{SourceSystem: SourceLocal, ExternalID: "ext-1"}
	if residue.IsLinked() {
		t.Error("local task must not count as linked")
	}
	unlinked := &Task{SourceSystem: SourceExternal}
	if unlinked.IsLinked() {
		t.Error("task without externalID must not count as linked")
	}
}

func TestDisplayID(t *testing.T) {
	task := &Task{ID: "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"}
	if got := task.DisplayID(); got != "f81d4fae" {
		t.Errorf("expected first UUID segment, got %q", got)
	}
	if got := (&Task{ID: "short"}).DisplayID(); got != "short" {
		t.Errorf("expected id passthrough, got %q", got)
	}
}

func TestSameDueDay(t *testing.T) {
	morning := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, time.March, 9, 22, 30, 0, 0, time.UTC)
	nextDay := morning.AddDate(0, 0, 1)

	if !SameDueDay(&Task{DueDate: &morning}, &Task{DueDate: &evening}) {
		t.Error("same calendar day with different times must match")
	}
	if SameDueDay(&Task{DueDate: &morning}, &Task{DueDate: &nextDay}) {
		t.Error("different days must not match")
	}
	if SameDueDay(&Task{DueDate: &morning}, &Task{}) {
		t.Error("missing due date never shares a day")
	}
}

func TestSettingsCollectionVisible(t *testing.T) {
	all := &Settings{}
	if !all.CollectionVisible("anything") {
		t.Error("empty visibility list means everything is visible")
	}

	scoped := &Settings{VisibleCollections: []string{"inbox"}}
	if !scoped.CollectionVisible("inbox") {
		t.Error("listed collection must be visible")
	}
	if scoped.CollectionVisible("archive") {
		t.Error("unlisted collection must be hidden")
	}
	if !scoped.CollectionVisible("") {
		t.Error("records without a collection are always visible")
	}
}
