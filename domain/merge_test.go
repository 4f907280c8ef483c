package domain

import (
	"reflect"
	"testing"
)

func TestMergeKeepsSetValues(t *testing.T) {
	if got := MergeString("keep", "candidate"); got != "keep" {
		t.Errorf("MergeString overwrote a set value: %q", got)
	}
	if got := MergeString("", "candidate"); got != "candidate" {
		t.Errorf("MergeString ignored first write: %q", got)
	}
	if got := MergeInt(30, 60); got != 30 {
		t.Errorf("MergeInt overwrote a set value: %d", got)
	}
	if got := MergeInt(0, 60); got != 60 {
		t.Errorf("MergeInt ignored first write: %d", got)
	}
	if got := MergeImportance(ImportanceHigh, ImportanceLow); got != ImportanceHigh {
		t.Errorf("MergeImportance overwrote a set value: %q", got)
	}
	if got := MergeUrgency("", UrgencyUrgent); got != UrgencyUrgent {
		t.Errorf("MergeUrgency ignored first write: %q", got)
	}
	if got := MergeTags([]string{"a"}, []string{"b"}); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("MergeTags overwrote a set value: %v", got)
	}
	if got := MergeTags(nil, []string{"b"}); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("MergeTags ignored first write: %v", got)
	}
}

func TestAbsorbEnrichment(t *testing.T) {
	dst := &Task{
		Title:      "linked",
		Importance: ImportanceHigh,
		Tags:       []string{"existing"},
	}
	src := &Task{
		Title:           "orphan",
		Importance:      ImportanceLow,
		Urgency:         UrgencyUrgent,
		Category:        "home",
		DurationMinutes: 45,
		Tags:            []string{"ignored"},
		Description:     "notes",
	}

	AbsorbEnrichment(dst, src)

	if dst.Importance != ImportanceHigh {
		t.Errorf("importance overwritten: %q", dst.Importance)
	}
	if dst.Urgency != UrgencyUrgent {
		t.Errorf("urgency not absorbed: %q", dst.Urgency)
	}
	if dst.Category != "home" || dst.DurationMinutes != 45 || dst.Description != "notes" {
		t.Errorf("unset fields not absorbed: %+v", dst)
	}
	if !reflect.DeepEqual(dst.Tags, []string{"existing"}) {
		t.Errorf("tags overwritten: %v", dst.Tags)
	}
	if dst.Title != "linked" {
		t.Errorf("title must never be absorbed: %q", dst.Title)
	}
}

func TestImportanceFromExternalPriority(t *testing.T) {
	cases := map[int]Importance{
		0:  "",
		1:  ImportanceHigh,
		4:  ImportanceHigh,
		5:  ImportanceMedium,
		6:  ImportanceLow,
		9:  ImportanceLow,
		10: "",
		-1: "",
	}
	for priority, want := range cases {
		if got := ImportanceFromExternalPriority(priority); got != want {
			t.Errorf("priority %d: expected %q, got %q", priority, want, got)
		}
	}
}

func TestExternalPriorityRoundTrip(t *testing.T) {
	for _, importance := range []Importance{ImportanceHigh, ImportanceMedium, ImportanceLow} {
		priority := ExternalPriorityFromImportance(importance)
		if got := ImportanceFromExternalPriority(priority); got != importance {
			t.Errorf("%q did not survive the round trip: priority %d came back %q", importance, priority, got)
		}
	}
	if got := ExternalPriorityFromImportance(""); got != 0 {
		t.Errorf("unset importance must export priority 0, got %d", got)
	}
}
