package recurrence

import (
	"testing"
	"time"

	"github.com/taskmirror/backend/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	// 2026-03-09 is a Monday.
	monday := date(2026, time.March, 9)

	tests := []struct {
		name     string
		pattern  domain.RecurrencePattern
		weekdays []int
		monthDay int
		interval int
		base     time.Time
		want     time.Time
		wantNil  bool
	}{
		{
			name:    "none terminates",
			pattern: domain.PatternNone,
			base:    monday,
			wantNil: true,
		},
		{
			name:    "empty pattern terminates",
			pattern: "",
			base:    monday,
			wantNil: true,
		},
		{
			name:    "daily",
			pattern: domain.PatternDaily,
			base:    monday,
			want:    date(2026, time.March, 10),
		},
		{
			name:     "daily with interval",
			pattern:  domain.PatternDaily,
			interval: 3,
			base:     monday,
			want:     date(2026, time.March, 12),
		},
		{
			name:    "weekdays skips weekend",
			pattern: domain.PatternWeekdays,
			base:    date(2026, time.March, 13), // Friday
			want:    date(2026, time.March, 16), // Monday
		},
		{
			name:    "weekends saturday to sunday",
			pattern: domain.PatternWeekends,
			base:    date(2026, time.March, 14), // Saturday
			want:    date(2026, time.March, 15), // Sunday
		},
		{
			name:    "weekends sunday wraps to saturday",
			pattern: domain.PatternWeekends,
			base:    date(2026, time.March, 15), // Sunday
			want:    date(2026, time.March, 21), // Saturday
		},
		{
			name:     "weekly picks next listed day in same week",
			pattern:  domain.PatternWeekly,
			weekdays: []int{1, 3, 5},
			base:     monday,
			want:     date(2026, time.March, 11), // Wednesday
		},
		{
			name:     "weekly wraps to first listed day",
			pattern:  domain.PatternWeekly,
			weekdays: []int{1},
			base:     monday,
			want:     date(2026, time.March, 16),
		},
		{
			name:     "weekly wrap honors interval",
			pattern:  domain.PatternWeekly,
			weekdays: []int{1},
			interval: 2,
			base:     monday,
			want:     date(2026, time.March, 23),
		},
		{
			name:    "weekly without day set advances whole weeks",
			pattern: domain.PatternWeekly,
			base:    monday,
			want:    date(2026, time.March, 16),
		},
		{
			name:     "biweekly adds the extra week even within the same week",
			pattern:  domain.PatternBiweekly,
			weekdays: []int{3},
			base:     monday,
			want:     date(2026, time.March, 18),
		},
		{
			name:    "biweekly without day set is fourteen days",
			pattern: domain.PatternBiweekly,
			base:    monday,
			want:    date(2026, time.March, 23),
		},
		{
			name:     "monthly pins configured day",
			pattern:  domain.PatternMonthly,
			monthDay: 15,
			base:     date(2026, time.January, 15),
			want:     date(2026, time.February, 15),
		},
		{
			name:     "monthly clamps to short month",
			pattern:  domain.PatternMonthly,
			monthDay: 31,
			base:     date(2026, time.January, 31),
			want:     date(2026, time.February, 28),
		},
		{
			name:     "monthly last-day sentinel",
			pattern:  domain.PatternMonthly,
			monthDay: domain.MonthDayLast,
			base:     date(2026, time.February, 16),
			want:     date(2026, time.March, 31),
		},
		{
			name:    "monthly without configured day keeps base day",
			pattern: domain.PatternMonthly,
			base:    date(2026, time.April, 15),
			want:    date(2026, time.May, 15),
		},
		{
			name:    "quarterly clamps",
			pattern: domain.PatternQuarterly,
			base:    date(2026, time.January, 31),
			want:    date(2026, time.April, 30),
		},
		{
			name:    "semiannually",
			pattern: domain.PatternSemiannually,
			base:    date(2026, time.January, 10),
			want:    date(2026, time.July, 10),
		},
		{
			name:    "yearly from leap day lands on feb 28",
			pattern: domain.PatternYearly,
			base:    date(2024, time.February, 29),
			want:    date(2025, time.February, 28),
		},
		{
			name:     "custom defaults to daily cadence",
			pattern:  domain.PatternCustom,
			monthDay: CustomDaily,
			interval: 3,
			base:     monday,
			want:     date(2026, time.March, 12),
		},
		{
			name:     "custom weekly cadence",
			pattern:  domain.PatternCustom,
			monthDay: CustomWeekly,
			interval: 2,
			base:     monday,
			want:     date(2026, time.March, 23),
		},
		{
			name:     "custom monthly cadence",
			pattern:  domain.PatternCustom,
			monthDay: CustomMonthly,
			base:     date(2026, time.January, 31),
			want:     date(2026, time.February, 28),
		},
		{
			name:     "custom yearly cadence",
			pattern:  domain.PatternCustom,
			monthDay: CustomYearly,
			base:     date(2026, time.March, 9),
			want:     date(2027, time.March, 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.pattern, tt.weekdays, tt.monthDay, tt.interval, tt.base)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a next occurrence, got nil")
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, *got)
			}
		})
	}
}

func TestNextAlwaysStrictlyAfterBase(t *testing.T) {
	patterns := []domain.RecurrencePattern{
		domain.PatternDaily, domain.PatternWeekdays, domain.PatternWeekends,
		domain.PatternWeekly, domain.PatternBiweekly, domain.PatternMonthly,
		domain.PatternQuarterly, domain.PatternSemiannually, domain.PatternYearly,
	}
	base := date(2026, time.January, 1)
	for _, pattern := range patterns {
		for day := 0; day < 14; day++ {
			b := base.AddDate(0, 0, day)
			next := Next(pattern, []int{2, 4}, 0, 1, b)
			if next == nil {
				t.Fatalf("%s: series stalled at %v", pattern, b)
			}
			if !next.After(b) {
				t.Errorf("%s: next %v not after base %v", pattern, *next, b)
			}
		}
	}
}

func TestNextForTask(t *testing.T) {
	now := date(2026, time.March, 9)

	t.Run("uses due date as base", func(t *testing.T) {
		due := date(2026, time.March, 1)
		task := &domain.Task{Pattern: domain.PatternDaily, DueDate: &due}
		next := NextForTask(task, now)
		if next == nil || !next.Equal(date(2026, time.March, 2)) {
			t.Errorf("expected March 2, got %v", next)
		}
	})

	t.Run("falls back to now without a due date", func(t *testing.T) {
		task := &domain.Task{Pattern: domain.PatternDaily}
		next := NextForTask(task, now)
		if next == nil || !next.Equal(date(2026, time.March, 10)) {
			t.Errorf("expected March 10, got %v", next)
		}
	})

	t.Run("nil task", func(t *testing.T) {
		if next := NextForTask(nil, now); next != nil {
			t.Errorf("expected nil, got %v", next)
		}
	})
}
