// Package recurrence computes the next occurrence date of a recurring series.
// All functions are pure; no state, no I/O.
package recurrence

import (
	"time"

	"github.com/taskmirror/backend/domain"
)

// Base-frequency selectors for the custom pattern, carried in the month-day
// field.
const (
	CustomDaily   = 0
	CustomWeekly  = 2
	CustomMonthly = 3
	CustomYearly  = 4
)

var (
	workWeek = []int{1, 2, 3, 4, 5}
	weekend  = []int{6, 7}
)

// Next returns the next occurrence strictly after base, or nil when the
// pattern terminates the series. Weekdays use the 1=Monday..7=Sunday
// convention. interval defaults to 1 when not positive.
func Next(pattern domain.RecurrencePattern, weekdays []int, monthDay, interval int, base time.Time) *time.Time {
	if interval <= 0 {
		interval = 1
	}

	switch pattern {
	case "", domain.PatternNone:
		return nil
	case domain.PatternDaily:
		return ptr(base.AddDate(0, 0, interval))
	case domain.PatternWeekdays:
		return ptr(nextAmong(base, workWeek, 0, false))
	case domain.PatternWeekends:
		return ptr(nextAmong(base, weekend, 0, false))
	case domain.PatternWeekly:
		if len(weekdays) == 0 {
			return ptr(base.AddDate(0, 0, 7*interval))
		}
		return ptr(nextAmong(base, weekdays, interval-1, false))
	case domain.PatternBiweekly:
		if len(weekdays) == 0 {
			return ptr(base.AddDate(0, 0, 14))
		}
		return ptr(nextAmong(base, weekdays, 1, true))
	case domain.PatternMonthly:
		return ptr(addMonthsClamped(base, interval, monthDay))
	case domain.PatternQuarterly:
		return ptr(addMonthsClamped(base, 3*interval, base.Day()))
	case domain.PatternSemiannually:
		return ptr(addMonthsClamped(base, 6*interval, base.Day()))
	case domain.PatternYearly:
		return ptr(addMonthsClamped(base, 12*interval, base.Day()))
	case domain.PatternCustom:
		return nextCustom(monthDay, interval, base)
	default:
		return nil
	}
}

// NextForTask applies the task's own recurrence configuration, falling back
// to now when the task carries no due date.
func NextForTask(t *domain.Task, now time.Time) *time.Time {
	if t == nil {
		return nil
	}
	base := now
	if t.DueDate != nil {
		base = *t.DueDate
	}
	return Next(t.Pattern, t.Weekdays, t.MonthDay, t.Interval, base)
}

// nextCustom maps the overloaded month-day selector onto a base frequency and
// recurses with interval as the cadence multiplier.
func nextCustom(selector, interval int, base time.Time) *time.Time {
	switch selector {
	case CustomWeekly:
		return Next(domain.PatternWeekly, nil, 0, interval, base)
	case CustomMonthly:
		return Next(domain.PatternMonthly, nil, base.Day(), interval, base)
	case CustomYearly:
		return Next(domain.PatternYearly, nil, 0, interval, base)
	default:
		return Next(domain.PatternDaily, nil, 0, interval, base)
	}
}

// weekdayOf translates Go's Sunday=0 epoch to the 1=Monday..7=Sunday
// convention. The translation lives here and nowhere else.
func weekdayOf(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// nextAmong finds the next date whose weekday is in days, strictly after
// base. When no candidate remains in the current week it wraps to the first
// qualifying day of a following week, adding wrapWeeks whole weeks on top.
// With alwaysWrap set the extra weeks apply even when a candidate exists in
// the current week. A non-terminating series never stalls: the wrap branch
// always produces a date.
func nextAmong(base time.Time, days []int, wrapWeeks int, alwaysWrap bool) time.Time {
	baseDay := weekdayOf(base)

	within := 0
	for _, d := range days {
		if d > baseDay && d <= 7 && (within == 0 || d < within) {
			within = d
		}
	}
	if within != 0 {
		offset := within - baseDay
		if alwaysWrap {
			offset += 7 * wrapWeeks
		}
		return base.AddDate(0, 0, offset)
	}

	first := 8
	for _, d := range days {
		if d >= 1 && d <= 7 && d < first {
			first = d
		}
	}
	if first == 8 {
		// Empty or invalid set: wrap to the same weekday next week.
		first = baseDay
	}
	return base.AddDate(0, 0, 7-baseDay+first+7*wrapWeeks)
}

// addMonthsClamped advances base by months whole months, then pins the day of
// month. day 32 selects the last day of the target month; any other day is
// clamped to the days the target month actually has. Anchoring on the first
// of the month avoids Go's date normalization spilling into the month after.
func addMonthsClamped(base time.Time, months, day int) time.Time {
	anchor := time.Date(base.Year(), base.Month(), 1,
		base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
	anchor = anchor.AddDate(0, months, 0)

	last := daysInMonth(anchor.Year(), anchor.Month())
	if day == domain.MonthDayLast || day > last {
		day = last
	}
	if day < 1 {
		day = clampDay(base.Day(), last)
	}
	return time.Date(anchor.Year(), anchor.Month(), day,
		base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
}

func clampDay(day, last int) int {
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func ptr(t time.Time) *time.Time {
	return &t
}
