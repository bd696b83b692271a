package domain

import (
	"testing"
	"time"
)

func TestParseViewMode(t *testing.T) {
	for _, v := range []string{"day", "work-week", "week", "month"} {
		if _, err := ParseViewMode(v); err != nil {
			t.Fatalf("ParseViewMode(%q): %v", v, err)
		}
	}
	if _, err := ParseViewMode("quarter"); err == nil {
		t.Fatal("expected invalid view mode error")
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	r := TimeRange{
		Start: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
	}
	at := func(h int) time.Time { return time.Date(2024, 3, 15, h, 0, 0, 0, time.UTC) }

	if !r.Overlaps(at(9), at(10)) {
		t.Fatal("interior interval must overlap")
	}
	if r.Overlaps(r.End, r.End.Add(time.Hour)) {
		t.Fatal("interval starting at range end must not overlap")
	}
	if !r.Overlaps(at(23), r.End.Add(time.Hour)) {
		t.Fatal("interval crossing range end must overlap")
	}
	// Zero-length intervals are membership checks on the instant.
	if !r.Overlaps(at(9), at(9)) {
		t.Fatal("zero-length interval inside range must overlap")
	}
	if r.Overlaps(r.End.Add(time.Hour), r.End.Add(time.Hour)) {
		t.Fatal("zero-length interval outside range must not overlap")
	}
}

func TestEventDurationClampsNegative(t *testing.T) {
	e := Event{
		Start: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
	}
	if e.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", e.Duration())
	}
}

func TestEventIsAllDay(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	flagged := Event{Start: start, End: start.Add(time.Hour), AllDay: true}
	long := Event{Start: start, End: start.Add(24 * time.Hour)}
	timed := Event{Start: start, End: start.Add(time.Hour)}
	if !flagged.IsAllDay() || !long.IsAllDay() {
		t.Fatal("flagged and 24h events must be all-day")
	}
	if timed.IsAllDay() {
		t.Fatal("short timed event must not be all-day")
	}
}

func TestRecurrencePatternValidate(t *testing.T) {
	valid := []RecurrencePattern{
		{Type: RecurDaily, Interval: 1, End: RecurEndNever},
		{Type: RecurWeekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Monday}, End: RecurEndAfterCount, Count: 5},
		{Type: RecurMonthly, Interval: 1, DayOfMonth: 15, End: RecurEndOnDate, EndDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for i, p := range valid {
		if err := p.Validate(); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
	}

	invalid := []RecurrencePattern{
		{Type: "hourly", Interval: 1, End: RecurEndNever},
		{Type: RecurDaily, Interval: 0, End: RecurEndNever},
		{Type: RecurDaily, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday}, End: RecurEndNever},
		{Type: RecurWeekly, Interval: 1, DayOfMonth: 10, End: RecurEndNever},
		{Type: RecurMonthly, Interval: 1, DayOfMonth: 40, End: RecurEndNever},
		{Type: RecurDaily, Interval: 1, End: RecurEndOnDate},
		{Type: RecurDaily, Interval: 1, End: RecurEndAfterCount},
		{Type: RecurDaily, Interval: 1, End: RecurEndNever, Count: 3},
		{Type: RecurDaily, Interval: 1, End: "sometime"},
	}
	for i, p := range invalid {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, p)
		}
	}

	var nilPattern *RecurrencePattern
	if err := nilPattern.Validate(); err != nil {
		t.Fatalf("nil pattern: %v", err)
	}
}
