package domain

import (
	"errors"
	"fmt"
	"time"
)

// ViewMode selects the windowing rule used to resolve the visible span
// around an anchor date.
type ViewMode string

const (
	ViewDay      ViewMode = "day"
	ViewWorkWeek ViewMode = "work-week"
	ViewWeek     ViewMode = "week"
	ViewMonth    ViewMode = "month"
)

func ParseViewMode(v string) (ViewMode, error) {
	switch ViewMode(v) {
	case ViewDay, ViewWorkWeek, ViewWeek, ViewMonth:
		return ViewMode(v), nil
	}
	return "", fmt.Errorf("invalid view mode: %q", v)
}

// TimeRange is a span of calendar time. Start is inclusive; events are
// treated as [start, end) intervals against it.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// Overlaps reports whether the [start, end) interval intersects r.
func (r TimeRange) Overlaps(start, end time.Time) bool {
	if !end.After(start) {
		// Zero-length interval: containment check on the single instant.
		return !start.Before(r.Start) && !start.After(r.End)
	}
	return start.Before(r.End) && end.After(r.Start)
}

// Event is a calendar event as fetched from the backend or an external
// feed. Events are read-only inside the engine; mutations go through the
// backend and trigger cache invalidation.
type Event struct {
	ID             string             `json:"id"`
	CalendarID     string             `json:"calendar_id"`
	Subject        string             `json:"subject,omitempty"`
	Location       string             `json:"location,omitempty"`
	Organizer      string             `json:"organizer,omitempty"`
	Attendees      []string           `json:"attendees,omitempty"`
	Start          time.Time          `json:"start"`
	End            time.Time          `json:"end"`
	AllDay         bool               `json:"all_day"`
	Organizational bool               `json:"organizational"`
	Recurrence     *RecurrencePattern `json:"recurrence,omitempty"`
}

// Duration returns the event length, clamped to zero when end < start so
// malformed geometry never propagates.
func (e Event) Duration() time.Duration {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return d
}

// IsAllDay reports whether the event occupies whole days: either flagged
// as such by its source or spanning 24 hours or more.
func (e Event) IsAllDay() bool {
	return e.AllDay || e.Duration() >= 24*time.Hour
}

type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
	RecurYearly  RecurrenceType = "yearly"
)

type RecurrenceEnd string

const (
	RecurEndNever      RecurrenceEnd = "never"
	RecurEndOnDate     RecurrenceEnd = "on_date"
	RecurEndAfterCount RecurrenceEnd = "after_count"
)

// RecurrencePattern is the structured recurrence descriptor attached to a
// repeating event. It is interpreted for display only; occurrence
// materialization is the backend's job.
type RecurrencePattern struct {
	Type       RecurrenceType `json:"type"`
	Interval   int            `json:"interval"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"` // weekly only
	DayOfMonth int            `json:"day_of_month,omitempty"` // monthly and yearly only
	End        RecurrenceEnd  `json:"end"`
	EndDate    time.Time      `json:"end_date,omitempty"`
	Count      int            `json:"count,omitempty"`
}

func (p *RecurrencePattern) Validate() error {
	if p == nil {
		return nil
	}
	switch p.Type {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurYearly:
	default:
		return fmt.Errorf("invalid recurrence type: %q", p.Type)
	}
	if p.Interval < 1 {
		return errors.New("recurrence interval must be >= 1")
	}
	if len(p.DaysOfWeek) > 0 && p.Type != RecurWeekly {
		return errors.New("days of week are only valid for weekly recurrence")
	}
	if p.DayOfMonth != 0 {
		if p.Type != RecurMonthly && p.Type != RecurYearly {
			return errors.New("day of month is only valid for monthly or yearly recurrence")
		}
		if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
			return fmt.Errorf("day of month out of range: %d", p.DayOfMonth)
		}
	}
	switch p.End {
	case RecurEndNever:
		if !p.EndDate.IsZero() || p.Count != 0 {
			return errors.New("never-ending recurrence must not carry an end date or count")
		}
	case RecurEndOnDate:
		if p.EndDate.IsZero() {
			return errors.New("end date is required for on_date recurrence end")
		}
	case RecurEndAfterCount:
		if p.Count < 1 {
			return errors.New("count must be >= 1 for after_count recurrence end")
		}
	default:
		return fmt.Errorf("invalid recurrence end: %q", p.End)
	}
	return nil
}
