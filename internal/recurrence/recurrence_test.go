package recurrence

import (
	"testing"
	"time"

	"github.com/caseflow/lexcal/internal/domain"
)

func TestIsRecurring(t *testing.T) {
	if IsRecurring(domain.Event{ID: "a"}) {
		t.Fatal("event without pattern must not be recurring")
	}
	ev := domain.Event{ID: "b", Recurrence: &domain.RecurrencePattern{Type: domain.RecurDaily, Interval: 1, End: domain.RecurEndNever}}
	if !IsRecurring(ev) {
		t.Fatal("event with pattern must be recurring")
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		name    string
		pattern *domain.RecurrencePattern
		want    string
	}{
		{"nil", nil, ""},
		{"daily", &domain.RecurrencePattern{Type: domain.RecurDaily, Interval: 1, End: domain.RecurEndNever}, "Daily"},
		{"every 3 weeks", &domain.RecurrencePattern{Type: domain.RecurWeekly, Interval: 3, End: domain.RecurEndNever}, "Every 3 weeks"},
		{
			"weekly with days",
			&domain.RecurrencePattern{
				Type: domain.RecurWeekly, Interval: 1,
				DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
				End:        domain.RecurEndNever,
			},
			"Weekly on Mon, Wed, Fri",
		},
		{
			"monthly on day",
			&domain.RecurrencePattern{Type: domain.RecurMonthly, Interval: 1, DayOfMonth: 15, End: domain.RecurEndNever},
			"Monthly on day 15",
		},
		{
			"until date",
			&domain.RecurrencePattern{
				Type: domain.RecurDaily, Interval: 2,
				End: domain.RecurEndOnDate, EndDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			},
			"Every 2 days until Mar 1, 2025",
		},
		{
			"after count",
			&domain.RecurrencePattern{Type: domain.RecurYearly, Interval: 1, End: domain.RecurEndAfterCount, Count: 5},
			"Yearly for 5 occurrences",
		},
	}
	for _, tc := range cases {
		if got := Describe(tc.pattern); got != tc.want {
			t.Fatalf("%s: Describe() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseRRuleWeekly(t *testing.T) {
	p, err := ParseRRule("RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,FR")
	if err != nil {
		t.Fatalf("ParseRRule: %v", err)
	}
	if p.Type != domain.RecurWeekly || p.Interval != 2 {
		t.Fatalf("unexpected pattern: %+v", p)
	}
	if len(p.DaysOfWeek) != 2 || p.DaysOfWeek[0] != time.Monday || p.DaysOfWeek[1] != time.Friday {
		t.Fatalf("unexpected days: %v", p.DaysOfWeek)
	}
	if p.End != domain.RecurEndNever {
		t.Fatalf("unexpected end: %v", p.End)
	}
}

func TestParseRRuleMonthlyWithCount(t *testing.T) {
	p, err := ParseRRule("FREQ=MONTHLY;BYMONTHDAY=15;COUNT=6")
	if err != nil {
		t.Fatalf("ParseRRule: %v", err)
	}
	if p.Type != domain.RecurMonthly || p.DayOfMonth != 15 {
		t.Fatalf("unexpected pattern: %+v", p)
	}
	if p.End != domain.RecurEndAfterCount || p.Count != 6 {
		t.Fatalf("unexpected end: %+v", p)
	}
	if p.Interval != 1 {
		t.Fatalf("missing interval must default to 1, got %d", p.Interval)
	}
}

func TestParseRRuleUntil(t *testing.T) {
	p, err := ParseRRule("FREQ=DAILY;UNTIL=20251231T000000Z")
	if err != nil {
		t.Fatalf("ParseRRule: %v", err)
	}
	if p.End != domain.RecurEndOnDate || p.EndDate.Year() != 2025 {
		t.Fatalf("unexpected end: %+v", p)
	}
}

func TestParseRRuleRejects(t *testing.T) {
	for _, raw := range []string{"", "FREQ=HOURLY", "not an rrule"} {
		if _, err := ParseRRule(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
