// Package recurrence interprets recurrence descriptors for display. It
// never expands a pattern into occurrence instances; the backend owns
// materialization.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/caseflow/lexcal/internal/domain"
)

// IsRecurring reports whether the event carries a recurrence descriptor.
func IsRecurring(e domain.Event) bool {
	return e.Recurrence != nil
}

// Describe renders a short natural-language phrase for the pattern, e.g.
// "Every 2 weeks on Mon, Wed until Mar 1, 2025". Returns "" for nil.
func Describe(p *domain.RecurrencePattern) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	switch {
	case p.Interval <= 1:
		b.WriteString(baseLabel(p.Type))
	default:
		b.WriteString(fmt.Sprintf("Every %d %s", p.Interval, unitLabel(p.Type)))
	}
	if p.Type == domain.RecurWeekly && len(p.DaysOfWeek) > 0 {
		names := make([]string, len(p.DaysOfWeek))
		for i, d := range p.DaysOfWeek {
			names[i] = d.String()[:3]
		}
		b.WriteString(" on " + strings.Join(names, ", "))
	}
	if (p.Type == domain.RecurMonthly || p.Type == domain.RecurYearly) && p.DayOfMonth > 0 {
		b.WriteString(fmt.Sprintf(" on day %d", p.DayOfMonth))
	}
	switch p.End {
	case domain.RecurEndOnDate:
		b.WriteString(" until " + p.EndDate.Format("Jan 2, 2006"))
	case domain.RecurEndAfterCount:
		b.WriteString(fmt.Sprintf(" for %d occurrences", p.Count))
	}
	return b.String()
}

func baseLabel(t domain.RecurrenceType) string {
	switch t {
	case domain.RecurDaily:
		return "Daily"
	case domain.RecurWeekly:
		return "Weekly"
	case domain.RecurMonthly:
		return "Monthly"
	default:
		return "Yearly"
	}
}

func unitLabel(t domain.RecurrenceType) string {
	switch t {
	case domain.RecurDaily:
		return "days"
	case domain.RecurWeekly:
		return "weeks"
	case domain.RecurMonthly:
		return "months"
	default:
		return "years"
	}
}

// ParseRRule translates an iCalendar RRULE line into the structured
// pattern the interpreter describes. Frequencies below daily are not
// representable and are rejected.
func ParseRRule(raw string) (*domain.RecurrencePattern, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:"))
	if raw == "" {
		return nil, fmt.Errorf("empty rrule")
	}
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}
	opt := r.OrigOptions

	p := &domain.RecurrencePattern{Interval: opt.Interval, End: domain.RecurEndNever}
	if p.Interval < 1 {
		p.Interval = 1
	}
	switch opt.Freq {
	case rrule.DAILY:
		p.Type = domain.RecurDaily
	case rrule.WEEKLY:
		p.Type = domain.RecurWeekly
		for _, wd := range opt.Byweekday {
			// rrule counts Monday as 0, time.Weekday counts Sunday as 0.
			p.DaysOfWeek = append(p.DaysOfWeek, time.Weekday((wd.Day()+1)%7))
		}
	case rrule.MONTHLY:
		p.Type = domain.RecurMonthly
		if len(opt.Bymonthday) > 0 {
			p.DayOfMonth = opt.Bymonthday[0]
		}
	case rrule.YEARLY:
		p.Type = domain.RecurYearly
		if len(opt.Bymonthday) > 0 {
			p.DayOfMonth = opt.Bymonthday[0]
		}
	default:
		return nil, fmt.Errorf("unsupported rrule frequency: %v", opt.Freq)
	}
	switch {
	case opt.Count > 0:
		p.End = domain.RecurEndAfterCount
		p.Count = opt.Count
	case !opt.Until.IsZero():
		p.End = domain.RecurEndOnDate
		p.EndDate = opt.Until
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("rrule maps to invalid pattern: %w", err)
	}
	return p, nil
}
