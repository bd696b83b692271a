// Package viewrange resolves the fetch window and visible span for a view
// mode and anchor date.
package viewrange

import (
	"time"

	"github.com/caseflow/lexcal/internal/domain"
)

// monthPadDays covers the leading and trailing cells a month grid renders
// from the neighboring months.
const monthPadDays = 7

// Resolve computes the inclusive fetch window for the given view mode and
// anchor date. Week-based views are padded by one full calendar week on
// each side and the month view by a week of grid spillover days, so
// adjacent-period navigation never needs an immediate refetch.
func Resolve(mode domain.ViewMode, anchor time.Time) domain.TimeRange {
	switch mode {
	case domain.ViewDay:
		return domain.TimeRange{Start: StartOfDay(anchor), End: EndOfDay(anchor)}
	case domain.ViewWorkWeek:
		start := startOfWeek(anchor, time.Monday)
		return domain.TimeRange{
			Start: start.AddDate(0, 0, -7),
			End:   EndOfDay(start.AddDate(0, 0, 4+7)),
		}
	case domain.ViewWeek:
		start := startOfWeek(anchor, time.Sunday)
		return domain.TimeRange{
			Start: start.AddDate(0, 0, -7),
			End:   EndOfDay(start.AddDate(0, 0, 6+7)),
		}
	default: // month
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		last := first.AddDate(0, 1, -1)
		return domain.TimeRange{
			Start: first.AddDate(0, 0, -monthPadDays),
			End:   EndOfDay(last.AddDate(0, 0, monthPadDays)),
		}
	}
}

// Visible computes the unpadded span the view actually renders.
func Visible(mode domain.ViewMode, anchor time.Time) domain.TimeRange {
	switch mode {
	case domain.ViewDay:
		return domain.TimeRange{Start: StartOfDay(anchor), End: EndOfDay(anchor)}
	case domain.ViewWorkWeek:
		start := startOfWeek(anchor, time.Monday)
		return domain.TimeRange{Start: start, End: EndOfDay(start.AddDate(0, 0, 4))}
	case domain.ViewWeek:
		start := startOfWeek(anchor, time.Sunday)
		return domain.TimeRange{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
	default:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		return domain.TimeRange{Start: first, End: EndOfDay(first.AddDate(0, 1, -1))}
	}
}

// Days lists the calendar days of the visible span, midnight-aligned.
func Days(mode domain.ViewMode, anchor time.Time) []time.Time {
	span := Visible(mode, anchor)
	var out []time.Time
	for d := span.Start; d.Before(span.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last represented instant of t's date, 23:59:59.999.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	diff := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -diff)
}
