// Package layout derives per-day visual geometry for calendar events:
// the all-day/timed split, top/height positions against an hour grid, and
// side-by-side column assignment for overlapping events.
package layout

import (
	"sort"
	"time"

	"github.com/caseflow/lexcal/internal/domain"
)

// minVisibleHours keeps very short events tall enough to click.
const minVisibleHours = 0.5

// Positioned is a timed event with its computed geometry. Top and Height
// are in layout units (unitHeight per hour); Left and Width are percents
// of the day column.
type Positioned struct {
	Event   domain.Event `json:"event"`
	Top     float64      `json:"top"`
	Height  float64      `json:"height"`
	Column  int          `json:"column"`
	Columns int          `json:"columns"`
	Left    float64      `json:"left"`
	Width   float64      `json:"width"`
}

// DayLayout is the render-ready result for a single calendar day.
type DayLayout struct {
	Date   time.Time      `json:"date"`
	AllDay []domain.Event `json:"all_day"`
	Timed  []Positioned   `json:"timed"`
}

// Day lays out the given events for the calendar day containing date.
// Events that merely touch the day (cross-midnight spans) are clamped to
// the day's [00:00, 24:00) window before geometry is computed, so a late
// evening event appears truncated on its start day and resumes at the top
// of the next. Events whose end precedes their start are treated as
// zero-duration at their start instant, never rejected.
func Day(date time.Time, events []domain.Event, unitHeight float64) DayLayout {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	out := DayLayout{Date: dayStart}

	type span struct {
		event      domain.Event
		start, end time.Time
	}
	var timed []span
	for _, e := range events {
		if e.IsAllDay() {
			out.AllDay = append(out.AllDay, e)
			continue
		}
		start, end := e.Start, e.End
		if end.Before(start) {
			end = start
		}
		if start.Equal(end) {
			// Zero-duration event: renders only on its own day.
			if start.Before(dayStart) || !start.Before(dayEnd) {
				continue
			}
			timed = append(timed, span{event: e, start: start, end: end})
			continue
		}
		if !start.Before(dayEnd) || !end.After(dayStart) {
			continue
		}
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		timed = append(timed, span{event: e, start: start, end: end})
	}

	sort.SliceStable(timed, func(i, j int) bool {
		if !timed[i].start.Equal(timed[j].start) {
			return timed[i].start.Before(timed[j].start)
		}
		return timed[i].end.Before(timed[j].end)
	})

	// Sweep into transitive overlap groups: an event joins the active
	// group when it starts before the latest end seen so far in the
	// group, not merely before its immediate predecessor's end.
	var groups [][]span
	var current []span
	var maxEnd time.Time
	for _, s := range timed {
		if len(current) > 0 && s.start.Before(maxEnd) {
			current = append(current, s)
			if s.end.After(maxEnd) {
				maxEnd = s.end
			}
			continue
		}
		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = []span{s}
		maxEnd = s.end
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	for _, group := range groups {
		width := 100.0 / float64(len(group))
		for col, s := range group {
			hours := s.end.Sub(s.start).Hours()
			if hours < minVisibleHours {
				hours = minVisibleHours
			}
			out.Timed = append(out.Timed, Positioned{
				Event:   s.event,
				Top:     s.start.Sub(dayStart).Hours() * unitHeight,
				Height:  hours * unitHeight,
				Column:  col,
				Columns: len(group),
				Left:    float64(col) * width,
				Width:   width,
			})
		}
	}
	return out
}

// NowIndicator computes the horizontal marker position for the current
// instant on the given day. The second return value is false when now
// does not fall on that calendar date.
func NowIndicator(date, now time.Time, unitHeight float64) (float64, bool) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	local := now.In(date.Location())
	if local.Year() != dayStart.Year() || local.Month() != dayStart.Month() || local.Day() != dayStart.Day() {
		return 0, false
	}
	return local.Sub(dayStart).Hours() * unitHeight, true
}
