package layout

import (
	"testing"
	"time"

	"github.com/caseflow/lexcal/internal/domain"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 15, hour, min, 0, 0, time.UTC)
}

func timed(id string, start, end time.Time) domain.Event {
	return domain.Event{ID: id, Start: start, End: end}
}

func TestDayOverlapColumns(t *testing.T) {
	// A [09:00,10:00) and B [09:30,10:30) overlap; C [11:00,12:00) is alone.
	events := []domain.Event{
		timed("a", at(9, 0), at(10, 0)),
		timed("b", at(9, 30), at(10, 30)),
		timed("c", at(11, 0), at(12, 0)),
	}
	res := Day(day, events, 40)
	if len(res.Timed) != 3 {
		t.Fatalf("expected 3 timed events, got %d", len(res.Timed))
	}
	byID := map[string]Positioned{}
	for _, p := range res.Timed {
		byID[p.Event.ID] = p
	}
	a, b, c := byID["a"], byID["b"], byID["c"]
	if a.Column != 0 || a.Columns != 2 || a.Width != 50 || a.Left != 0 {
		t.Fatalf("unexpected geometry for a: %+v", a)
	}
	if b.Column != 1 || b.Columns != 2 || b.Width != 50 || b.Left != 50 {
		t.Fatalf("unexpected geometry for b: %+v", b)
	}
	if c.Column != 0 || c.Columns != 1 || c.Width != 100 {
		t.Fatalf("unexpected geometry for c: %+v", c)
	}
}

func TestDayTransitiveOverlap(t *testing.T) {
	// B bridges A and C: A [09:00,11:00), B [10:00,13:00), C [12:00,14:00).
	// C never overlaps A yet all three share one group through B.
	events := []domain.Event{
		timed("a", at(9, 0), at(11, 0)),
		timed("b", at(10, 0), at(13, 0)),
		timed("c", at(12, 0), at(14, 0)),
	}
	res := Day(day, events, 40)
	seen := map[int]bool{}
	for _, p := range res.Timed {
		if p.Columns != 3 {
			t.Fatalf("expected group of 3 for %s, got %d", p.Event.ID, p.Columns)
		}
		if seen[p.Column] {
			t.Fatalf("duplicate column %d", p.Column)
		}
		seen[p.Column] = true
	}
}

func TestDayMutualOverlapDistinctColumns(t *testing.T) {
	events := []domain.Event{
		timed("a", at(9, 0), at(12, 0)),
		timed("b", at(9, 15), at(12, 0)),
		timed("c", at(9, 30), at(12, 0)),
		timed("d", at(9, 45), at(12, 0)),
	}
	res := Day(day, events, 40)
	cols := map[int]bool{}
	for _, p := range res.Timed {
		if p.Columns != 4 || p.Width != 25 {
			t.Fatalf("unexpected geometry: %+v", p)
		}
		cols[p.Column] = true
	}
	for i := 0; i < 4; i++ {
		if !cols[i] {
			t.Fatalf("missing column %d", i)
		}
	}
}

func TestDayGeometry(t *testing.T) {
	res := Day(day, []domain.Event{timed("a", at(9, 30), at(11, 0))}, 40)
	p := res.Timed[0]
	if p.Top != 9.5*40 {
		t.Fatalf("unexpected top: %v", p.Top)
	}
	if p.Height != 1.5*40 {
		t.Fatalf("unexpected height: %v", p.Height)
	}
}

func TestDayMinimumHeight(t *testing.T) {
	res := Day(day, []domain.Event{timed("a", at(9, 0), at(9, 5))}, 40)
	if got := res.Timed[0].Height; got != minVisibleHours*40 {
		t.Fatalf("expected minimum height, got %v", got)
	}
}

func TestDayEndBeforeStartClamped(t *testing.T) {
	res := Day(day, []domain.Event{timed("a", at(10, 0), at(9, 0))}, 40)
	if len(res.Timed) != 1 {
		t.Fatalf("malformed event must still render, got %d", len(res.Timed))
	}
	p := res.Timed[0]
	if p.Top != 10*40 || p.Height != minVisibleHours*40 {
		t.Fatalf("unexpected clamped geometry: %+v", p)
	}
}

func TestDayAllDayPartition(t *testing.T) {
	events := []domain.Event{
		{ID: "flag", Start: day, End: day.AddDate(0, 0, 1), AllDay: true},
		{ID: "long", Start: at(0, 0), End: at(0, 0).Add(26 * time.Hour)}, // >= 24h
		timed("t", at(9, 0), at(10, 0)),
	}
	res := Day(day, events, 40)
	if len(res.AllDay) != 2 || len(res.Timed) != 1 {
		t.Fatalf("unexpected partition: allday=%d timed=%d", len(res.AllDay), len(res.Timed))
	}
}

func TestDayCrossMidnightClamped(t *testing.T) {
	// 22:00 to 02:00 next day: truncated at midnight on the start day and
	// resumed from midnight on the next.
	ev := timed("x", at(22, 0), at(22, 0).Add(4*time.Hour))

	first := Day(day, []domain.Event{ev}, 40)
	if len(first.Timed) != 1 {
		t.Fatalf("expected event on start day")
	}
	if p := first.Timed[0]; p.Top != 22*40 || p.Height != 2*40 {
		t.Fatalf("unexpected start-day geometry: %+v", p)
	}

	next := Day(day.AddDate(0, 0, 1), []domain.Event{ev}, 40)
	if len(next.Timed) != 1 {
		t.Fatalf("expected event on next day")
	}
	if p := next.Timed[0]; p.Top != 0 || p.Height != 2*40 {
		t.Fatalf("unexpected next-day geometry: %+v", p)
	}
}

func TestDayDisjointFullWidth(t *testing.T) {
	events := []domain.Event{
		timed("a", at(8, 0), at(9, 0)),
		timed("b", at(9, 0), at(10, 0)), // shared boundary is not overlap
	}
	res := Day(day, events, 40)
	for _, p := range res.Timed {
		if p.Columns != 1 || p.Width != 100 {
			t.Fatalf("disjoint event must fill the column: %+v", p)
		}
	}
}

func TestNowIndicator(t *testing.T) {
	pos, ok := NowIndicator(day, at(6, 30), 40)
	if !ok || pos != 6.5*40 {
		t.Fatalf("unexpected indicator: %v %v", pos, ok)
	}
	if _, ok := NowIndicator(day, at(6, 30).AddDate(0, 0, 1), 40); ok {
		t.Fatal("indicator must be absent on other days")
	}
}
