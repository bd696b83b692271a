// Package view owns the calendar view state: the accumulated event store,
// the fetched-window cache, and the merge rules that keep overlapping
// fetches idempotent.
package view

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/caseflow/lexcal/internal/domain"
	"github.com/caseflow/lexcal/internal/viewrange"
)

// EventSource fetches the events of a window from the backend. In
// production this is the guarded backend client.
type EventSource interface {
	FetchEvents(ctx context.Context, r domain.TimeRange) ([]domain.Event, error)
}

// Controller accumulates events across overlapping fetch windows and
// tracks which windows have already been retrieved. It is constructed per
// calendar session and injected wherever view state is needed; there is
// no package-level instance.
type Controller struct {
	source EventSource
	log    *slog.Logger

	mu       sync.Mutex
	store    map[string]domain.Event
	fetched  map[string]struct{}
	inflight map[string]chan struct{}

	// Month-view period tracking: crossing a month boundary clears the
	// whole fetched set rather than trusting key equality alone.
	monthSeen bool
	year      int
	month     time.Month
}

func NewController(source EventSource, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source:   source,
		log:      logger,
		store:    make(map[string]domain.Event),
		fetched:  make(map[string]struct{}),
		inflight: make(map[string]chan struct{}),
	}
}

// cacheKey canonicalizes a window to its date-only boundaries so two
// logically identical windows share one key.
func cacheKey(r domain.TimeRange) string {
	return r.Start.Format("2006-01-02") + "_" + r.End.Format("2006-01-02")
}

// EnsureFetched guarantees the resolved window for (mode, anchor) has
// been retrieved, fetching at most once per cache key. Concurrent calls
// for the same uncovered window share a single in-flight fetch. On
// failure the key stays unrecorded so a later render can retry.
func (c *Controller) EnsureFetched(ctx context.Context, mode domain.ViewMode, anchor time.Time) error {
	r := viewrange.Resolve(mode, anchor)
	key := cacheKey(r)

	for {
		c.mu.Lock()
		c.rollPeriodLocked(mode, anchor)
		if _, ok := c.fetched[key]; ok {
			c.mu.Unlock()
			return nil
		}
		if ch, ok := c.inflight[key]; ok {
			c.mu.Unlock()
			select {
			case <-ch:
				continue // re-check: the other fetch may have failed
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		done := make(chan struct{})
		c.inflight[key] = done
		c.mu.Unlock()

		events, err := c.source.FetchEvents(ctx, r)

		c.mu.Lock()
		delete(c.inflight, key)
		close(done)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		for _, e := range events {
			c.store[e.ID] = e
		}
		c.fetched[key] = struct{}{}
		c.mu.Unlock()

		c.log.Debug("window fetched", "key", key, "events", len(events))
		return nil
	}
}

// rollPeriodLocked clears the fetched-window set when the month view
// crosses into a different (year, month) period.
func (c *Controller) rollPeriodLocked(mode domain.ViewMode, anchor time.Time) {
	if mode != domain.ViewMonth {
		return
	}
	if c.monthSeen && (anchor.Year() != c.year || anchor.Month() != c.month) {
		c.log.Debug("month period changed, clearing fetch cache",
			"from", time.Date(c.year, c.month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			"to", anchor.Format("2006-01"))
		c.fetched = make(map[string]struct{})
	}
	c.monthSeen = true
	c.year = anchor.Year()
	c.month = anchor.Month()
}

// Merge inserts events by id, last write wins. External feeds use it
// directly; fetches go through EnsureFetched.
func (c *Controller) Merge(events ...domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range events {
		c.store[e.ID] = e
	}
}

// Invalidate clears the fetched-window set so the next render forces a
// fresh fetch. Called after any successful event mutation or reconnect.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched = make(map[string]struct{})
}

// EventsIn returns the accumulated events intersecting the range, ordered
// by start instant then id for deterministic rendering.
func (c *Controller) EventsIn(r domain.TimeRange) []domain.Event {
	c.mu.Lock()
	out := make([]domain.Event, 0, len(c.store))
	for _, e := range c.store {
		end := e.End
		if end.Before(e.Start) {
			end = e.Start
		}
		if r.Overlaps(e.Start, end) {
			out = append(out, e)
		}
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EventsOn returns the events touching the calendar day containing date.
func (c *Controller) EventsOn(date time.Time) []domain.Event {
	start := viewrange.StartOfDay(date)
	return c.EventsIn(domain.TimeRange{Start: start, End: viewrange.EndOfDay(date)})
}

// Size reports the number of distinct events accumulated so far.
func (c *Controller) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}
