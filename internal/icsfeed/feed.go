// Package icsfeed pulls a subscribed read-only ICS calendar (court
// holidays, firm closures) into the engine's event store.
package icsfeed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/caseflow/lexcal/internal/domain"
	"github.com/caseflow/lexcal/internal/recurrence"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Feed fetches and converts one ICS subscription. Feed events are always
// classified organizational and keyed under the feed's calendar id.
type Feed struct {
	url        string
	calendarID string
	client     HTTPDoer
	log        *slog.Logger
}

func New(url, calendarID string, client HTTPDoer, logger *slog.Logger) *Feed {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{url: url, calendarID: calendarID, client: client, log: logger}
}

// Fetch downloads and parses the subscription. Events without a UID or
// start time are skipped rather than failing the whole feed.
func (f *Feed) Fetch(ctx context.Context) ([]domain.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ics feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch ics feed: unexpected status %d", resp.StatusCode)
	}

	cal, err := ics.ParseCalendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse ics feed: %w", err)
	}

	var out []domain.Event
	for _, item := range cal.Events() {
		ev, ok := f.convert(item)
		if !ok {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *Feed) convert(item *ics.VEvent) (domain.Event, bool) {
	id := item.Id()
	startProp := item.GetProperty(ics.ComponentPropertyDtStart)
	if id == "" || startProp == nil {
		return domain.Event{}, false
	}
	allDay := len(startProp.Value) == len("20060102")

	var start, end time.Time
	var err error
	if allDay {
		start, err = item.GetAllDayStartAt()
	} else {
		start, err = item.GetStartAt()
	}
	if err != nil {
		f.log.Warn("skipping feed event with unparsable start", "uid", id, "error", err)
		return domain.Event{}, false
	}
	if allDay {
		end, err = item.GetAllDayEndAt()
	} else {
		end, err = item.GetEndAt()
	}
	if err != nil {
		end = start
		if allDay {
			end = start.AddDate(0, 0, 1)
		}
	}

	ev := domain.Event{
		ID:             f.calendarID + ":" + id,
		CalendarID:     f.calendarID,
		Subject:        propValue(item, ics.ComponentPropertySummary),
		Location:       propValue(item, ics.ComponentPropertyLocation),
		Organizer:      propValue(item, ics.ComponentPropertyOrganizer),
		Start:          start,
		End:            end,
		AllDay:         allDay,
		Organizational: true,
	}

	if raw := propValue(item, ics.ComponentProperty(ics.PropertyRrule)); raw != "" {
		pattern, err := recurrence.ParseRRule(raw)
		if err != nil {
			f.log.Warn("skipping unparsable feed rrule", "uid", id, "error", err)
		} else {
			ev.Recurrence = pattern
		}
	}
	return ev, true
}

func propValue(item *ics.VEvent, name ics.ComponentProperty) string {
	if p := item.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
