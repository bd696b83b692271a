package backend

import (
	"context"
	"net/http"
	"testing"

	"github.com/caseflow/lexcal/internal/domain"
)

func TestGuardedFetchRecoversFromExpiry(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		jsonResponse(401, `{"success":false,"message":"access token expired"}`),
		jsonResponse(200, `{"success":true,"data":{"refreshed":true,"accessToken":"tok-2"}}`),
		jsonResponse(200, `{"success":true,"data":{"events":[{"id":"e1","calendarId":"c","startTime":"2024-03-15T09:00:00Z","endTime":"2024-03-15T10:00:00Z"}]}}`),
	}}
	client := newTestClient(doer)
	g := NewGuarded(client, NewRetryController(client, nil))

	events, err := g.FetchEvents(context.Background(), domain.TimeRange{})
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("unexpected events: %+v", events)
	}
	// fetch, refresh, replayed fetch.
	if len(doer.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(doer.requests))
	}
	if got := doer.requests[2].Header.Get("Authorization"); got != "Bearer tok-2" {
		t.Fatalf("replay must carry the refreshed token, got %q", got)
	}
}

func TestGuardedReconnect(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		jsonResponse(200, `{"success":true,"data":{"refreshed":true,"accessToken":"tok-2"}}`),
		jsonResponse(200, `{"success":true,"data":{"refreshed":true,"accessToken":"tok-3"}}`),
	}}
	client := newTestClient(doer)
	retry := NewRetryController(client, nil)
	g := NewGuarded(client, retry)

	_ = retry.Do(context.Background(), func(context.Context) error {
		return &AuthExpiredError{Message: "expired"}
	})
	if err := g.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if retry.State() != StateIdle {
		t.Fatalf("reconnect must reset the controller, state=%s", retry.State())
	}
}
