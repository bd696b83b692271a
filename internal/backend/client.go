// Package backend is the boundary to the practice-management REST API:
// an HTTP client for the event endpoints, typed classification of the
// API's failure envelope, and the token-refresh retry controller that
// guards every outbound call.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/caseflow/lexcal/internal/auth"
	"github.com/caseflow/lexcal/internal/domain"
)

// HTTPDoer lets tests substitute the transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ConnectionStatus string

const (
	StatusUnknown      ConnectionStatus = "unknown"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Client talks to the calendar backend. It holds the current session
// tokens and optionally persists rotated ones through a session store.
type Client struct {
	eventsURL  string
	refreshURL string
	http       HTTPDoer
	log        *slog.Logger
	persist    func(auth.Session) error

	mu      sync.RWMutex
	session auth.Session
	status  ConnectionStatus
}

type ClientOptions struct {
	EventsURL  string
	RefreshURL string
	Session    auth.Session
	HTTPClient HTTPDoer
	Logger     *slog.Logger
	// Persist, when set, is called with the rotated session after each
	// successful refresh.
	Persist func(auth.Session) error
}

func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		eventsURL:  opts.EventsURL,
		refreshURL: opts.RefreshURL,
		http:       httpClient,
		log:        logger,
		persist:    opts.Persist,
		session:    opts.Session,
		status:     StatusUnknown,
	}
}

func (c *Client) Status() ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) SetSession(s auth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) setStatus(status ConnectionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.AccessToken
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type eventsPayload struct {
	Events []wireEvent `json:"events"`
}

type refreshPayload struct {
	Refreshed    bool   `json:"refreshed"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type wireEvent struct {
	ID             string          `json:"id"`
	CalendarID     string          `json:"calendarId"`
	Subject        string          `json:"subject,omitempty"`
	Location       string          `json:"location,omitempty"`
	Organizer      string          `json:"organizer,omitempty"`
	Attendees      []string        `json:"attendees,omitempty"`
	StartTime      time.Time       `json:"startTime"`
	EndTime        time.Time       `json:"endTime"`
	IsAllDay       bool            `json:"isAllDay"`
	Organizational bool            `json:"isOrganizational"`
	Recurrence     *wireRecurrence `json:"recurrence,omitempty"`
}

type wireRecurrence struct {
	Type       string `json:"type"`
	Interval   int    `json:"interval"`
	DaysOfWeek []int  `json:"daysOfWeek,omitempty"`
	DayOfMonth int    `json:"dayOfMonth,omitempty"`
	EndType    string `json:"endType,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	Count      int    `json:"occurrenceCount,omitempty"`
}

func (w wireEvent) toDomain() domain.Event {
	return domain.Event{
		ID:             w.ID,
		CalendarID:     w.CalendarID,
		Subject:        w.Subject,
		Location:       w.Location,
		Organizer:      w.Organizer,
		Attendees:      w.Attendees,
		Start:          w.StartTime,
		End:            w.EndTime,
		AllDay:         w.IsAllDay,
		Organizational: w.Organizational,
		Recurrence:     w.Recurrence.toDomain(),
	}
}

func (w *wireRecurrence) toDomain() *domain.RecurrencePattern {
	if w == nil {
		return nil
	}
	p := &domain.RecurrencePattern{
		Type:       domain.RecurrenceType(w.Type),
		Interval:   w.Interval,
		DayOfMonth: w.DayOfMonth,
		End:        domain.RecurEndNever,
	}
	if p.Interval < 1 {
		p.Interval = 1
	}
	for _, d := range w.DaysOfWeek {
		if d >= 0 && d <= 6 {
			p.DaysOfWeek = append(p.DaysOfWeek, time.Weekday(d))
		}
	}
	switch w.EndType {
	case "onDate":
		p.End = domain.RecurEndOnDate
		if t, err := time.Parse("2006-01-02", w.EndDate); err == nil {
			p.EndDate = t
		}
	case "afterCount":
		p.End = domain.RecurEndAfterCount
		p.Count = w.Count
	}
	return p
}

// FetchEvents retrieves every event in the window, date-only boundaries
// per the backend contract.
func (c *Client) FetchEvents(ctx context.Context, r domain.TimeRange) ([]domain.Event, error) {
	q := url.Values{}
	q.Set("startDate", r.Start.Format("2006-01-02"))
	q.Set("endDate", r.End.Format("2006-01-02"))
	var payload eventsPayload
	if err := c.call(ctx, http.MethodGet, c.eventsURL+"?"+q.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(payload.Events))
	for _, w := range payload.Events {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// Refresh performs one silent token refresh, rotating the stored session
// when the backend returns new tokens.
func (c *Client) Refresh(ctx context.Context) error {
	var payload refreshPayload
	if err := c.call(ctx, http.MethodPost, c.refreshURL, nil, &payload); err != nil {
		return err
	}
	if !payload.Refreshed {
		return &APIError{Message: "backend declined token refresh"}
	}
	if payload.AccessToken != "" {
		c.mu.Lock()
		c.session.AccessToken = payload.AccessToken
		if payload.RefreshToken != "" {
			c.session.RefreshToken = payload.RefreshToken
		}
		rotated := c.session
		c.mu.Unlock()
		if c.persist != nil {
			if err := c.persist(rotated); err != nil {
				c.log.Warn("failed to persist rotated session", "error", err)
			}
		}
	}
	c.log.Info("backend session refreshed")
	return nil
}

func (c *Client) CreateEvent(ctx context.Context, e domain.Event) error {
	return c.call(ctx, http.MethodPost, c.eventsURL, e, nil)
}

func (c *Client) UpdateEvent(ctx context.Context, e domain.Event) error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	return c.call(ctx, http.MethodPut, c.eventsURL+"/"+url.PathEscape(e.ID), e, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("event id is required")
	}
	return c.call(ctx, http.MethodDelete, c.eventsURL+"/"+url.PathEscape(id), nil, nil)
}

// call issues one request and decodes the response envelope. A non-success
// envelope is classified into AuthExpiredError or APIError; transport
// errors pass through wrapped.
func (c *Client) call(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.setStatus(StatusDisconnected)
		return &APIError{StatusCode: resp.StatusCode, Message: "undecodable response"}
	}
	if !env.Success {
		classified := classify(resp.StatusCode, env.Message)
		if IsAuthExpired(classified) {
			c.setStatus(StatusDisconnected)
		}
		return classified
	}
	c.setStatus(StatusConnected)
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
