// Package api exposes the view engine's read surface to rendering
// collaborators over a loopback HTTP server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow/lexcal/internal/backend"
	"github.com/caseflow/lexcal/internal/domain"
	"github.com/caseflow/lexcal/internal/layout"
	"github.com/caseflow/lexcal/internal/recurrence"
	"github.com/caseflow/lexcal/internal/security"
	"github.com/caseflow/lexcal/internal/view"
	"github.com/caseflow/lexcal/internal/viewrange"
)

// Mutator is the write-side backend surface. Every successful mutation
// invalidates the view cache.
type Mutator interface {
	CreateEvent(ctx context.Context, e domain.Event) error
	UpdateEvent(ctx context.Context, e domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
	Reconnect(ctx context.Context) error
	Status() backend.ConnectionStatus
}

type Server struct {
	view       *view.Controller
	mutator    Mutator
	retry      *backend.RetryController
	guard      security.TokenGuard
	hourHeight float64
	log        *slog.Logger
	httpSrv    *http.Server
	now        func() time.Time
}

type Options struct {
	View       *view.Controller
	Mutator    Mutator
	Retry      *backend.RetryController
	Guard      security.TokenGuard
	HourHeight float64
	Logger     *slog.Logger
	Now        func() time.Time
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hourHeight := opts.HourHeight
	if hourHeight <= 0 {
		hourHeight = 48
	}
	s := &Server{
		view:       opts.View,
		mutator:    opts.Mutator,
		retry:      opts.Retry,
		guard:      opts.Guard,
		hourHeight: hourHeight,
		log:        logger,
		now:        now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/view", s.handleView)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/events/create", s.handleCreateEvent)
	mux.HandleFunc("/v1/events/update", s.handleUpdateEvent)
	mux.HandleFunc("/v1/events/delete", s.handleDeleteEvent)
	mux.HandleFunc("/v1/reconnect", s.handleReconnect)
	s.httpSrv = &http.Server{Handler: s.wrap(mux), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()
		if r.URL.Path != "/healthz" && !s.guard.Allow(r) {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
		s.log.Debug("request served",
			"request_id", requestID, "method", r.Method, "path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"backend":    string(s.mutator.Status()),
		"refreshing": s.retry.Refreshing(),
	})
}

// dayView is one rendered day: layout geometry plus recurrence
// annotations keyed by event id.
type dayView struct {
	layout.DayLayout
	NowIndicator *float64          `json:"now_indicator,omitempty"`
	Recurrence   map[string]string `json:"recurrence,omitempty"`
}

type viewResponse struct {
	Mode   domain.ViewMode  `json:"mode"`
	Anchor string           `json:"anchor"`
	Range  domain.TimeRange `json:"range"`
	Days   []dayView        `json:"days"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	mode, err := domain.ParseViewMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	anchor, err := time.Parse("2006-01-02", r.URL.Query().Get("anchor"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
		return
	}

	if err := s.view.EnsureFetched(r.Context(), mode, anchor); err != nil {
		s.writeBackendErr(w, err)
		return
	}

	resp := viewResponse{
		Mode:   mode,
		Anchor: anchor.Format("2006-01-02"),
		Range:  viewrange.Visible(mode, anchor),
	}
	now := s.now()
	for _, day := range viewrange.Days(mode, anchor) {
		events := s.view.EventsOn(day)
		dv := dayView{DayLayout: layout.Day(day, events, s.hourHeight)}
		if pos, ok := layout.NowIndicator(day, now, s.hourHeight); ok {
			dv.NowIndicator = &pos
		}
		for _, e := range events {
			if recurrence.IsRecurring(e) {
				if dv.Recurrence == nil {
					dv.Recurrence = make(map[string]string)
				}
				dv.Recurrence[e.ID] = recurrence.Describe(e.Recurrence)
			}
		}
		resp.Days = append(resp.Days, dv)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	from, err := parseDayBound(r.URL.Query().Get("from"), false)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDayBound(r.URL.Query().Get("to"), true)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, s.view.EventsIn(domain.TimeRange{Start: from, End: to}))
}

func parseDayBound(v string, endOfDay bool) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return viewrange.EndOfDay(t), nil
	}
	return t, nil
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, func(ctx context.Context, payload mutationRequest) error {
		return s.mutator.CreateEvent(ctx, payload.Event)
	})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, func(ctx context.Context, payload mutationRequest) error {
		return s.mutator.UpdateEvent(ctx, payload.Event)
	})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, func(ctx context.Context, payload mutationRequest) error {
		return s.mutator.DeleteEvent(ctx, payload.EventID)
	})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.mutator.Reconnect(r.Context()); err != nil {
		s.writeBackendErr(w, err)
		return
	}
	s.view.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reconnected"})
}

type mutationRequest struct {
	EventID string       `json:"event_id,omitempty"`
	Event   domain.Event `json:"event"`
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request, run func(context.Context, mutationRequest) error) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := run(r.Context(), payload); err != nil {
		s.writeBackendErr(w, err)
		return
	}
	// A successful mutation makes every cached window stale.
	s.view.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeBackendErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backend.ErrReconnectRequired):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": err.Error(),
			"code":  "reconnect_required",
		})
	case backend.IsAuthExpired(err):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": err.Error(),
			"code":  "auth_expired",
		})
	default:
		writeErr(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
