package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/caseflow/lexcal/internal/api"
	"github.com/caseflow/lexcal/internal/auth"
	"github.com/caseflow/lexcal/internal/backend"
	"github.com/caseflow/lexcal/internal/config"
	"github.com/caseflow/lexcal/internal/icsfeed"
	"github.com/caseflow/lexcal/internal/security"
	"github.com/caseflow/lexcal/internal/view"
)

type Application struct {
	cfg    config.Config
	http   *http.Client
	logger *slog.Logger
}

type Options struct {
	Config config.Config
	// HTTPClient is shared by the backend client and the ICS feed.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func New(opts Options) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Config.RequestTimeout}
	}
	return &Application{cfg: opts.Config, http: httpClient, logger: logger}
}

func (a *Application) Run(ctx context.Context) error {
	session, persist, err := a.loadSession()
	if err != nil {
		return err
	}

	client := backend.NewClient(backend.ClientOptions{
		EventsURL:  a.cfg.EventsURL,
		RefreshURL: a.cfg.RefreshURL,
		Session:    session,
		HTTPClient: a.http,
		Logger:     a.logger,
		Persist:    persist,
	})
	retry := backend.NewRetryController(client, a.logger)
	guarded := backend.NewGuarded(client, retry)
	controller := view.NewController(guarded, a.logger)

	server := api.New(api.Options{
		View:    controller,
		Mutator: guarded,
		Retry:   retry,
		Guard: security.TokenGuard{
			Required: a.cfg.RequireAPIToken,
			Token:    a.cfg.APIToken,
		},
		HourHeight: a.cfg.HourHeight,
		Logger:     a.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := server.ServeTCP(ctx, a.cfg.BindAddress)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}

	if a.cfg.ICSFeedURL != "" {
		feed := icsfeed.New(a.cfg.ICSFeedURL, a.cfg.ICSFeedCalendarID, a.http, a.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runFeed(ctx, feed, controller)
		}()
	}

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}

// loadSession restores persisted backend tokens. A missing session file is
// not an error: the engine starts disconnected and waits for a reconnect.
func (a *Application) loadSession() (auth.Session, func(auth.Session) error, error) {
	if a.cfg.SessionPath == "" {
		return auth.Session{}, nil, nil
	}
	store := auth.Store{Path: a.cfg.SessionPath}
	persist := func(s auth.Session) error {
		return store.Save(s, a.cfg.SessionPassphrase)
	}
	session, err := store.Load(a.cfg.SessionPassphrase)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Info("no stored session, starting disconnected", "path", a.cfg.SessionPath)
		return auth.Session{}, persist, nil
	}
	if err != nil {
		return auth.Session{}, nil, fmt.Errorf("load session: %w", err)
	}
	a.logger.Info("session restored", "account", session.Account)
	return session, persist, nil
}

// runFeed pulls the subscribed ICS calendar on startup and then on the
// configured interval. Feed failures are logged, never fatal.
func (a *Application) runFeed(ctx context.Context, feed *icsfeed.Feed, controller *view.Controller) {
	interval := a.cfg.ICSFeedInterval
	if interval <= 0 {
		interval = time.Hour
	}
	a.pullFeed(ctx, feed, controller)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pullFeed(ctx, feed, controller)
		}
	}
}

func (a *Application) pullFeed(ctx context.Context, feed *icsfeed.Feed, controller *view.Controller) {
	events, err := feed.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.logger.Warn("ics feed fetch failed", "error", err)
		}
		return
	}
	controller.Merge(events...)
	a.logger.Debug("ics feed merged", "events", len(events))
}
