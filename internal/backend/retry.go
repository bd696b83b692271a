package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// State names a position in the retry controller's lifecycle for one
// logical call.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRefreshing
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRefreshing:
		return "refreshing"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Refresher performs one silent token refresh against the backend.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RetryController guards outbound backend calls with a bounded recovery
// policy: on an authorization-expiry failure it performs exactly one
// silent refresh and replays the call exactly once. A second expiry on
// the replay is terminal. Concurrent guarded calls each run their own
// refresh; the Refreshing flag exists for UI state, not deduplication.
type RetryController struct {
	refresher Refresher
	log       *slog.Logger

	mu            sync.Mutex
	state         State
	refreshing    bool
	refreshTried  bool
	lastRefreshOK bool
}

func NewRetryController(refresher Refresher, logger *slog.Logger) *RetryController {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryController{refresher: refresher, log: logger, state: StateIdle}
}

// Do runs attempt under the retry policy. Non-auth failures pass through
// untouched with no refresh attempted.
func (c *RetryController) Do(ctx context.Context, attempt func(context.Context) error) error {
	c.setState(StateRequesting)
	err := attempt(ctx)
	if err == nil {
		c.setState(StateSucceeded)
		return nil
	}
	if !IsAuthExpired(err) {
		c.setState(StateFailed)
		return err
	}

	c.log.Info("authorization expired, attempting silent refresh")
	c.beginRefresh()
	refreshErr := c.refresher.Refresh(ctx)
	c.endRefresh(refreshErr == nil)
	if refreshErr != nil {
		c.setState(StateFailed)
		return fmt.Errorf("%w: refresh failed: %v", ErrReconnectRequired, refreshErr)
	}

	c.setState(StateRetrying)
	err = attempt(ctx)
	if err == nil {
		c.setState(StateSucceeded)
		return nil
	}
	c.setState(StateFailed)
	if IsAuthExpired(err) {
		// The replayed call expired again; refreshing once more would loop.
		return fmt.Errorf("%w: token expired again after refresh", ErrReconnectRequired)
	}
	return err
}

// State returns the most recent lifecycle position.
func (c *RetryController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refreshing reports whether a silent refresh is in flight.
func (c *RetryController) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// LastRefreshSucceeded returns the outcome of the most recent refresh
// attempt; ok is false when none has been attempted since the last reset.
func (c *RetryController) LastRefreshSucceeded() (succeeded, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefreshOK, c.refreshTried
}

// Reset clears refresh bookkeeping after a successful explicit reconnect.
func (c *RetryController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.refreshing = false
	c.refreshTried = false
	c.lastRefreshOK = false
}

func (c *RetryController) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *RetryController) beginRefresh() {
	c.mu.Lock()
	c.state = StateRefreshing
	c.refreshing = true
	c.mu.Unlock()
}

func (c *RetryController) endRefresh(succeeded bool) {
	c.mu.Lock()
	c.refreshing = false
	c.refreshTried = true
	c.lastRefreshOK = succeeded
	c.mu.Unlock()
}
