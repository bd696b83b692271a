package backend

import (
	"context"

	"github.com/caseflow/lexcal/internal/domain"
)

// Guarded routes every backend call through the retry controller so an
// expired token is recovered transparently once per logical call.
type Guarded struct {
	client *Client
	retry  *RetryController
}

func NewGuarded(client *Client, retry *RetryController) *Guarded {
	return &Guarded{client: client, retry: retry}
}

func (g *Guarded) FetchEvents(ctx context.Context, r domain.TimeRange) ([]domain.Event, error) {
	var out []domain.Event
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		events, err := g.client.FetchEvents(ctx, r)
		if err != nil {
			return err
		}
		out = events
		return nil
	})
	return out, err
}

func (g *Guarded) CreateEvent(ctx context.Context, e domain.Event) error {
	return g.retry.Do(ctx, func(ctx context.Context) error {
		return g.client.CreateEvent(ctx, e)
	})
}

func (g *Guarded) UpdateEvent(ctx context.Context, e domain.Event) error {
	return g.retry.Do(ctx, func(ctx context.Context) error {
		return g.client.UpdateEvent(ctx, e)
	})
}

func (g *Guarded) DeleteEvent(ctx context.Context, id string) error {
	return g.retry.Do(ctx, func(ctx context.Context) error {
		return g.client.DeleteEvent(ctx, id)
	})
}

// Reconnect is the explicit recovery action: a direct refresh outside the
// single-retry policy. On success the retry bookkeeping is reset.
func (g *Guarded) Reconnect(ctx context.Context) error {
	if err := g.client.Refresh(ctx); err != nil {
		return err
	}
	g.retry.Reset()
	return nil
}

func (g *Guarded) Status() ConnectionStatus {
	return g.client.Status()
}
