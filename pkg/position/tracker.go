package position

import (
	"context"
	"sync"

	"traffic/models"
)

// Tracker serializes position lookups: starting a new lookup cancels the
// one still in flight, so a superseded request never delivers a stale fix.
type Tracker struct {
	locator Locator

	mu       sync.Mutex
	inFlight *inFlight
}

type inFlight struct {
	cancel context.CancelFunc
}

// NewTracker wraps a Locator with supersede-on-request semantics.
func NewTracker(locator Locator) *Tracker {
	return &Tracker{locator: locator}
}

// Current returns the current position, cancelling any lookup that was
// still outstanding when this one started.
func (t *Tracker) Current(ctx context.Context) (models.Coordinates, error) {
	ctx, cancel := context.WithCancel(ctx)
	req := &inFlight{cancel: cancel}

	t.mu.Lock()
	if t.inFlight != nil {
		t.inFlight.cancel()
	}
	t.inFlight = req
	t.mu.Unlock()

	defer func() {
		cancel()
		t.mu.Lock()
		if t.inFlight == req {
			t.inFlight = nil
		}
		t.mu.Unlock()
	}()

	return t.locator.Current(ctx)
}
