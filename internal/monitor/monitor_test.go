package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"traffic/internal/travel"
	"traffic/models"
	"traffic/pkg/alert"
)

type memStore struct {
	mu        sync.Mutex
	locations []*models.Location
	loadErr   error
	saves     int
}

func (m *memStore) Load(_ context.Context) ([]*models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locations, m.loadErr
}

func (m *memStore) Save(_ context.Context, locations []*models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
	m.saves++
	return nil
}

type stubLocator struct {
	pos models.Coordinates
	err error
}

func (s *stubLocator) Current(_ context.Context) (models.Coordinates, error) {
	return s.pos, s.err
}

type stubUpdater struct {
	mu      sync.Mutex
	batches [][]*models.Location
	err     error
}

func (s *stubUpdater) Update(_ context.Context, _ models.Coordinates, locations []*models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, locations)
	for _, loc := range locations {
		loc.Timestamp = time.Now()
	}
	return s.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, a alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func probeServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMonitor_Check(t *testing.T) {
	t.Run("refreshes only monitored locations and persists", func(t *testing.T) {
		s := &memStore{locations: []*models.Location{
			{Name: "Work", Monitored: true, Position: &models.Coordinates{Lat: 1}},
			{Name: "Gym", Monitored: false, Position: &models.Coordinates{Lat: 2}},
		}}
		u := &stubUpdater{}
		n := &recordingNotifier{}
		m := New(s, &stubLocator{pos: models.Coordinates{Lat: 47.6}}, u, n, nil, time.Minute, probeServer(t).URL)

		m.Check(context.Background())

		if len(u.batches) != 1 {
			t.Fatalf("updater called %d times; want 1", len(u.batches))
		}
		batch := u.batches[0]
		if len(batch) != 1 || batch[0].Name != "Work" {
			t.Fatalf("updater got %+v; want only the monitored location", batch)
		}
		if s.saves != 1 {
			t.Errorf("saves = %d; want 1", s.saves)
		}
		if len(n.alerts) != 0 {
			t.Errorf("unexpected notices: %+v", n.alerts)
		}
	})

	t.Run("zero monitored locations does nothing", func(t *testing.T) {
		s := &memStore{locations: []*models.Location{{Name: "Gym"}}}
		u := &stubUpdater{}
		n := &recordingNotifier{}
		m := New(s, &stubLocator{}, u, n, nil, time.Minute, probeServer(t).URL)

		m.Check(context.Background())

		if len(u.batches) != 0 {
			t.Error("updater should not run without monitored locations")
		}
		if len(n.alerts) != 0 {
			t.Errorf("no alert may ever be raised: %+v", n.alerts)
		}
		if s.saves != 0 {
			t.Error("nothing should be persisted")
		}
	})

	t.Run("offline skips the cycle", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // probe target gone: network gate closed

		s := &memStore{locations: []*models.Location{{Name: "Work", Monitored: true}}}
		u := &stubUpdater{}
		n := &recordingNotifier{}
		m := New(s, &stubLocator{}, u, n, nil, time.Minute, server.URL)

		m.Check(context.Background())

		if len(u.batches) != 0 || len(n.alerts) != 0 || s.saves != 0 {
			t.Error("offline cycle must be a no-op")
		}
	})

	t.Run("position failure notifies locally", func(t *testing.T) {
		s := &memStore{locations: []*models.Location{{Name: "Work", Monitored: true}}}
		u := &stubUpdater{}
		n := &recordingNotifier{}
		m := New(s, &stubLocator{err: errors.New("no fix")}, u, n, nil, time.Minute, probeServer(t).URL)

		m.Check(context.Background())

		if len(n.alerts) != 1 || n.alerts[0].Message == "" {
			t.Fatalf("expected one failure notice, got %+v", n.alerts)
		}
		if len(u.batches) != 0 {
			t.Error("updater should not run without a position")
		}
	})

	t.Run("degraded routing notifies but still persists", func(t *testing.T) {
		s := &memStore{locations: []*models.Location{{Name: "Work", Monitored: true}}}
		u := &stubUpdater{err: fmt.Errorf("%w: upstream 502", travel.ErrServiceUnavailable)}
		n := &recordingNotifier{}
		m := New(s, &stubLocator{}, u, n, nil, time.Minute, probeServer(t).URL)

		m.Check(context.Background())

		if len(n.alerts) != 1 {
			t.Fatalf("expected degraded-state notice, got %+v", n.alerts)
		}
		if s.saves != 1 {
			t.Error("partially refreshed cycle should still persist")
		}
	})

	t.Run("load failure notifies locally", func(t *testing.T) {
		s := &memStore{loadErr: errors.New("bucket gone")}
		u := &stubUpdater{}
		n := &recordingNotifier{}
		m := New(s, &stubLocator{}, u, n, nil, time.Minute, probeServer(t).URL)

		m.Check(context.Background())

		if len(n.alerts) != 1 || n.alerts[0].Message == "" {
			t.Fatalf("expected failure notice, got %+v", n.alerts)
		}
	})
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	s := &memStore{}
	u := &stubUpdater{}
	n := &recordingNotifier{}
	m := New(s, &stubLocator{}, u, n, nil, 10*time.Millisecond, probeServer(t).URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
