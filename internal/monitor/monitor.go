// Package monitor runs the unattended traffic check: on a fixed cadence it
// loads the saved locations, refreshes the monitored ones from the current
// position, and persists the result. It has no caller to report to, so
// every failure turns into a local notification instead of an error.
package monitor

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"traffic/internal/store"
	"traffic/internal/travel"
	"traffic/models"
	"traffic/pkg/alert"
	"traffic/pkg/position"
)

// DefaultInterval matches the minimum background refresh cadence of the
// platform the monitor replaces.
const DefaultInterval = 15 * time.Minute

// TravelUpdater is the contract for the travel-info refresh step.
type TravelUpdater interface {
	Update(ctx context.Context, origin models.Coordinates, locations []*models.Location) error
}

// Recorder is the optional travel-history sink.
type Recorder interface {
	Record(ctx context.Context, locations []*models.Location, checkedAt time.Time) error
}

type Monitor struct {
	store    store.Store
	locator  position.Locator
	updater  TravelUpdater
	notifier alert.Notifier
	recorder Recorder // may be nil

	interval   time.Duration
	probeURL   string
	httpClient *http.Client
	now        func() time.Time
}

// New assembles a monitor. probeURL is HEAD-probed before each cycle as
// the network-availability gate; recorder may be nil to disable history.
func New(s store.Store, locator position.Locator, updater TravelUpdater, notifier alert.Notifier, recorder Recorder, interval time.Duration, probeURL string) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		store:      s,
		locator:    locator,
		updater:    updater,
		notifier:   notifier,
		recorder:   recorder,
		interval:   interval,
		probeURL:   probeURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
	}
}

// Run checks immediately and then on every tick until the context is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	log.Printf("Traffic monitor running, checking every %s", m.interval)
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Traffic monitor stopped.")
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check performs one cycle. Failures are notified locally, never returned.
func (m *Monitor) Check(ctx context.Context) {
	if !m.online(ctx) {
		log.Println("Network unavailable, skipping traffic check")
		return
	}

	locations, err := m.store.Load(ctx)
	if err != nil {
		m.reportFailure(ctx, "could not load saved locations")
		log.Printf("Load failed: %v", err)
		return
	}

	var monitored []*models.Location
	for _, loc := range locations {
		if loc.Monitored {
			monitored = append(monitored, loc)
		}
	}
	if len(monitored) == 0 {
		log.Println("No monitored locations, nothing to check")
		return
	}

	origin, err := m.locator.Current(ctx)
	if err != nil {
		m.reportFailure(ctx, "current location unavailable")
		log.Printf("Position lookup failed: %v", err)
		return
	}

	checkedAt := m.now()
	err = m.updater.Update(ctx, origin, monitored)
	if errors.Is(err, travel.ErrServiceUnavailable) {
		m.reportFailure(ctx, "traffic info is currently unavailable for some locations")
	} else if err != nil {
		m.reportFailure(ctx, "traffic check failed")
		log.Printf("Update failed: %v", err)
		return
	}

	if m.recorder != nil {
		if rerr := m.recorder.Record(ctx, monitored, latestTimestamp(monitored, checkedAt)); rerr != nil {
			log.Printf("History recording failed: %v", rerr)
		}
	}

	// Persist whatever was refreshed, even on a partially degraded cycle.
	if err := m.store.Save(ctx, locations); err != nil {
		log.Printf("Save failed: %v", err)
	}
}

// online probes the routing endpoint; the cycle only runs with network
// connectivity, mirroring a condition-gated background trigger.
func (m *Monitor) online(ctx context.Context) bool {
	if m.probeURL == "" {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (m *Monitor) reportFailure(ctx context.Context, msg string) {
	if err := m.notifier.Notify(ctx, alert.Failure(msg, m.now())); err != nil {
		log.Printf("Failed to deliver notice %q: %v", msg, err)
	}
}

// latestTimestamp finds the refresh timestamp the updater stamped this
// cycle. Records skipped by a degraded cycle keep their old timestamps, so
// take the newest one at or after the cycle start.
func latestTimestamp(locations []*models.Location, checkedAt time.Time) time.Time {
	latest := checkedAt
	for _, loc := range locations {
		if loc.Timestamp.After(latest) {
			latest = loc.Timestamp
		}
	}
	return latest
}
