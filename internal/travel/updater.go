// Package travel refreshes the travel info of saved locations from a
// current position and resolves partially specified locations through the
// geocoder.
package travel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"traffic/models"
	"traffic/pkg/alert"
)

// ErrServiceUnavailable signals that at least one with-traffic route
// request failed during the cycle. The caller surfaces it as a degraded
// state and does not retry automatically.
var ErrServiceUnavailable = errors.New("routing service unavailable")

// DelayThresholdMinutes is the traffic delay at which a monitored location
// becomes alert-worthy.
const DelayThresholdMinutes = 10

// Router is the contract for the directions collaborator.
type Router interface {
	FastestRoute(ctx context.Context, origin, dest models.Coordinates, traffic bool) (*models.Route, error)
}

// Updater recomputes travel times and distances for a batch of locations
// and raises alerts for monitored ones whose delay crosses the threshold.
type Updater struct {
	router    Router
	notifier  alert.Notifier
	threshold int
	now       func() time.Time
}

func NewUpdater(router Router, notifier alert.Notifier) *Updater {
	return &Updater{
		router:    router,
		notifier:  notifier,
		threshold: DelayThresholdMinutes,
		now:       time.Now,
	}
}

// Update refreshes every location in place from the given origin. Each
// location gets one with-traffic and one without-traffic route request,
// issued concurrently and awaited independently. A failed without-traffic
// request falls back to the with-traffic duration; a failed with-traffic
// request leaves that location unchanged and makes the whole batch report
// ErrServiceUnavailable once the remaining locations have been processed.
//
// After the batch, exactly one alert is emitted per monitored location
// refreshed in this cycle whose delay is at or above the threshold.
func (u *Updater) Update(ctx context.Context, origin models.Coordinates, locations []*models.Location) error {
	refreshedAt := u.now()

	var g errgroup.Group
	for _, loc := range locations {
		g.Go(func() error {
			return u.refresh(ctx, origin, loc, refreshedAt)
		})
	}
	err := g.Wait()

	for _, loc := range locations {
		if !loc.Monitored || !loc.Timestamp.Equal(refreshedAt) {
			continue
		}
		delay := loc.Delay()
		if delay < u.threshold {
			continue
		}
		a := alert.Alert{
			Location:              loc.Name,
			DelayMinutes:          delay,
			MinutesWithTraffic:    loc.TravelTimeWithTraffic,
			MinutesWithoutTraffic: loc.TravelTimeWithoutTraffic,
			RaisedAt:              refreshedAt,
		}
		if nerr := u.notifier.Notify(ctx, a); nerr != nil {
			log.Printf("Failed to deliver alert for %q: %v", loc.Name, nerr)
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return nil
}

// refresh issues both route requests for a single location and mutates it
// on success.
func (u *Updater) refresh(ctx context.Context, origin models.Coordinates, loc *models.Location, refreshedAt time.Time) error {
	if !loc.HasPosition() {
		log.Printf("Skipping %q: no resolved position", loc.Name)
		return nil
	}
	dest := *loc.Position

	var (
		withTraffic, withoutTraffic *models.Route
		withErr, withoutErr         error
		wg                          sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		withTraffic, withErr = u.router.FastestRoute(ctx, origin, dest, true)
	}()
	go func() {
		defer wg.Done()
		withoutTraffic, withoutErr = u.router.FastestRoute(ctx, origin, dest, false)
	}()
	wg.Wait()

	if withErr != nil {
		log.Printf("Route to %q failed: %v", loc.Name, withErr)
		return fmt.Errorf("route to %q: %v", loc.Name, withErr)
	}
	if withoutErr != nil {
		// Traffic-free estimate is cosmetic; reuse the live one.
		withoutTraffic = withTraffic
	}

	loc.FastestRoute = withTraffic
	loc.TravelTimeWithTraffic = withTraffic.Minutes()
	loc.TravelTimeWithoutTraffic = withoutTraffic.Minutes()
	loc.TravelDistance = withTraffic.Miles()
	loc.Timestamp = refreshedAt
	return nil
}
