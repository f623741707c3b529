package models

import (
	"math"
	"time"
)

const (
	earthRadiusMeters = 6371000
	metersPerMile     = 1609.344
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DistanceTo returns the great-circle distance to other in meters.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Route is the fastest route returned by the directions service for an
// origin/destination pair. It is kept in memory for display but never
// persisted.
type Route struct {
	Geometry string
	Duration time.Duration
	Distance float64 // meters
}

// Minutes returns the route duration rounded to whole minutes.
func (r *Route) Minutes() int {
	return int(math.Round(r.Duration.Minutes()))
}

// Miles returns the route distance in miles.
func (r *Route) Miles() float64 {
	return r.Distance / metersPerMile
}

// Location is a saved destination. Travel times are in minutes and the
// distance in miles; a value of 0 means the field has not been computed
// yet. A zero Timestamp means the location has never been refreshed.
type Location struct {
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	Position *Coordinates `json:"position,omitempty"`

	TravelTimeWithoutTraffic int     `json:"travelTimeWithoutTraffic"`
	TravelTimeWithTraffic    int     `json:"travelTimeWithTraffic"`
	TravelDistance           float64 `json:"travelDistance"`

	Timestamp time.Time `json:"timestamp"`
	Monitored bool      `json:"monitored"`

	// Transient state, rebuilt on every refresh.
	FastestRoute *Route `json:"-"`
	IsSelected   bool   `json:"-"`
}

// Delay returns the extra minutes attributable to current traffic. It is 0
// when either travel time is still unknown or traffic is not slowing the
// route down.
func (l *Location) Delay() int {
	if l.TravelTimeWithTraffic == 0 || l.TravelTimeWithoutTraffic == 0 {
		return 0
	}
	if d := l.TravelTimeWithTraffic - l.TravelTimeWithoutTraffic; d > 0 {
		return d
	}
	return 0
}

// HasPosition reports whether the location has resolved coordinates.
func (l *Location) HasPosition() bool {
	return l.Position != nil
}

// NeverUpdated reports whether travel info has ever been computed.
func (l *Location) NeverUpdated() bool {
	return l.Timestamp.IsZero()
}
