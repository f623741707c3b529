// Package position provides the device's current position. Lookup goes
// through an HTTP geolocation endpoint; the Tracker wrapper makes sure only
// one lookup is ever outstanding.
package position

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"traffic/models"
)

// ErrUnavailable covers every failure mode of a position lookup (no
// connectivity, denied, no fix). Callers treat it as terminal for the
// current cycle and wait for the next trigger.
var ErrUnavailable = errors.New("current location unavailable")

// Locator is the contract for obtaining the current position.
type Locator interface {
	Current(ctx context.Context) (models.Coordinates, error)
}

// lookupResponse is shaped for the geolocation API response.
type lookupResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Country   string  `json:"country_name"`
}

type Client struct {
	httpClient *http.Client
	lookupURL  string
	userAgent  string
}

// NewClient returns a position client that queries the given geolocation
// endpoint.
func NewClient(lookupURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		lookupURL:  lookupURL,
		userAgent:  "traffic-monitor/1.0",
	}
}

// Current fetches the device's position from the lookup endpoint.
func (c *Client) Current(ctx context.Context) (models.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL, nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}

	var r lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if r.Latitude == 0 && r.Longitude == 0 {
		return models.Coordinates{}, fmt.Errorf("%w: empty fix", ErrUnavailable)
	}
	return models.Coordinates{Lat: r.Latitude, Lon: r.Longitude}, nil
}
