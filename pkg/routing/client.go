// Package routing computes driving routes through an OSRM-compatible
// directions endpoint. Two profiles are used: "driving" for free-flow travel
// times and "driving-traffic" for times under current traffic.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"traffic/models"
)

const (
	profileDriving        = "driving"
	profileDrivingTraffic = "driving-traffic"
)

// routeResponse is shaped for the OSRM route API response.
type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Duration float64 `json:"duration"` // seconds
		Distance float64 `json:"distance"` // meters
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient returns a directions client for the given OSRM-compatible
// endpoint.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		userAgent:  "traffic-monitor/1.0",
	}
}

// BaseURL returns the configured endpoint, used by callers probing
// connectivity before a refresh cycle.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FastestRoute returns the lowest-duration route between origin and
// destination. With traffic=true the estimate accounts for current traffic.
func (c *Client) FastestRoute(ctx context.Context, origin, dest models.Coordinates, traffic bool) (*models.Route, error) {
	profile := profileDriving
	if traffic {
		profile = profileDrivingTraffic
	}

	params := url.Values{}
	params.Set("overview", "full")
	params.Set("alternatives", "true")

	// OSRM coordinates are lon,lat ordered.
	u := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?%s",
		c.baseURL, profile, origin.Lon, origin.Lat, dest.Lon, dest.Lat, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var r routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	if r.Code != "Ok" {
		return nil, fmt.Errorf("directions error: %s %s", r.Code, r.Message)
	}
	if len(r.Routes) == 0 {
		return nil, fmt.Errorf("no route between %v and %v", origin, dest)
	}

	fastest := r.Routes[0]
	for _, candidate := range r.Routes[1:] {
		if candidate.Duration < fastest.Duration {
			fastest = candidate
		}
	}
	return &models.Route{
		Geometry: fastest.Geometry,
		Duration: time.Duration(fastest.Duration * float64(time.Second)),
		Distance: fastest.Distance,
	}, nil
}
