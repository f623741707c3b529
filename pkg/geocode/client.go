// Package geocode resolves free-form addresses to coordinates and back using
// a Nominatim-compatible endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"traffic/models"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Result is a single geocoding candidate.
type Result struct {
	DisplayName string
	Position    models.Coordinates
}

// searchResponse is shaped for the Nominatim search API response.
type searchResponse []struct {
	PlaceID     int64  `json:"place_id"`
	OsmType     string `json:"osm_type"`
	OsmID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// reverseResponse is shaped for the Nominatim reverse API response.
type reverseResponse struct {
	PlaceID     int64  `json:"place_id"`
	OsmType     string `json:"osm_type"`
	OsmID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient returns a geocoding client for the given endpoint. An empty
// baseURL selects the public Nominatim instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
		userAgent:  "traffic-monitor/1.0",
	}
}

// Search looks up a free-form query and returns candidate places with
// coordinates. An empty candidate list is reported as an error.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "5")
	params.Set("accept-language", "en")

	u := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var raw searchResponse
	if err := c.get(ctx, u, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no results for %s", query)
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		results = append(results, Result{
			DisplayName: r.DisplayName,
			Position:    models.Coordinates{Lat: lat, Lon: lon},
		})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no usable results for %s", query)
	}
	return results, nil
}

// Reverse resolves coordinates to a display address.
func (c *Client) Reverse(ctx context.Context, pos models.Coordinates) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(pos.Lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("accept-language", "en")

	u := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

	var raw reverseResponse
	if err := c.get(ctx, u, &raw); err != nil {
		return "", err
	}
	if raw.Error != "" {
		return "", fmt.Errorf("reverse geocode failed: %s", raw.Error)
	}
	if raw.DisplayName == "" {
		return "", fmt.Errorf("no address at %f,%f", pos.Lat, pos.Lon)
	}
	return raw.DisplayName, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
