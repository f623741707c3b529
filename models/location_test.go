package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestLocation_Delay(t *testing.T) {
	cases := []struct {
		name           string
		withTraffic    int
		withoutTraffic int
		expected       int
	}{
		{"ten minute delay", 35, 25, 10},
		{"no delay", 25, 25, 0},
		{"traffic faster than baseline", 20, 25, 0},
		{"with-traffic unknown", 0, 25, 0},
		{"without-traffic unknown", 35, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &Location{
				TravelTimeWithTraffic:    tc.withTraffic,
				TravelTimeWithoutTraffic: tc.withoutTraffic,
			}
			if got := l.Delay(); got != tc.expected {
				t.Fatalf("Delay() = %d; want %d", got, tc.expected)
			}
		})
	}
}

func TestLocation_TransientFieldsNotPersisted(t *testing.T) {
	l := &Location{
		Name:         "Work",
		Address:      "1 Main St",
		Position:     &Coordinates{Lat: 47.6, Lon: -122.3},
		FastestRoute: &Route{Geometry: "abc", Duration: 20 * time.Minute},
		IsSelected:   true,
	}

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, transient := range []string{"FastestRoute", "IsSelected"} {
		if _, ok := fields[transient]; ok {
			t.Errorf("transient field %s leaked into JSON: %s", transient, data)
		}
	}
	if fields["name"] != "Work" {
		t.Errorf("name not persisted: %s", data)
	}
}

func TestLocation_NeverUpdated(t *testing.T) {
	l := &Location{}
	if !l.NeverUpdated() {
		t.Error("zero timestamp should read as never updated")
	}
	l.Timestamp = time.Now()
	if l.NeverUpdated() {
		t.Error("non-zero timestamp should not read as never updated")
	}
}

func TestCoordinates_DistanceTo(t *testing.T) {
	seattle := Coordinates{Lat: 47.6062, Lon: -122.3321}
	portland := Coordinates{Lat: 45.5152, Lon: -122.6784}

	got := seattle.DistanceTo(portland)
	// Roughly 233 km as the crow flies.
	if math.Abs(got-233000) > 3000 {
		t.Fatalf("DistanceTo = %.0f m; want ~233000 m", got)
	}
	if seattle.DistanceTo(seattle) != 0 {
		t.Error("distance to self should be 0")
	}
}

func TestRoute_Conversions(t *testing.T) {
	r := &Route{Duration: 25*time.Minute + 40*time.Second, Distance: 16093.44}
	if got := r.Minutes(); got != 26 {
		t.Errorf("Minutes() = %d; want 26", got)
	}
	if got := r.Miles(); math.Abs(got-10) > 1e-9 {
		t.Errorf("Miles() = %f; want 10", got)
	}
}
