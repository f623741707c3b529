package position

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"traffic/models"
)

// blockingLocator waits for its context to be cancelled unless released
// first, recording the outcome of each call.
type blockingLocator struct {
	release chan struct{}
	errs    chan error
}

func (b *blockingLocator) Current(ctx context.Context) (models.Coordinates, error) {
	select {
	case <-ctx.Done():
		b.errs <- ctx.Err()
		return models.Coordinates{}, ctx.Err()
	case <-b.release:
		b.errs <- nil
		return models.Coordinates{Lat: 1, Lon: 2}, nil
	}
}

func TestTracker_SupersedesOutstandingLookup(t *testing.T) {
	loc := &blockingLocator{release: make(chan struct{}), errs: make(chan error, 2)}
	tracker := NewTracker(loc)

	firstDone := make(chan error, 1)
	go func() {
		_, err := tracker.Current(context.Background())
		firstDone <- err
	}()

	// Wait until the first lookup is registered before superseding it.
	deadline := time.After(2 * time.Second)
	for {
		tracker.mu.Lock()
		registered := tracker.inFlight != nil
		tracker.mu.Unlock()
		if registered {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first lookup never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	secondDone := make(chan error, 1)
	go func() {
		_, err := tracker.Current(context.Background())
		secondDone <- err
	}()

	// Starting the second lookup cancels the first.
	select {
	case err := <-firstDone:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("first lookup should be cancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first lookup never returned")
	}

	// Only now let the second lookup complete.
	close(loc.release)
	select {
	case err := <-secondDone:
		if err != nil {
			t.Fatalf("second lookup failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second lookup never returned")
	}
}

func TestClient_Current(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    models.Coordinates
		wantErr bool
	}{
		{
			name: "valid fix",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(lookupResponse{Latitude: 47.6, Longitude: -122.3, City: "Seattle"})
			},
			want: models.Coordinates{Lat: 47.6, Lon: -122.3},
		},
		{
			name: "empty fix is unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(lookupResponse{})
			},
			wantErr: true,
		},
		{
			name: "server error is unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusServiceUnavailable)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL)
			got, err := client.Current(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Fatalf("want ErrUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Current error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v; want %+v", got, tt.want)
			}
		})
	}
}
