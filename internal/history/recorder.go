// Package history archives travel-time samples to Postgres so traffic on a
// route can be trended over time. Recording is optional; the monitor runs
// fine without a database configured.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"traffic/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS travel_samples (
		id                      BIGSERIAL PRIMARY KEY,
		location_name           TEXT NOT NULL,
		minutes_with_traffic    INT NOT NULL,
		minutes_without_traffic INT NOT NULL,
		distance_miles          DOUBLE PRECISION NOT NULL,
		checked_at              TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS travel_samples_location_checked_idx
		ON travel_samples (location_name, checked_at)`,
}

const insertSample = `
INSERT INTO travel_samples
	(location_name, minutes_with_traffic, minutes_without_traffic, distance_miles, checked_at)
VALUES ($1, $2, $3, $4, $5)`

// Recorder appends one sample per refreshed location to Postgres.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder connects to the given database and ensures the sample table
// exists.
func NewRecorder(ctx context.Context, databaseURL string) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure travel_samples table: %w", err)
		}
	}
	log.Println("Travel history recording enabled")
	return &Recorder{pool: pool}, nil
}

// Record inserts one sample for every location refreshed at checkedAt.
// Locations the cycle did not touch (stale timestamp, no position) are
// skipped.
func (r *Recorder) Record(ctx context.Context, locations []*models.Location, checkedAt time.Time) error {
	batch := &pgx.Batch{}
	for _, loc := range locations {
		if !loc.Timestamp.Equal(checkedAt) {
			continue
		}
		batch.Queue(insertSample,
			loc.Name,
			loc.TravelTimeWithTraffic,
			loc.TravelTimeWithoutTraffic,
			loc.TravelDistance,
			checkedAt,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert travel sample: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (r *Recorder) Close() {
	r.pool.Close()
}
