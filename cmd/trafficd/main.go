package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"traffic/internal/env"
	"traffic/internal/history"
	"traffic/internal/monitor"
	"traffic/internal/store"
	"traffic/internal/travel"
	"traffic/pkg/alert"
	"traffic/pkg/graceful"
	"traffic/pkg/position"
	"traffic/pkg/routing"
)

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	routingURL := env.MustGetEnv("ROUTING_URL")
	positionURL := env.MustGetEnv("POSITION_URL")
	interval := env.GetDuration("REFRESH_INTERVAL", monitor.DefaultInterval)

	st := buildStore(ctx)
	notifier, closeNotifier := buildNotifier()
	defer closeNotifier()

	var recorder monitor.Recorder
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		rec, err := history.NewRecorder(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to set up travel history: %v", err)
		}
		defer rec.Close()
		recorder = rec
	}

	router := routing.NewClient(routingURL)
	tracker := position.NewTracker(position.NewClient(positionURL))
	updater := travel.NewUpdater(router, notifier)

	m := monitor.New(st, tracker, updater, notifier, recorder, interval, router.BaseURL())
	m.Run(ctx)

	log.Println("Traffic daemon exiting.")
}

// buildStore picks the S3 backend when MinIO is configured, otherwise a
// local file under DATA_DIR (default: the user config directory).
func buildStore(ctx context.Context) store.Store {
	if os.Getenv("MINIO_ENDPOINT") != "" {
		bucket := env.GetEnvDefault("LOCATIONS_BUCKET", "traffic-locations")
		s, err := store.NewS3Store(ctx, bucket)
		if err != nil {
			log.Fatalf("Failed to connect to the locations bucket: %v", err)
		}
		return s
	}

	dir := os.Getenv("DATA_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			log.Fatalf("Cannot determine a data directory, set DATA_DIR: %v", err)
		}
		dir = filepath.Join(base, "traffic")
	}
	s, err := store.NewFileStore(dir)
	if err != nil {
		log.Fatalf("Failed to open the location store: %v", err)
	}
	return s
}

// buildNotifier publishes to Kafka when a broker is configured and falls
// back to process-log notifications otherwise.
func buildNotifier() (alert.Notifier, func()) {
	broker := os.Getenv("KAFKA_BROKER")
	if broker == "" {
		log.Println("KAFKA_BROKER not set, alerts go to the process log")
		return alert.LogNotifier{}, func() {}
	}
	topic := env.MustGetEnv("KAFKA_ALERT_TOPIC")
	log.Printf("Publishing alerts to Kafka broker %s, topic %s", broker, topic)

	n := alert.NewKafkaNotifier(broker, topic)
	return n, func() {
		if err := n.Close(); err != nil {
			log.Printf("Failed to close Kafka writer: %v", err)
		}
	}
}
