package alert

import (
	"context"
	"log"
)

// LogNotifier writes alerts to the process log. It is the default side
// channel when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, a Alert) error {
	if a.Message != "" {
		log.Printf("TRAFFIC NOTICE: %s", a.Message)
		return nil
	}
	log.Printf("TRAFFIC ALERT: %s is %d minutes slower than usual (%d min with traffic, %d min without)",
		a.Location, a.DelayMinutes, a.MinutesWithTraffic, a.MinutesWithoutTraffic)
	return nil
}
