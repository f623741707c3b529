// Package alert delivers traffic notifications to the outside world. The
// monitor raises one alert per location whose traffic delay crosses the
// threshold, plus operational notices when a check cycle fails.
package alert

import (
	"context"
	"time"
)

// Alert describes a traffic condition worth interrupting the user for.
// Message is set instead of the delay fields when the alert reports an
// operational failure rather than a slow route.
type Alert struct {
	Location              string    `json:"location"`
	DelayMinutes          int       `json:"delayMinutes"`
	MinutesWithTraffic    int       `json:"minutesWithTraffic"`
	MinutesWithoutTraffic int       `json:"minutesWithoutTraffic"`
	Message               string    `json:"message,omitempty"`
	RaisedAt              time.Time `json:"raisedAt"`
}

// Failure builds the alert raised when an unattended check cycle cannot
// complete.
func Failure(msg string, at time.Time) Alert {
	return Alert{Location: "traffic-monitor", Message: msg, RaisedAt: at}
}

// Notifier is the contract for the notification side channel.
// Implementations must be safe for use from a single update cycle at a
// time; the system never runs two cycles concurrently.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}
