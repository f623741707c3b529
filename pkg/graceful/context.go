// Package graceful ties process lifetime to OS termination signals.
package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Context returns a context cancelled on SIGINT or SIGTERM, letting the
// monitor finish its current cycle and flush state before exiting. Signal
// handling is released once the context ends, so a stuck shutdown can
// still be killed with a second signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received %s, finishing current work...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
