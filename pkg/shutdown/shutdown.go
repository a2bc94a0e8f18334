// Package shutdown centralizes process exit: signal-driven stop and
// fatal startup aborts.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerdesk/pkg/logger"
)

// Notify returns a context canceled on SIGINT/SIGTERM and the stop
// function releasing the signal handler.
func Notify(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Abort logs a fatal error and exits with status 2. The short delay
// gives log sinks time to flush.
func Abort(contextMsg string, err error) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	fmt.Fprintf(os.Stderr, "fatal: %s: %v\n", contextMsg, err)
	time.Sleep(100 * time.Millisecond)
	os.Exit(2)
}
