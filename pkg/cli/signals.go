package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals are the signals that stop long-running commands.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ReloadSignals ask a long-running command to re-read its configuration.
var ReloadSignals = []os.Signal{syscall.SIGHUP}

// NotifyReload returns a channel receiving ReloadSignals. Calling stop
// releases the signal handler.
func NotifyReload() (signals <-chan os.Signal, stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, ReloadSignals...)
	return ch, func() { signal.Stop(ch) }
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. Calling
// stop releases the signal handler.
func SignalContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, ShutdownSignals...)
}
