// Unix/Darwin shutdown signals.
//
// Compiled on all non-Windows platforms. The daemon must leave the event
// loop cleanly on SIGINT (interactive Ctrl+C) and SIGTERM (systemd unit
// stop, container runtime), because shutdown is where preferences get
// their one flush to disk and the PID file is removed.

//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel returns a channel delivering SIGINT and SIGTERM. Buffered
// to 1 so a signal arriving while the event loop is mid-iteration is held
// rather than dropped.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
