// Windows shutdown signals.
//
// Compiled only on Windows, where POSIX SIGTERM does not exist. Only
// [os.Interrupt] is registered; the Go runtime maps CTRL_C_EVENT,
// CTRL_BREAK_EVENT, and console-close to it, which covers every way a
// Windows user normally stops the daemon. A clean exit still matters here:
// it is where preferences flush and the PID file goes away.

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel returns a channel delivering os.Interrupt. Buffered to 1 so
// a signal arriving while the event loop is mid-iteration is held rather
// than dropped.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}
