// Unix/Darwin PID-file locking using flock(2).
//
// Compiled on all non-Windows platforms. Two daemons against one data
// directory would double the login traffic to the gateway and race each
// other on preferences.json, so the PID file carries an advisory
// [syscall.Flock] that only one process can hold.

//go:build !windows

package main

import (
	"fmt"
	"os"
	"syscall"
)

// ///////////////////////////////////////////////
// File Locking
// ///////////////////////////////////////////////

// lockFile takes an exclusive, non-blocking flock(2) on f. With LOCK_NB the
// call fails immediately (EWOULDBLOCK) when another process holds the lock,
// which is how startup detects a live instance instead of a stale PID file.
func lockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile drops the flock on f. Closing the descriptor releases it too;
// the explicit unlock keeps shutdown order independent of who closes first.
func unlockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}
