// Windows PID-file locking using LockFileEx/UnlockFileEx.
//
// Compiled only on Windows. Serves the same purpose as the flock build:
// one daemon per data directory, so two processes never fight over the
// gateway session or preferences.json. LOCKFILE_FAIL_IMMEDIATELY gives the
// same fail-fast semantics LOCK_NB gives on Unix.

//go:build windows

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// ///////////////////////////////////////////////
// File Locking
// ///////////////////////////////////////////////

// lockFile takes an exclusive, non-blocking lock on f via LockFileEx. A
// failed call means another daemon owns the data directory. The range is a
// single byte at offset 0 — the lock exists for mutual exclusion, not to
// protect file contents.
func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1, 0,
		ol,
	); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile releases the byte-range lock via UnlockFileEx. Closing the
// handle releases it too; the explicit unlock keeps shutdown order
// independent of who closes first.
func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	if err := windows.UnlockFileEx(
		windows.Handle(f.Fd()),
		0,
		1, 0,
		ol,
	); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}
