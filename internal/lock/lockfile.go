// Package lock guards the mapping output path against concurrent discovery
// runs writing the same artifact.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrLockHeld is returned when another process already holds the lock.
var ErrLockHeld = errors.New("output lock is held by another process")

// FileLock is an exclusive-create pid file next to the mapping artifact. Two
// discovery runs pointed at the same output would race on the final rename
// and, worse, persist mappings built from different day ranges; the lock
// turns that into a fast failure at startup.
type FileLock struct {
	path string
	held bool
}

// ForOutput returns the lock guarding a mapping output path.
func ForOutput(outputPath string) *FileLock {
	return &FileLock{path: outputPath + ".lock"}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock or fails immediately. There is no waiting: a held
// lock means a concurrent run, and queuing behind it would only regenerate
// the same artifact.
func (l *FileLock) Acquire() error {
	if l.held {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			holder := l.holderPID()
			return fmt.Errorf("%w: %s (pid %s)", ErrLockHeld, l.path, holder)
		}
		return fmt.Errorf("failed to create lock file %s: %w", l.path, err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		os.Remove(l.path)
		return fmt.Errorf("failed to write lock file %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(l.path)
		return fmt.Errorf("failed to close lock file %s: %w", l.path, err)
	}

	l.held = true
	return nil
}

// Release removes the lock file. Safe to call multiple times.
func (l *FileLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	return nil
}

// IsHeld reports whether this process holds the lock.
func (l *FileLock) IsHeld() bool {
	return l.held
}

func (l *FileLock) holderPID() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "unknown"
	}
	pid := strings.TrimSpace(string(data))
	if _, err := strconv.Atoi(pid); err != nil {
		return "unknown"
	}
	return pid
}
