// Package lock provides file-based locking for gantry build outputs.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked indicates another process holds the lock.
var ErrLocked = errors.New("already locked")

// Lock represents a file-based lock.
type Lock struct {
	name string
	path string
	file *os.File
}

// New creates a lock named name under dir/.gantry/locks.
func New(dir, name string) *Lock {
	return &Lock{
		name: name,
		path: filepath.Join(dir, ".gantry", "locks", name+".lock"),
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire attempts to acquire the lock without blocking.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := tryLock(f); err != nil {
		f.Close()
		l.file = nil
		if errors.Is(err, errWouldBlock) {
			return fmt.Errorf("another build of %s is running: %w", l.name, ErrLocked)
		}
		return fmt.Errorf("acquire lock: %w", err)
	}

	// PID for debugging
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	l.file = f
	return nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := unlock(l.file); err != nil {
		l.file.Close()
		return fmt.Errorf("release lock: %w", err)
	}

	l.file.Close()
	os.Remove(l.path)
	l.file = nil

	return nil
}

// WithLock runs fn while holding the named lock under dir.
func WithLock(dir, name string, fn func() error) error {
	lock := New(dir, name)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}
