package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by AcquireLock when another run holds the
// collection's lock.
var ErrLocked = errors.New("another indexing run holds the lock for this collection")

// LockPath returns the lock file location for a collection.
func LockPath(dbDir, collection string) string {
	return filepath.Join(StateDir(dbDir), collection+".lock")
}

// Lock is an exclusive advisory lock over one collection's store and
// manifest.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the collection lock without waiting.
func AcquireLock(dbDir, collection string) (*Lock, error) {
	path := LockPath(dbDir, collection)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s)", ErrLocked, path)
	}
	return &Lock{fl: fl}, nil
}

// Release frees the lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.fl.Unlock()
}
