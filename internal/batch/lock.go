package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"remaster/internal/textutil"
)

// ErrLocked reports another batch already running over the same tree.
var ErrLocked = errors.New("another batch is already running for this directory")

// Lock is an exclusive advisory lock for one root directory.
type Lock struct {
	Path string
	lock *flock.Flock
}

// LockPath returns the lock file for root under dir: the root's base name as
// a readable token plus a digest of its absolute path.
func LockPath(dir, root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	abs = filepath.Clean(abs)
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(dir, textutil.SanitizeToken(filepath.Base(abs))+"-"+hex.EncodeToString(sum[:6])+".lock")
}

// AcquireLock takes the lock for root without blocking.
func AcquireLock(dir, root string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := LockPath(dir, root)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{Path: path, lock: fl}, nil
}

// Release unlocks. It is safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
