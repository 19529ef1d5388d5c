package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLockHeld is returned when another process already runs the same job
var ErrLockHeld = errors.New("job is already running")

var unsafeLockChars = regexp.MustCompile(`[^\w\-.]`)

// JobLock is a host-wide file lock around a maintenance job. The server's
// retention ticker and jiractl share it so they never prune at the same time.
type JobLock struct {
	lockFile *flock.Flock
	lockPath string
}

func sanitizeLockName(name string) string {
	sanitized := unsafeLockChars.ReplaceAllString(name, "-")
	sanitized = strings.Trim(sanitized, ".-")
	if sanitized == "" {
		sanitized = "default"
	}
	return sanitized
}

// NewJobLock places the lock file under dir, or the system temp directory when dir is empty.
func NewJobLock(dir, name string) (*JobLock, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "mmjira")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, sanitizeLockName(name)+".lock")
	return &JobLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
	}, nil
}

func (l *JobLock) TryLock() error {
	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", l.lockPath, ErrLockHeld)
	}
	return nil
}

func (l *JobLock) Unlock() error {
	if err := l.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return nil
}

// WithJobLock runs fn while holding the named lock. It returns ErrLockHeld
// without running fn when the lock is taken.
func WithJobLock(dir, name string, fn func() error) error {
	lock, err := NewJobLock(dir, name)
	if err != nil {
		return err
	}
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func (l *JobLock) Path() string {
	return l.lockPath
}
