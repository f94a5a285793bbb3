// SPDX-License-Identifier: Apache-2.0

// Package plock provides a file based process lock so that only one
// instance mutates the module tree at a time.
package plock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

const (
	// DefaultLockDir is where lock files are written unless overridden.
	DefaultLockDir = "/run/lock"

	lockFileSuffix = ".lock"
)

var (
	ErrNamespace = errorx.NewNamespace("plock")

	// AlreadyLocked indicates another process holds the lock.
	AlreadyLocked = ErrNamespace.NewType("already_locked")

	// NotAcquired indicates Release was called without a held lock.
	NotAcquired = ErrNamespace.NewType("not_acquired")
)

var nolog = zerolog.Nop()

// Lock wraps an advisory file lock. The kernel releases the lock when the
// holding process dies, so stale locks cannot outlive their owner. The PID
// of the holder is recorded in the lock file for diagnostics only.
type Lock struct {
	name   string
	dir    string
	fl     *flock.Flock
	logger *zerolog.Logger
}

type Option func(*Lock)

func WithDir(dir string) Option {
	return func(l *Lock) {
		if dir != "" {
			l.dir = dir
		}
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(l *Lock) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(name string, opts ...Option) *Lock {
	l := &Lock{
		name:   name,
		dir:    DefaultLockDir,
		logger: &nolog,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.fl = flock.New(filepath.Join(l.dir, l.name+lockFileSuffix))
	return l
}

// Path returns the lock file path backing this lock.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Holder returns the PID recorded in the lock file, if any.
func (l *Lock) Holder() (int, bool) {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}

	return pid, true
}

// Acquire takes the lock without blocking. It fails with AlreadyLocked
// when another process holds it.
func (l *Lock) Acquire() error {
	if l.fl.Locked() {
		return nil
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return errorx.InternalError.Wrap(err, "failed to create lock directory %s", l.dir)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return errorx.InternalError.Wrap(err, "failed to lock %s", l.Path())
	}
	if !locked {
		if pid, ok := l.Holder(); ok {
			return AlreadyLocked.New("another instance (pid %d) holds lock %s", pid, l.Path())
		}
		return AlreadyLocked.New("another instance holds lock %s", l.Path())
	}

	l.recordHolder()
	l.logger.Debug().Str("path", l.Path()).Msg("Process lock acquired")
	return nil
}

// TryAcquire retries Acquire until the timeout expires.
func (l *Lock) TryAcquire(timeout time.Duration) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return errorx.InternalError.Wrap(err, "failed to create lock directory %s", l.dir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, _ := l.fl.TryLockContext(ctx, 100*time.Millisecond)
	if !locked {
		if pid, ok := l.Holder(); ok {
			return AlreadyLocked.New("another instance (pid %d) holds lock %s", pid, l.Path())
		}
		return AlreadyLocked.New("another instance holds lock %s", l.Path())
	}

	l.recordHolder()
	return nil
}

// Release drops the lock. It fails with NotAcquired when this process does
// not hold it.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return NotAcquired.New("lock %s is not held by this process", l.Path())
	}

	if err := l.fl.Unlock(); err != nil {
		return errorx.InternalError.Wrap(err, "failed to unlock %s", l.Path())
	}

	if err := os.Remove(l.Path()); err != nil && !os.IsNotExist(err) {
		return errorx.InternalError.Wrap(err, "failed to remove lock file %s", l.Path())
	}

	l.logger.Debug().Str("path", l.Path()).Msg("Process lock released")
	return nil
}

// IsAcquired reports whether this process holds the lock.
func (l *Lock) IsAcquired() bool {
	return l.fl.Locked()
}

func (l *Lock) recordHolder() {
	// best effort, the flock itself is the source of truth
	_ = os.WriteFile(l.Path(), []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}
