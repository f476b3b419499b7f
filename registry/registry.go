// Package registry holds at most one live decode Session and hands it to a
// single owner. A second Acquire while a Session is live gets nothing rather
// than a shared reference. Optionally the guard extends across processes
// through an advisory lock file, so two tools never drive the same card.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"

	"github.com/zsiec/b25/decoder"
)

// ErrBusy is returned by With when a Session is already owned.
var ErrBusy = errors.New("registry: a decode session is already live")

// Config configures a Registry.
type Config struct {
	// NewSession builds the Session handed out by Acquire. Required.
	NewSession func() *decoder.Session
	// LockPath, when set, names a lock file that Acquire must also win.
	LockPath string
	// Log is the base logger; nil means slog.Default().
	Log *slog.Logger
}

// Registry is the single-owner holder of a decode Session. Its lock is
// distinct from the Session's own lock and is always taken first.
//
// Nothing tears the Session down at process exit; an owner that never calls
// Teardown keeps it for the life of the process.
type Registry struct {
	log        *slog.Logger
	newSession func() *decoder.Session
	fileLock   *flock.Flock

	mu      sync.Mutex
	session *decoder.Session
}

// New creates an empty Registry.
func New(cfg Config) (*Registry, error) {
	if cfg.NewSession == nil {
		return nil, errors.New("registry: NewSession is required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		log:        log.With("component", "decoder-registry"),
		newSession: cfg.NewSession,
	}
	if cfg.LockPath != "" {
		r.fileLock = flock.New(cfg.LockPath)
	}
	return r, nil
}

// Acquire returns a new Session when none is live, or nil when one already
// is. It never returns the live Session to a second caller.
func (r *Registry) Acquire() *decoder.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		r.log.Warn("session already live, rejecting acquire")
		return nil
	}

	if r.fileLock != nil {
		ok, err := r.fileLock.TryLock()
		if err != nil {
			r.log.Error("lock file", "path", r.fileLock.Path(), "error", err)
			return nil
		}
		if !ok {
			r.log.Warn("session owned by another process", "path", r.fileLock.Path())
			return nil
		}
	}

	r.session = r.newSession()
	if r.session == nil {
		r.unlockFile()
		return nil
	}
	r.log.Info("session acquired")
	return r.session
}

// Teardown releases the live Session, if any, and clears it so the next
// Acquire succeeds. Lock order is registry then Session.
func (r *Registry) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return
	}
	r.session.Release()
	r.session = nil
	r.unlockFile()
	r.log.Info("session torn down")
}

// Live reports whether a Session is currently owned.
func (r *Registry) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// With acquires a Session, runs fn with it, and tears it down on every exit
// path including a panic in fn.
func (r *Registry) With(fn func(*decoder.Session) error) error {
	s := r.Acquire()
	if s == nil {
		return ErrBusy
	}
	defer r.Teardown()

	if err := fn(s); err != nil {
		return fmt.Errorf("registry: session owner: %w", err)
	}
	return nil
}

func (r *Registry) unlockFile() {
	if r.fileLock == nil {
		return
	}
	if err := r.fileLock.Unlock(); err != nil {
		r.log.Warn("failed to release lock file", "path", r.fileLock.Path(), "error", err)
	}
}
