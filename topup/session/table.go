package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/topupbot/core/logger"
)

// DefaultSweepInterval is used by Run when the table was built without one.
const DefaultSweepInterval = time.Minute

// Options configures a Table.
type Options struct {
	// TTL drops sessions idle for longer than this. Zero keeps sessions forever.
	TTL           time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Table stores at most one Session per user id.
type Table struct {
	mu       sync.Mutex
	sessions map[int64]Session

	locksMu sync.Mutex
	locks   map[int64]*userLock

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewTable creates an empty table.
func NewTable(opts Options) *Table {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	return &Table{
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*userLock),
		ttl:      opts.TTL,
		interval: opts.SweepInterval,
		now:      opts.Now,
	}
}

// Get returns a copy of the session of userID.
func (t *Table) Get(userID int64) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	return s, ok
}

// Set replaces the session of userID. Zero timestamps are filled in.
func (t *Table) Set(userID int64, s Session) {
	now := t.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	t.mu.Lock()
	t.sessions[userID] = s
	t.mu.Unlock()
}

// Update mutates an existing session in place. It reports false when userID has no session.
func (t *Table) Update(userID int64, fn func(*Session)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	if !ok {
		return false
	}
	fn(&s)
	s.UpdatedAt = t.now()
	t.sessions[userID] = s
	return true
}

// Clear removes the session of userID.
func (t *Table) Clear(userID int64) {
	t.mu.Lock()
	delete(t.sessions, userID)
	t.mu.Unlock()
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Lock serializes work for one user. Callers must invoke the returned func exactly once.
func (t *Table) Lock(userID int64) (unlock func()) {
	t.locksMu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &userLock{}
		t.locks[userID] = l
	}
	l.refs++
	t.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			t.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(t.locks, userID)
			}
			t.locksMu.Unlock()
		})
	}
}

// Sweep removes sessions idle since before now-TTL and returns how many were dropped.
func (t *Table) Sweep(now time.Time) int {
	if t.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-t.ttl)
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, s := range t.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(t.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions until ctx is done. It returns immediately when TTL is zero.
func (t *Table) Run(ctx context.Context) {
	if t.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(t.now()); n > 0 {
				logger.Info(ctx, logger.CompSessions, "session.sweep",
					slog.Int("expired", n),
					slog.Int("remaining", t.Len()),
				)
			}
		}
	}
}
