// Package repository keeps live game sessions in memory.
package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/drawtree/internal/domain/session"
)

// ShareRecord is the last share outcome of a session.
type ShareRecord struct {
	Status    string
	Epoch     uint64
	Score     int
	ImageURL  string
	ViewerURL string
	Links     map[string]string
	Error     string
}

// State is everything guarded by an Entry's lock.
type State struct {
	Session *session.Session
	Share   ShareRecord
	// StopTicker cancels the countdown driver of the current attempt, if any.
	StopTicker context.CancelFunc
}

// Entry is one stored session. All access to its State goes through Do,
// which serialises commands in arrival order.
type Entry struct {
	ID      uuid.UUID
	Created time.Time

	mu       sync.Mutex
	state    State
	lastSeen atomic.Int64
}

// Do runs fn with exclusive access to the entry's state.
func (e *Entry) Do(fn func(st *State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.state)
}

func (e *Entry) touch(now time.Time) { e.lastSeen.Store(now.UnixNano()) }

// LastSeen returns the last time the entry was looked up.
func (e *Entry) LastSeen() time.Time { return time.Unix(0, e.lastSeen.Load()) }

// Store provides access to live sessions.
type Store interface {
	// Create stores sess under a fresh id.
	Create(ctx context.Context, sess *session.Session) (*Entry, error)

	// Get returns the entry for id and marks it as recently used.
	// Returns ErrInvalidID for malformed ids and ErrNotFound for unknown ones.
	Get(ctx context.Context, id string) (*Entry, error)

	// Delete removes the entry for id, stopping its ticker.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Evict drops sessions idle for longer than idle and returns how many.
	Evict(ctx context.Context, idle time.Duration) int
}
