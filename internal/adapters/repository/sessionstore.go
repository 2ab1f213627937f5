package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/drawtree/internal/domain/session"
	"github.com/okian/drawtree/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount            = 8
	defaultIdleTTL               = 15 * time.Minute
	defaultMetricsUpdateInterval = 5 * time.Second
)

type shard struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
}

// ShardedStore is an in-memory Store. Sessions are spread over shards by id
// so lookups on different sessions rarely contend.
type ShardedStore struct {
	shards                []*shard
	shardCount            int
	idleTTL               time.Duration
	metricsUpdateInterval time.Duration
	now                   func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewShardedStore constructs a store with configuration options and starts
// its background metrics and eviction loop, which ends with ctx or Close.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		idleTTL:               defaultIdleTTL,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		now:                   time.Now,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[uuid.UUID]*Entry)}
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	s.startBackground(ctx)
	return s
}

func (s *ShardedStore) shardFor(id uuid.UUID) *shard {
	// The last bytes of a v4 uuid are random.
	h := uint32(id[12])<<24 | uint32(id[13])<<16 | uint32(id[14])<<8 | uint32(id[15])
	return s.shards[h%uint32(len(s.shards))]
}

// Create implements Store.Create.
func (s *ShardedStore) Create(ctx context.Context, sess *session.Session) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	select {
	case <-s.stopChan:
		return nil, ErrClosed
	default:
	}

	now := s.now()
	e := &Entry{ID: uuid.New(), Created: now, state: State{Session: sess}}
	e.touch(now)

	sh := s.shardFor(e.ID)
	sh.mu.Lock()
	sh.entries[e.ID] = e
	sh.mu.Unlock()

	metrics.RecordSessionCreated()
	return e, nil
}

// Get implements Store.Get.
func (s *ShardedStore) Get(ctx context.Context, id string) (*Entry, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	sh := s.shardFor(uid)
	sh.mu.RLock()
	e, ok := sh.entries[uid]
	sh.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.touch(s.now())
	return e, nil
}

// Delete implements Store.Delete.
func (s *ShardedStore) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	sh := s.shardFor(uid)
	sh.mu.Lock()
	e, ok := sh.entries[uid]
	delete(sh.entries, uid)
	sh.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	stopTicker(e)
	return nil
}

// Count implements Store.Count.
func (s *ShardedStore) Count(ctx context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Evict implements Store.Evict. A non-positive idle evicts nothing.
func (s *ShardedStore) Evict(ctx context.Context, idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle).UnixNano()
	var evicted []*Entry
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			if e.lastSeen.Load() < cutoff {
				delete(sh.entries, id)
				evicted = append(evicted, e)
			}
		}
		sh.mu.Unlock()
	}
	for _, e := range evicted {
		stopTicker(e)
	}
	metrics.RecordSessionsEvicted(len(evicted))
	return len(evicted)
}

func stopTicker(e *Entry) {
	_ = e.Do(func(st *State) error {
		if st.StopTicker != nil {
			st.StopTicker()
			st.StopTicker = nil
		}
		return nil
	})
}

// Close stops the background loop and every running ticker.
func (s *ShardedStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	for _, sh := range s.shards {
		sh.mu.RLock()
		entries := make([]*Entry, 0, len(sh.entries))
		for _, e := range sh.entries {
			entries = append(entries, e)
		}
		sh.mu.RUnlock()
		for _, e := range entries {
			stopTicker(e)
		}
	}
	return nil
}

// startBackground refreshes repository metrics and evicts idle sessions.
func (s *ShardedStore) startBackground(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Evict(ctx, s.idleTTL)
				s.updateMetrics()
			}
		}
	}()
}

func (s *ShardedStore) updateMetrics() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.entries)
		sh.mu.RUnlock()
		total += n
		metrics.UpdateRepositoryRecordsPerShard(strconv.Itoa(i), n)
	}
	metrics.UpdateSessionsActive(total)
}
