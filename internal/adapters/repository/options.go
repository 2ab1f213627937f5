package repository

import "time"

// Option applies a configuration option to the ShardedStore.
type Option func(*ShardedStore)

// WithShardCount sets the number of lock shards. Values below 1 are ignored.
func WithShardCount(n int) Option {
	return func(s *ShardedStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithIdleTTL evicts sessions untouched for longer than ttl. Zero disables
// eviction.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *ShardedStore) {
		if ttl >= 0 {
			s.idleTTL = ttl
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates
// and eviction sweeps.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardedStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithNow overrides the wall clock used for idle tracking.
func WithNow(now func() time.Time) Option {
	return func(s *ShardedStore) {
		if now != nil {
			s.now = now
		}
	}
}
