package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// Defaults.
const (
	DefaultShardCount    = 32
	DefaultPruneInterval = 60 * time.Second
)

// Clock returns the current time.
type Clock func() time.Time

// Result is the outcome of a CheckLimit call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Stats is a point-in-time count of live state.
type Stats struct {
	Windows int
	Locks   int
}

type window struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
	locks   map[string]time.Time // key -> unlock time
}

// Limiter holds fixed-window counters and duplicate locks.
// It is safe for concurrent use and meant to live for the whole process.
type Limiter struct {
	shards        []*shard
	mask          uint32
	now           Clock
	pruneInterval time.Duration
	logger        *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(l *Limiter) {
		if c != nil {
			l.now = c
		}
	}
}

// WithShards sets the shard count. Values that are not a power of two
// fall back to DefaultShardCount.
func WithShards(n int) Option {
	return func(l *Limiter) {
		if n <= 0 || n&(n-1) != 0 {
			n = DefaultShardCount
		}
		l.shards = make([]*shard, n)
	}
}

// WithPruneInterval sets how often Run prunes expired state.
func WithPruneInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.pruneInterval = d
		}
	}
}

// WithLogger sets the logger used by Run.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		shards:        make([]*shard, DefaultShardCount),
		now:           time.Now,
		pruneInterval: DefaultPruneInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	for i := range l.shards {
		l.shards[i] = &shard{
			windows: make(map[string]*window),
			locks:   make(map[string]time.Time),
		}
	}
	l.mask = uint32(len(l.shards) - 1)
	return l
}

func (l *Limiter) shardFor(key string) *shard {
	return l.shards[murmur3.Sum32([]byte(key))&l.mask]
}

// CheckLimit counts one request against key's fixed window.
//
// A missing window, or one whose reset time is strictly before now, is
// replaced by a fresh window holding this request. Otherwise the request is
// counted while the window has capacity and rejected once it does not;
// rejected requests do not change the window. A limit <= 0 means unlimited.
func (l *Limiter) CheckLimit(key string, limit int, period time.Duration) Result {
	if limit <= 0 {
		return Result{Allowed: true, Limit: limit, Remaining: -1}
	}

	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(period)}
		s.windows[key] = w
		return Result{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: w.resetAt}
	}

	if w.count < limit {
		w.count++
		return Result{Allowed: true, Limit: limit, Remaining: limit - w.count, ResetAt: w.resetAt}
	}

	return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: w.resetAt}
}

// CheckDuplicate reports whether key is still locked, together with the
// time the lock is released. When key is not locked the lock is (re)taken
// until now+lockFor and false is returned. A held lock is never extended by
// a rejected call.
func (l *Limiter) CheckDuplicate(key string, lockFor time.Duration) (bool, time.Time) {
	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if unlockAt, ok := s.locks[key]; ok && now.Before(unlockAt) {
		return true, unlockAt
	}
	unlockAt := now.Add(lockFor)
	s.locks[key] = unlockAt
	return false, unlockAt
}

// Prune drops every window past its reset time and every released lock.
// It returns how many of each were removed.
func (l *Limiter) Prune() (windows, locks int) {
	now := l.now()
	for _, s := range l.shards {
		s.mu.Lock()
		for k, w := range s.windows {
			if now.After(w.resetAt) {
				delete(s.windows, k)
				windows++
			}
		}
		for k, unlockAt := range s.locks {
			if !now.Before(unlockAt) {
				delete(s.locks, k)
				locks++
			}
		}
		s.mu.Unlock()
	}
	return windows, locks
}

// Stats returns the number of live windows and locks.
func (l *Limiter) Stats() Stats {
	var st Stats
	for _, s := range l.shards {
		s.mu.Lock()
		st.Windows += len(s.windows)
		st.Locks += len(s.locks)
		s.mu.Unlock()
	}
	return st
}

// Run prunes on every tick of the prune interval until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.pruneInterval)
	defer ticker.Stop()

	l.logger.Debug("rate limiter janitor started", "interval", l.pruneInterval)

	for {
		select {
		case <-ticker.C:
			windows, locks := l.Prune()
			if windows > 0 || locks > 0 {
				l.logger.Debug("rate limiter pruned",
					"windows", windows,
					"locks", locks)
			}
		case <-ctx.Done():
			l.logger.Debug("rate limiter janitor stopped")
			return
		}
	}
}
