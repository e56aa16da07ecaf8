// Package limiter throttles the chat endpoint with a sliding window:
// a per-session cap plus one global cap across all sessions.
package limiter

import (
	"sync"
	"time"
)

// Config holds the limiter policy
type Config struct {
	Window      time.Duration // rolling window length
	PerKeyLimit int           // admissions per key within the window
	GlobalLimit int           // admissions across all keys within the window
}

// DefaultConfig returns the chat endpoint defaults
func DefaultConfig() Config {
	return Config{
		Window:      time.Minute,
		PerKeyLimit: 5,
		GlobalLimit: 60,
	}
}

// Result is the outcome of an admission attempt
type Result struct {
	Allowed    bool
	RetryAfter time.Duration // time until the oldest in-window entry expires
	Global     bool          // denial came from the global limit
}

// Limiter admits or rejects keyed requests within a rolling window.
// Fully deterministic given timestamps; safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	byKey   map[string][]time.Time
	global  []time.Time
	nowFunc func() time.Time
}

// New creates a limiter with the given policy
func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.PerKeyLimit <= 0 {
		cfg.PerKeyLimit = DefaultConfig().PerKeyLimit
	}
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = DefaultConfig().GlobalLimit
	}
	return &Limiter{
		cfg:     cfg,
		byKey:   make(map[string][]time.Time),
		nowFunc: time.Now,
	}
}

// Attempt evicts expired timestamps, then checks the per-key limit before
// the global one. A granted attempt is recorded in both sequences.
func (l *Limiter) Attempt(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	cutoff := now.Add(-l.cfg.Window)

	keyed := evict(l.byKey[key], cutoff)
	l.global = evict(l.global, cutoff)

	// every keyed timestamp is mirrored in the global sequence, so an empty
	// global window means every per-key record has expired as well
	if len(l.global) == 0 && len(l.byKey) > 0 {
		l.byKey = make(map[string][]time.Time)
	}

	if len(keyed) >= l.cfg.PerKeyLimit {
		l.byKey[key] = keyed
		return Result{RetryAfter: keyed[0].Add(l.cfg.Window).Sub(now)}
	}
	if len(l.global) >= l.cfg.GlobalLimit {
		l.storeKey(key, keyed)
		return Result{RetryAfter: l.global[0].Add(l.cfg.Window).Sub(now), Global: true}
	}

	l.byKey[key] = append(keyed, now)
	l.global = append(l.global, now)
	return Result{Allowed: true}
}

// storeKey writes a key's sequence back, dropping the entry when eviction
// emptied it so the map does not grow with one-off session IDs
func (l *Limiter) storeKey(key string, ts []time.Time) {
	if len(ts) == 0 {
		delete(l.byKey, key)
		return
	}
	l.byKey[key] = ts
}

// evict drops timestamps at or before the cutoff, keeping order
func evict(ts []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(ts) && !ts[idx].After(cutoff) {
		idx++
	}
	return ts[idx:]
}
