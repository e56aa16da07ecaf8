package limiter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return l, &now
}

func TestPerKeyLimitWithinWindow(t *testing.T) {
	t.Parallel()

	l, now := newTestLimiter(Config{Window: time.Minute, PerKeyLimit: 3, GlobalLimit: 100})

	for i := 0; i < 3; i++ {
		res := l.Attempt("session-1")
		assert.True(t, res.Allowed, "attempt %d should be admitted", i)
		*now = now.Add(time.Second)
	}

	res := l.Attempt("session-1")
	assert.False(t, res.Allowed)
	assert.False(t, res.Global)
	// Oldest admission was 3s ago in a 60s window.
	assert.Equal(t, 57*time.Second, res.RetryAfter)

	// A different key is unaffected.
	assert.True(t, l.Attempt("session-2").Allowed)
}

func TestGlobalLimitAcrossKeys(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(Config{Window: time.Minute, PerKeyLimit: 10, GlobalLimit: 4})

	for i := 0; i < 4; i++ {
		assert.True(t, l.Attempt(fmt.Sprintf("session-%d", i)).Allowed)
	}

	res := l.Attempt("session-99")
	assert.False(t, res.Allowed)
	assert.True(t, res.Global)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestAdmissionReopensAfterWindow(t *testing.T) {
	t.Parallel()

	l, now := newTestLimiter(Config{Window: time.Minute, PerKeyLimit: 1, GlobalLimit: 100})

	assert.True(t, l.Attempt("s").Allowed)
	assert.False(t, l.Attempt("s").Allowed)

	*now = now.Add(61 * time.Second)
	assert.True(t, l.Attempt("s").Allowed)
}

func TestExpiredKeysAreDropped(t *testing.T) {
	t.Parallel()

	l, now := newTestLimiter(Config{Window: time.Minute, PerKeyLimit: 5, GlobalLimit: 100})

	// many one-shot sessions inside one window
	for i := 0; i < 50; i++ {
		assert.True(t, l.Attempt(fmt.Sprintf("one-shot-%d", i)).Allowed)
	}
	assert.Len(t, l.byKey, 50)

	// once the window fully lapses, the next attempt sweeps them all
	*now = now.Add(2 * time.Minute)
	assert.True(t, l.Attempt("fresh").Allowed)
	assert.Len(t, l.byKey, 1)

	_, ok := l.byKey["fresh"]
	assert.True(t, ok)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	assert.Equal(t, DefaultConfig().Window, l.cfg.Window)
	assert.Equal(t, DefaultConfig().PerKeyLimit, l.cfg.PerKeyLimit)
	assert.Equal(t, DefaultConfig().GlobalLimit, l.cfg.GlobalLimit)
}
