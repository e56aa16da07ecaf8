package quota

import (
	"sync"
	"time"

	"github.com/charlielabs/charlie/internal/platform"
)

// dayKeyFormat is the calendar-day key quota records are tracked by
const dayKeyFormat = "2006-01-02"

// DailyQuota is the quota snapshot for one calendar day
type DailyQuota struct {
	Date              string                    `json:"date"`
	PostsCount        int                       `json:"posts_count"`
	RepliesCount      int                       `json:"replies_count"`
	PostsLimit        int                       `json:"posts_limit"`
	RepliesLimit      int                       `json:"replies_limit"`
	PostsByPlatform   map[platform.Platform]int `json:"posts_by_platform"`
	RepliesByPlatform map[platform.Platform]int `json:"replies_by_platform"`
}

// Limits holds the configured daily ceilings. The combined limits can be
// tighter than the sum of the platform limits: the most constrained
// platform's external terms bind the whole system.
type Limits struct {
	PostsPerPlatform   map[platform.Platform]int
	RepliesPerPlatform map[platform.Platform]int
	CombinedPosts      int
	CombinedReplies    int
}

// Tracker gates posting and replying against daily caps, per platform and
// combined. All state is in-memory and does not survive a restart.
type Tracker struct {
	mu      sync.Mutex
	limits  Limits
	days    map[string]*dayRecord
	nowFunc func() time.Time
}

type dayRecord struct {
	posts         int
	replies       int
	postsByPlat   map[platform.Platform]int
	repliesByPlat map[platform.Platform]int
}

// New creates a tracker with the given limits
func New(limits Limits) *Tracker {
	return &Tracker{
		limits:  limits,
		days:    make(map[string]*dayRecord),
		nowFunc: time.Now,
	}
}

// CanPost reports whether the combined daily post ceiling still admits a post
func (t *Tracker) CanPost() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.today().posts < t.limits.CombinedPosts
}

// CanPostOn reports whether both the platform's ceiling and the combined
// ceiling still admit a post on the given platform.
func (t *Tracker) CanPostOn(p platform.Platform) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.today()
	if day.posts >= t.limits.CombinedPosts {
		return false
	}
	return day.postsByPlat[p] < t.limits.PostsPerPlatform[p]
}

// CanReplyOn reports whether a reply is admitted on the given platform
func (t *Tracker) CanReplyOn(p platform.Platform) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.today()
	if day.replies >= t.limits.CombinedReplies {
		return false
	}
	return day.repliesByPlat[p] < t.limits.RepliesPerPlatform[p]
}

// IncrementPost counts a post against both the platform and combined scopes.
// Callers must check admission first; there is no error return.
func (t *Tracker) IncrementPost(p platform.Platform) {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.today()
	day.posts++
	day.postsByPlat[p]++
}

// IncrementReply counts a reply against both scopes
func (t *Tracker) IncrementReply(p platform.Platform) {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.today()
	day.replies++
	day.repliesByPlat[p]++
}

// Reset zeroes today's counters. Invoked once per day at the midnight boundary.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.days[t.key()] = newDayRecord()
}

// Today returns today's quota snapshot, lazily creating the record
func (t *Tracker) Today() DailyQuota {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.today()
	snap := DailyQuota{
		Date:              t.key(),
		PostsCount:        day.posts,
		RepliesCount:      day.replies,
		PostsLimit:        t.limits.CombinedPosts,
		RepliesLimit:      t.limits.CombinedReplies,
		PostsByPlatform:   make(map[platform.Platform]int, len(day.postsByPlat)),
		RepliesByPlatform: make(map[platform.Platform]int, len(day.repliesByPlat)),
	}
	for p, n := range day.postsByPlat {
		snap.PostsByPlatform[p] = n
	}
	for p, n := range day.repliesByPlat {
		snap.RepliesByPlatform[p] = n
	}
	return snap
}

// Cleanup drops day records outside the retention window
func (t *Tracker) Cleanup(retention time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.nowFunc().Add(-retention).Format(dayKeyFormat)
	removed := 0
	for key := range t.days {
		if key < cutoff {
			delete(t.days, key)
			removed++
		}
	}
	return removed
}

// today returns today's record, creating it on first access. Caller holds the lock.
func (t *Tracker) today() *dayRecord {
	key := t.key()
	day, ok := t.days[key]
	if !ok {
		day = newDayRecord()
		t.days[key] = day
	}
	return day
}

func (t *Tracker) key() string {
	return t.nowFunc().Format(dayKeyFormat)
}

func newDayRecord() *dayRecord {
	return &dayRecord{
		postsByPlat:   make(map[platform.Platform]int),
		repliesByPlat: make(map[platform.Platform]int),
	}
}
