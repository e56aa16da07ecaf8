package interaction

import (
	"sync"
	"time"

	"github.com/charlielabs/charlie/internal/platform"
)

// Queue is the in-memory, de-duplicated store of inbound interactions and
// the append-only log of replies already sent. It is owned by the
// scheduling subsystem; state does not survive a restart.
type Queue struct {
	mu           sync.Mutex
	interactions []*Interaction
	byID         map[string]*Interaction
	sentReplies  []SentReply
	nowFunc      func() time.Time
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{
		byID:    make(map[string]*Interaction),
		nowFunc: time.Now,
	}
}

// Add stores an interaction unless one with the same ID already exists.
// Repeated polls returning the same batch are therefore idempotent.
// Returns true when the interaction was newly stored.
func (q *Queue) Add(in Interaction) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byID[in.ID]; exists {
		return false
	}
	stored := in
	q.interactions = append(q.interactions, &stored)
	q.byID[in.ID] = &stored
	return true
}

// Pending returns unprocessed interactions in insertion order, oldest first.
// An empty platform returns all platforms.
func (q *Queue) Pending(p platform.Platform) []Interaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Interaction
	for _, in := range q.interactions {
		if in.Processed {
			continue
		}
		if p != "" && in.Platform != p {
			continue
		}
		out = append(out, *in)
	}
	return out
}

// MarkProcessed flips an interaction to processed. Unknown IDs are a
// silent no-op.
func (q *Queue) MarkProcessed(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if in, ok := q.byID[id]; ok {
		in.Processed = true
	}
}

// LogReply appends to the sent-reply log
func (q *Queue) LogReply(r SentReply) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = q.nowFunc()
	}
	q.sentReplies = append(q.sentReplies, r)
}

// Cleanup drops processed interactions and sent replies older than the
// retention window. Meant to run on a daily timer, not per request.
func (q *Queue) Cleanup(retention time.Duration) (interactions, replies int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.nowFunc().Add(-retention)

	kept := q.interactions[:0]
	for _, in := range q.interactions {
		if in.Processed && in.Timestamp.Before(cutoff) {
			delete(q.byID, in.ID)
			interactions++
			continue
		}
		kept = append(kept, in)
	}
	q.interactions = kept

	keptReplies := q.sentReplies[:0]
	for _, r := range q.sentReplies {
		if r.Timestamp.Before(cutoff) {
			replies++
			continue
		}
		keptReplies = append(keptReplies, r)
	}
	q.sentReplies = keptReplies

	return interactions, replies
}

// Stats returns the observability snapshot
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{
		PendingByPlatform:   make(map[platform.Platform]int),
		TrackedInteractions: len(q.interactions),
	}
	for _, in := range q.interactions {
		if !in.Processed {
			s.PendingCount++
			s.PendingByPlatform[in.Platform]++
		}
	}

	today := q.nowFunc().Format("2006-01-02")
	for _, r := range q.sentReplies {
		if r.Sent && r.Timestamp.Format("2006-01-02") == today {
			s.SentRepliesTodayCount++
		}
	}
	return s
}
