package chat

import (
	"context"
	"sync"
)

// HistoryStore persists conversation turns and serves recent history for
// prompt building. The Postgres implementation lives in the dao package;
// the in-memory one below backs deployments without a database.
type HistoryStore interface {
	Append(ctx context.Context, msg Message) error
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
}

// memoryHistoryCap bounds per-session history kept by the in-memory store
const memoryHistoryCap = 50

// MemoryHistory is a bounded in-memory HistoryStore. Conversations are
// lost on restart, matching the rest of the process-local state.
type MemoryHistory struct {
	mu       sync.Mutex
	sessions map[string][]Message
}

// NewMemoryHistory creates an empty in-memory history store
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]Message)}
}

// Append stores a turn, dropping the oldest past the per-session cap
func (m *MemoryHistory) Append(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.sessions[msg.SessionID], msg)
	if len(turns) > memoryHistoryCap {
		turns = turns[len(turns)-memoryHistoryCap:]
	}
	m.sessions[msg.SessionID] = turns
	return nil
}

// Recent returns up to limit most recent turns, oldest first
func (m *MemoryHistory) Recent(_ context.Context, sessionID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Message, len(turns))
	copy(out, turns)
	return out, nil
}
