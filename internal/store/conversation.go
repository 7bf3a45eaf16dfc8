// Package store holds per-user conversation state for the chat pipeline.
package store

import (
	"sync"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

// ConversationStore maps a user ID to its ordered message history.
// Histories are append-only and created lazily on first access.
type ConversationStore interface {
	History(userID string) []domain.Message
	Append(userID string, messages ...domain.Message)
}

// MemoryStore is an in-process ConversationStore. Histories live for
// the process lifetime and grow without bound; there is no eviction
// and no persistence.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]domain.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string][]domain.Message),
	}
}

// History returns a copy of the user's message history. The copy keeps
// callers from observing appends made after the read.
func (s *MemoryStore) History(userID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.conversations[userID]
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out
}

// Append adds messages to the end of the user's history, creating the
// conversation if it does not exist yet.
func (s *MemoryStore) Append(userID string, messages ...domain.Message) {
	if len(messages) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[userID] = append(s.conversations[userID], messages...)
}
