package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ragchat/internal/domain"
)

// MemoryStore is an in-process history store with the same ordering and
// per-user serialization guarantees as the SQLite store. Used by tests and
// ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.ChatTurn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]domain.ChatTurn),
	}
}

func (s *MemoryStore) EnsureUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[userID]; !ok {
		s.turns[userID] = []domain.ChatTurn{}
	}
	return nil
}

func (s *MemoryStore) LoadHistory(ctx context.Context, userID string) ([]domain.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]domain.ChatTurn, len(s.turns[userID]))
	copy(turns, s.turns[userID])
	return turns, nil
}

func (s *MemoryStore) AppendTurn(ctx context.Context, userID string, role domain.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[userID]; !ok {
		return fmt.Errorf("failed to append %s turn: %w: %s", role, domain.ErrUnknownUser, userID)
	}
	s.append(userID, role, content)
	return nil
}

func (s *MemoryStore) AppendExchange(ctx context.Context, userID, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[userID]; !ok {
		return fmt.Errorf("failed to append exchange: %w: %s", domain.ErrUnknownUser, userID)
	}
	s.append(userID, domain.RoleUser, question)
	s.append(userID, domain.RoleAssistant, answer)
	return nil
}

func (s *MemoryStore) append(userID string, role domain.Role, content string) {
	s.turns[userID] = append(s.turns[userID], domain.ChatTurn{
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}
