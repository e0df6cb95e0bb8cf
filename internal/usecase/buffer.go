package usecase

import (
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// Buffer is the in-process working copy of one user's history for a single
// ask call. It is seeded from a history snapshot, exclusively owned by the
// orchestrator, and discarded when the call finishes; it is never shared
// across concurrent requests.
type Buffer struct {
	turns []domain.ChatTurn
}

// NewBuffer seeds a buffer from a history snapshot. The snapshot is copied
// so later mutations of the source slice cannot leak in.
func NewBuffer(history []domain.ChatTurn) *Buffer {
	turns := make([]domain.ChatTurn, len(history))
	copy(turns, history)
	return &Buffer{turns: turns}
}

// Append adds a turn to the buffer. Appends are in-memory only; flushing
// new turns to the history store is the orchestrator's job.
func (b *Buffer) Append(role domain.Role, content string) {
	b.turns = append(b.turns, domain.ChatTurn{Role: role, Content: content})
}

// Turns returns the buffered turns in chronological order.
func (b *Buffer) Turns() []domain.ChatTurn {
	return b.turns
}

// Messages renders the buffer as chat messages in chronological order with
// the two-variant roles.
func (b *Buffer) Messages() []port.ChatMessage {
	messages := make([]port.ChatMessage, len(b.turns))
	for i, turn := range b.turns {
		messages[i] = port.ChatMessage{
			Role:    turn.Role.String(),
			Content: turn.Content,
		}
	}
	return messages
}

func (b *Buffer) Len() int {
	return len(b.turns)
}
