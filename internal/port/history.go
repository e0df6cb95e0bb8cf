package port

import (
	"context"

	"ragchat/internal/domain"
)

// HistoryStore is the durable, append-only, per-user log of chat turns.
// It is the source of truth for conversation history. Appends for the
// same user are serialized; different users never block each other.
type HistoryStore interface {
	// EnsureUser creates the user if absent. Idempotent.
	EnsureUser(ctx context.Context, userID string) error

	// LoadHistory returns the user's turns in chronological order,
	// ties broken by insertion order. Empty slice for unknown users.
	LoadHistory(ctx context.Context, userID string) ([]domain.ChatTurn, error)

	// AppendTurn atomically appends a single turn. The user must have
	// been registered with EnsureUser; appending for an unknown user
	// fails with domain.ErrUnknownUser rather than dropping the turn.
	AppendTurn(ctx context.Context, userID string, role domain.Role, content string) error
}

// ExchangeWriter is an optional capability of a HistoryStore: committing a
// user/assistant turn pair as one atomic unit, so a dangling user turn can
// never persist. Stores without it fall back to two AppendTurn calls and
// the orchestrator's reconciliation logging.
type ExchangeWriter interface {
	AppendExchange(ctx context.Context, userID, question, answer string) error
}
