package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// AskUseCase composes retriever, buffer and generator into a single ask
// operation and manages turn persistence. One instance serves concurrent
// requests; all per-request state lives in the Buffer.
type AskUseCase struct {
	history   port.HistoryStore
	retriever port.Retriever
	model     port.ChatModel
	logger    *zap.Logger

	topK          int
	contextBudget int
}

// NewAskUseCase creates the orchestrator. logger must not be nil; pass
// zap.NewNop() to discard output.
func NewAskUseCase(
	history port.HistoryStore,
	retriever port.Retriever,
	model port.ChatModel,
	logger *zap.Logger,
	topK int,
	contextBudget int,
) *AskUseCase {
	if topK <= 0 {
		topK = 3
	}
	if contextBudget <= 0 {
		contextBudget = 4096
	}
	return &AskUseCase{
		history:       history,
		retriever:     retriever,
		model:         model,
		logger:        logger,
		topK:          topK,
		contextBudget: contextBudget,
	}
}

// Ask answers the question for the given user and persists the exchange.
// A successful call appends exactly two turns (user, then assistant); a
// failed retrieval or generation appends none, so a user turn never
// persists without its paired answer.
func (u *AskUseCase) Ask(ctx context.Context, userID, question string) (string, error) {
	logger := u.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("user_id", userID),
	)

	// Seeding
	if err := u.history.EnsureUser(ctx, userID); err != nil {
		logger.Warn("seeding failed", zap.Error(err))
		return "", fmt.Errorf("seeding: %w", err)
	}
	snapshot, err := u.history.LoadHistory(ctx, userID)
	if err != nil {
		logger.Warn("seeding failed", zap.Error(err))
		return "", fmt.Errorf("seeding: %w", err)
	}
	buffer := NewBuffer(snapshot)

	// Retrieving
	passages, err := u.retriever.Retrieve(ctx, question, u.topK)
	if err != nil {
		logger.Warn("retrieval failed", zap.Error(err))
		return "", err
	}
	logger.Debug("retrieved passages",
		zap.Int("count", len(passages)),
		zap.Int("history_turns", buffer.Len()))

	// Generating
	messages := assemblePrompt(question, passages, buffer.Messages(), u.contextBudget)
	answer, err := u.model.Chat(ctx, messages)
	if err != nil {
		logger.Warn("generation failed", zap.Error(err))
		return "", &domain.GenerationError{Stage: "generation", Err: err}
	}

	// Persisting
	if err := u.persistExchange(ctx, logger, userID, question, answer); err != nil {
		return "", err
	}

	return answer, nil
}

// persistExchange commits the turn pair. Stores with atomic exchange
// support get a single transactional write; otherwise the two turns are
// appended separately and a failure after the first append is logged for
// reconciliation, since there is no cross-write transaction to roll back.
func (u *AskUseCase) persistExchange(ctx context.Context, logger *zap.Logger, userID, question, answer string) error {
	if ew, ok := u.history.(port.ExchangeWriter); ok {
		if err := ew.AppendExchange(ctx, userID, question, answer); err != nil {
			logger.Error("failed to persist exchange", zap.Error(err))
			return &domain.PersistenceWriteError{UserID: userID, Role: domain.RoleUser, Err: err}
		}
		return nil
	}

	if err := u.history.AppendTurn(ctx, userID, domain.RoleUser, question); err != nil {
		logger.Error("failed to persist user turn", zap.Error(err))
		return &domain.PersistenceWriteError{UserID: userID, Role: domain.RoleUser, Err: err}
	}
	if err := u.history.AppendTurn(ctx, userID, domain.RoleAssistant, answer); err != nil {
		logger.Error("dangling user turn: assistant append failed after user turn committed",
			zap.Time("timestamp", time.Now().UTC()),
			zap.Error(err))
		return &domain.PersistenceWriteError{UserID: userID, Role: domain.RoleAssistant, Dangling: true, Err: err}
	}
	return nil
}
