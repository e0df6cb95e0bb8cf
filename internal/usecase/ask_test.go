package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"ragchat/internal/adapter/history"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

type stubRetriever struct {
	results []domain.ScoredPassage
	err     error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type stubModel struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests [][]port.ChatMessage
}

func (s *stubModel) Chat(ctx context.Context, messages []port.ChatMessage) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, messages)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubModel) ModelName() string { return "stub" }

// plainStore exposes only the base HistoryStore methods, hiding
// AppendExchange so the two-step persistence path is exercised.
type plainStore struct {
	inner         *history.MemoryStore
	failAssistant bool
}

func (s *plainStore) EnsureUser(ctx context.Context, userID string) error {
	return s.inner.EnsureUser(ctx, userID)
}

func (s *plainStore) LoadHistory(ctx context.Context, userID string) ([]domain.ChatTurn, error) {
	return s.inner.LoadHistory(ctx, userID)
}

func (s *plainStore) AppendTurn(ctx context.Context, userID string, role domain.Role, content string) error {
	if s.failAssistant && role == domain.RoleAssistant {
		return fmt.Errorf("disk full")
	}
	return s.inner.AppendTurn(ctx, userID, role, content)
}

func newTestAsk(store port.HistoryStore, ret port.Retriever, model port.ChatModel) *AskUseCase {
	return NewAskUseCase(store, ret, model, zap.NewNop(), 3, 4096)
}

func TestAsk_Success(t *testing.T) {
	store := history.NewMemoryStore()
	model := &stubModel{answer: "Hi"}
	ret := &stubRetriever{results: []domain.ScoredPassage{
		{Passage: domain.Passage{SourceID: "p1", Text: "Transformers use attention."}, Score: 0.9},
	}}
	ask := newTestAsk(store, ret, model)

	answer, err := ask.Ask(context.Background(), "U1", "Hello")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer != "Hi" {
		t.Errorf("expected answer Hi, got %q", answer)
	}

	turns, _ := store.LoadHistory(context.Background(), "U1")
	if len(turns) != 2 {
		t.Fatalf("expected exactly 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[0].Content != "Hello" {
		t.Errorf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != domain.RoleAssistant || turns[1].Content != "Hi" {
		t.Errorf("unexpected assistant turn: %+v", turns[1])
	}
}

func TestAsk_GenerationFailurePersistsNothing(t *testing.T) {
	store := history.NewMemoryStore()
	model := &stubModel{err: errors.New("backend outage")}
	ret := &stubRetriever{}
	ask := newTestAsk(store, ret, model)

	_, err := ask.Ask(context.Background(), "U1", "Hello")
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}

	turns, _ := store.LoadHistory(context.Background(), "U1")
	if len(turns) != 0 {
		t.Errorf("expected no persisted turns after failed generation, got %d", len(turns))
	}

	// A retry from the caller succeeds and persists exactly one pair.
	model.err = nil
	model.answer = "Hi"
	if _, err := ask.Ask(context.Background(), "U1", "Hello"); err != nil {
		t.Fatal(err)
	}
	turns, _ = store.LoadHistory(context.Background(), "U1")
	if len(turns) != 2 {
		t.Fatalf("expected exactly [user, assistant], got %d turns", len(turns))
	}
	if turns[0].Content != "Hello" || turns[1].Content != "Hi" {
		t.Errorf("unexpected history: %+v", turns)
	}
}

// failingSeedStore fails every history read.
type failingSeedStore struct {
	*history.MemoryStore
	loadErr error
}

func (s *failingSeedStore) LoadHistory(ctx context.Context, userID string) ([]domain.ChatTurn, error) {
	return nil, s.loadErr
}

func TestAsk_SeedingFailure(t *testing.T) {
	cause := errors.New("db locked")
	store := &failingSeedStore{MemoryStore: history.NewMemoryStore(), loadErr: cause}
	ret := &stubRetriever{}
	model := &stubModel{answer: "never"}
	ask := newTestAsk(store, ret, model)

	_, err := ask.Ask(context.Background(), "U1", "Hello")
	if !errors.Is(err, cause) {
		t.Fatalf("expected the store error to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "seeding") {
		t.Errorf("expected the failing stage in the error, got %q", err.Error())
	}
	if len(model.requests) != 0 {
		t.Error("generator must not be called when seeding fails")
	}
}

func TestAsk_IndexUnavailable(t *testing.T) {
	store := history.NewMemoryStore()
	ret := &stubRetriever{err: domain.ErrIndexNotFound}
	model := &stubModel{answer: "never"}
	ask := newTestAsk(store, ret, model)

	_, err := ask.Ask(context.Background(), "U1", "Hello")
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}

	if len(model.requests) != 0 {
		t.Error("generator must not be called when retrieval fails")
	}
	turns, _ := store.LoadHistory(context.Background(), "U1")
	if len(turns) != 0 {
		t.Errorf("expected no persisted turns, got %d", len(turns))
	}
}

func TestAsk_ConcurrentSameUser(t *testing.T) {
	store := history.NewMemoryStore()
	ret := &stubRetriever{}
	model := &stubModel{answer: "answer"}
	ask := newTestAsk(store, ret, model)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ask.Ask(context.Background(), "U1", "question"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	turns, _ := store.LoadHistory(context.Background(), "U1")
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns from 2 concurrent asks, got %d", len(turns))
	}
	// Pairs may interleave relative to each other, but each pair's order
	// holds: two user turns and two assistant turns in total.
	users, assistants := 0, 0
	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleUser:
			users++
		case domain.RoleAssistant:
			assistants++
		}
	}
	if users != 2 || assistants != 2 {
		t.Errorf("expected 2 user and 2 assistant turns, got %d/%d", users, assistants)
	}
}

func TestAsk_HistoryReachesGenerator(t *testing.T) {
	store := history.NewMemoryStore()
	ret := &stubRetriever{}
	model := &stubModel{answer: "a"}
	ask := newTestAsk(store, ret, model)

	ctx := context.Background()
	if _, err := ask.Ask(ctx, "U1", "first question"); err != nil {
		t.Fatal(err)
	}
	if _, err := ask.Ask(ctx, "U1", "second question"); err != nil {
		t.Fatal(err)
	}

	second := model.requests[1]
	// system + 2 history turns + new question
	if len(second) != 4 {
		t.Fatalf("expected 4 messages in second request, got %d", len(second))
	}
	if second[1].Content != "first question" || second[2].Content != "a" {
		t.Errorf("history not passed chronologically: %+v", second)
	}
	if second[3].Content != "second question" {
		t.Errorf("question must come last, got %q", second[3].Content)
	}
}

func TestAsk_DanglingTurnOnTwoStepPath(t *testing.T) {
	store := &plainStore{inner: history.NewMemoryStore(), failAssistant: true}
	ret := &stubRetriever{}
	model := &stubModel{answer: "a"}
	ask := newTestAsk(store, ret, model)

	_, err := ask.Ask(context.Background(), "U1", "Hello")
	var perr *domain.PersistenceWriteError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceWriteError, got %v", err)
	}
	if !perr.Dangling {
		t.Error("expected the error to flag a dangling user turn")
	}

	// The user turn stays; reconciliation is by log, not rollback.
	turns, _ := store.LoadHistory(context.Background(), "U1")
	if len(turns) != 1 || turns[0].Role != domain.RoleUser {
		t.Errorf("expected exactly the dangling user turn, got %+v", turns)
	}
}
