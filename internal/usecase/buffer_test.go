package usecase

import (
	"testing"

	"ragchat/internal/domain"
)

func TestBuffer_SeedCopies(t *testing.T) {
	history := []domain.ChatTurn{
		{Role: domain.RoleUser, Content: "hi"},
	}
	buffer := NewBuffer(history)

	history[0].Content = "mutated"
	if buffer.Turns()[0].Content != "hi" {
		t.Error("buffer must not alias the seed slice")
	}
}

func TestBuffer_AppendAndMessages(t *testing.T) {
	buffer := NewBuffer(nil)
	buffer.Append(domain.RoleUser, "question")
	buffer.Append(domain.RoleAssistant, "answer")

	if buffer.Len() != 2 {
		t.Fatalf("expected 2 turns, got %d", buffer.Len())
	}

	messages := buffer.Messages()
	if messages[0].Role != "user" || messages[0].Content != "question" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != "assistant" || messages[1].Content != "answer" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
}
