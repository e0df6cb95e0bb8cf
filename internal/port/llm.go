package port

import "context"

// ChatMessage is one message in a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel represents a language model behind a chat-completion API.
type ChatModel interface {
	// Chat sends the assembled messages and returns the model's reply.
	// The context bounds the call; expiry surfaces as an error.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
