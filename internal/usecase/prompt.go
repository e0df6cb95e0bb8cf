package usecase

import (
	"fmt"
	"strings"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const systemPreamble = `You are a helpful assistant. Answer the question using ONLY the provided context passages and the conversation so far. Be concise.`

// Tokens are estimated at ~4 characters per token, which is conservative
// for natural-language passages.
const charsPerToken = 4

func estimateTokens(text string) int {
	return len(text)/charsPerToken + 1
}

// assemblePrompt builds the generation request: a system message carrying
// the retrieved passages ordered by descending score, the prior turns in
// chronological order, then the question.
//
// When the assembled input would exceed the token budget, eviction is
// deterministic: oldest turns go first, then the lowest-ranked passages.
// The question is never evicted.
func assemblePrompt(question string, passages []domain.ScoredPassage, history []port.ChatMessage, budget int) []port.ChatMessage {
	base := estimateTokens(systemPreamble) + estimateTokens(question)

	cost := base
	for _, p := range passages {
		cost += estimateTokens(p.Passage.Text)
	}
	for _, m := range history {
		cost += estimateTokens(m.Content)
	}

	for cost > budget {
		if len(history) > 0 {
			cost -= estimateTokens(history[0].Content)
			history = history[1:]
			continue
		}
		if len(passages) > 0 {
			cost -= estimateTokens(passages[len(passages)-1].Passage.Text)
			passages = passages[:len(passages)-1]
			continue
		}
		break
	}

	var sb strings.Builder
	sb.WriteString(systemPreamble)
	if len(passages) > 0 {
		sb.WriteString("\n\nContext passages:")
		for _, p := range passages {
			fmt.Fprintf(&sb, "\n[%s#%d] %s", p.Passage.SourceID, p.Passage.Position, p.Passage.Text)
		}
	}

	messages := make([]port.ChatMessage, 0, len(history)+2)
	messages = append(messages, port.ChatMessage{Role: "system", Content: sb.String()})
	messages = append(messages, history...)
	messages = append(messages, port.ChatMessage{Role: domain.RoleUser.String(), Content: question})

	return messages
}
