package answer

import (
	"fmt"
	"strings"

	"github.com/adidev/chatbot/internal/domain"
)

// systemPrompt is the assistant persona sent with every generation request.
const systemPrompt = `You are AdiDev, a helpful chatbot assistant trained on specific documents.
Your responses should be based primarily on the provided context from the documents.
If you cannot find relevant information in the context, politely say so and ask for clarification.
Be friendly, helpful, and accurate in your responses.`

// DefaultPromptCharBudget bounds the context block of the user prompt.
const DefaultPromptCharBudget = 6000

// fitToBudget drops lowest-ranked passages until the combined context text
// fits the character budget. Passages are never split. The best passage is
// always kept so the generator has something to work with.
func fitToBudget(retrieval []domain.ScoredPassage, budget int) []domain.ScoredPassage {
	if budget <= 0 || len(retrieval) == 0 {
		return retrieval
	}

	kept := retrieval
	for len(kept) > 1 && contextSize(kept) > budget {
		kept = kept[:len(kept)-1]
	}
	return kept
}

func contextSize(passages []domain.ScoredPassage) int {
	total := 0
	for _, p := range passages {
		total += len(p.Passage.Text) + len(p.Passage.Source) + 32 // record framing
	}
	return total
}

// buildUserPrompt renders the retrieved context and the question the way the
// generation model expects them.
func buildUserPrompt(query string, passages []domain.ScoredPassage) string {
	var sb strings.Builder

	sb.WriteString("Context from documents:\n")
	if len(passages) == 0 {
		sb.WriteString("(no relevant documents found)\n")
	}
	for _, p := range passages {
		fmt.Fprintf(&sb, "Source: %s\nContent: %s\n\n", p.Passage.Source, p.Passage.Text)
	}

	fmt.Fprintf(&sb, "User question: %s\n\n", query)
	sb.WriteString("Please answer based on the provided context. If the context doesn't contain " +
		"relevant information, politely say that you don't have that information in your knowledge base.")

	return sb.String()
}

// sourceList returns deduplicated source document names in retrieval order.
func sourceList(passages []domain.ScoredPassage) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, p := range passages {
		if seen[p.Passage.Source] {
			continue
		}
		seen[p.Passage.Source] = true
		sources = append(sources, p.Passage.Source)
	}
	return sources
}
