package llm

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"cvector/internal/domain"
)

const systemPrompt = `You are a helpful assistant that answers questions based on transcribed spoken-word content.
Use the provided context to answer the question. If the context doesn't contain relevant information, say so.
Always cite which source file the information comes from when possible.`

// Composer formats retrieved context plus the question for a generator and
// returns grounded answers. It is stateless per call; multi-turn coherence
// comes from the ChatSession threaded in by the caller.
type Composer struct {
	generator       Generator
	maxContextChars int
}

// NewComposer creates a composer over the given generator. maxContextChars
// bounds the context portion of the prompt; zero means the default budget.
func NewComposer(generator Generator, maxContextChars int) *Composer {
	if maxContextChars <= 0 {
		maxContextChars = 8000
	}
	return &Composer{generator: generator, maxContextChars: maxContextChars}
}

// BuildContext renders retrieval results as attributed excerpts, keeping
// whole chunks until the character budget is spent.
func BuildContext(results []domain.RetrievalResult, maxChars int) string {
	var parts []string
	total := 0
	for _, r := range results {
		part := fmt.Sprintf("[Source: %s]\n%s\n", filepath.Base(r.SourcePath), r.Text)
		if total+len(part) > maxChars {
			break
		}
		parts = append(parts, part)
		total += len(part)
	}
	return strings.Join(parts, "\n---\n")
}

// Sources returns the unique source file names of the results, sorted.
func Sources(results []domain.RetrievalResult) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, r := range results {
		name := filepath.Base(r.SourcePath)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			sources = append(sources, name)
		}
	}
	sort.Strings(sources)
	return sources
}

// Answer generates a grounded answer for the question. When a session is
// provided its turns precede the question for multi-turn coherence, and the
// completed turn is appended only on success, so a failed or timed-out call
// leaves the history untouched.
func (c *Composer) Answer(ctx context.Context, question string, results []domain.RetrievalResult, session *domain.ChatSession) (string, error) {
	contextBlock := BuildContext(results, c.maxContextChars)

	var messages []Message
	if session != nil {
		for _, turn := range session.Turns {
			messages = append(messages,
				Message{Role: "user", Content: turn.Question},
				Message{Role: "assistant", Content: turn.Answer},
			)
		}
	}
	messages = append(messages, Message{
		Role:    "user",
		Content: fmt.Sprintf("Context from transcripts:\n\n%s\n\n---\n\nQuestion: %s", contextBlock, question),
	})

	answer, err := c.generator.Generate(ctx, Request{System: systemPrompt, Messages: messages})
	if err != nil {
		return "", err
	}

	if session != nil {
		session.Append(domain.ChatTurn{
			Question: question,
			Context:  results,
			Answer:   answer,
			Sources:  Sources(results),
		})
	}
	return answer, nil
}
