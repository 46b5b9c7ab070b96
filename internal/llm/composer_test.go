package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvector/internal/domain"
)

// stubGenerator records requests and returns canned answers.
type stubGenerator struct {
	answer string
	err    error
	last   Request
}

func (s *stubGenerator) Model() string { return "stub" }

func (s *stubGenerator) Generate(_ context.Context, req Request) (string, error) {
	s.last = req
	return s.answer, s.err
}

func results() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{ChunkID: "a:0", Score: 0.9, Text: "stop losses protect capital", SourcePath: "/videos/risk.mp4"},
		{ChunkID: "b:0", Score: 0.7, Text: "position sizing matters", SourcePath: "/videos/sizing.mkv"},
	}
}

func TestBuildContext(t *testing.T) {
	ctxBlock := BuildContext(results(), 8000)
	assert.Contains(t, ctxBlock, "[Source: risk.mp4]")
	assert.Contains(t, ctxBlock, "[Source: sizing.mkv]")
	assert.Contains(t, ctxBlock, "\n---\n")
}

func TestBuildContextBudget(t *testing.T) {
	// Budget fits the first chunk only; whole chunks are kept, never split.
	ctxBlock := BuildContext(results(), 60)
	assert.Contains(t, ctxBlock, "risk.mp4")
	assert.NotContains(t, ctxBlock, "sizing.mkv")
}

func TestSources(t *testing.T) {
	rs := append(results(), domain.RetrievalResult{ChunkID: "a:1", SourcePath: "/videos/risk.mp4"})
	assert.Equal(t, []string{"risk.mp4", "sizing.mkv"}, Sources(rs))
}

func TestAnswerThreadsHistory(t *testing.T) {
	gen := &stubGenerator{answer: "second answer"}
	composer := NewComposer(gen, 0)

	session := &domain.ChatSession{ID: "s1"}
	session.Append(domain.ChatTurn{Question: "first question", Answer: "first answer"})

	answer, err := composer.Answer(context.Background(), "second question", results(), session)
	require.NoError(t, err)
	assert.Equal(t, "second answer", answer)

	require.Len(t, gen.last.Messages, 3)
	assert.Equal(t, "first question", gen.last.Messages[0].Content)
	assert.Equal(t, "assistant", gen.last.Messages[1].Role)
	assert.Contains(t, gen.last.Messages[2].Content, "second question")
	assert.Contains(t, gen.last.Messages[2].Content, "[Source: risk.mp4]")
	assert.True(t, strings.Contains(gen.last.System, "cite"), "system prompt asks for source citations")

	require.Len(t, session.Turns, 2)
	assert.Equal(t, []string{"risk.mp4", "sizing.mkv"}, session.Turns[1].Sources)
}

func TestAnswerFailureLeavesSessionUntouched(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	composer := NewComposer(gen, 0)

	session := &domain.ChatSession{ID: "s1"}
	_, err := composer.Answer(context.Background(), "question", results(), session)
	require.Error(t, err)
	assert.Empty(t, session.Turns, "no partial chat-history mutation on failure")
}

func TestAnswerWithoutSession(t *testing.T) {
	gen := &stubGenerator{answer: "stateless"}
	composer := NewComposer(gen, 0)

	answer, err := composer.Answer(context.Background(), "question", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "stateless", answer)
}
