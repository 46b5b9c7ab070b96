package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"cvector/internal/domain"
	"cvector/internal/llm"
	"cvector/internal/retriever"
)

// emptyStoreAnswer is returned without calling the provider when retrieval
// finds nothing to ground an answer in.
const emptyStoreAnswer = "I don't have any ingested content to answer from yet. Run ingest on a media file or directory first."

// Answer is the outcome of one question: the generated text plus the
// provenance the caller can display.
type Answer struct {
	Text          string
	Sources       []string
	ContextChunks int
}

// Asker answers questions against the ingested corpus: retrieve the most
// relevant chunks, then compose a grounded answer through the provider.
type Asker struct {
	retriever *retriever.Retriever
	composer  *llm.Composer
	logger    *log.Logger
	timeout   time.Duration
}

// NewAsker wires the query pipeline. timeout bounds one whole ask, retrieval
// included; zero means no bound.
func NewAsker(r *retriever.Retriever, composer *llm.Composer, logger *log.Logger, timeout time.Duration) *Asker {
	return &Asker{retriever: r, composer: composer, logger: logger, timeout: timeout}
}

// NewSession starts an empty chat session.
func NewSession() *domain.ChatSession {
	return &domain.ChatSession{ID: uuid.NewString()}
}

// Ask answers one question. With a nil session the call is stateless; with a
// session, prior turns are threaded into the provider request and the new
// turn is recorded on success. An empty store yields a friendly answer
// without contacting the provider.
func (a *Asker) Ask(ctx context.Context, question string, topK int, session *domain.ChatSession) (Answer, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	results, err := a.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Answer{}, fmt.Errorf("%w: retrieval: %v", domain.ErrTimeout, err)
		}
		return Answer{}, err
	}
	if len(results) == 0 {
		a.logger.Debug("no chunks retrieved", "question", question)
		return Answer{Text: emptyStoreAnswer}, nil
	}

	text, err := a.composer.Answer(ctx, question, results, session)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Text:          text,
		Sources:       llm.Sources(results),
		ContextChunks: len(results),
	}, nil
}
