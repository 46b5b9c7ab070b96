package domain

import "context"

// MediaKind distinguishes video sources (which need audio extraction)
// from plain audio sources.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// MediaFile is a discovered media source. The ID is stable across runs for
// the same canonical path, so re-ingesting a file addresses the same chunks.
type MediaFile struct {
	ID   string
	Path string
	Kind MediaKind
}

// TranscriptSegment is one timestamped piece of transcribed speech.
// Segments are transient; they only live between transcription and chunking.
type TranscriptSegment struct {
	SourceID string
	Start    float64 // seconds from the beginning of the media
	End      float64
	Text     string
	Language string
}

// Chunk is the atomic unit of storage and retrieval: a bounded span of the
// concatenated transcript with enough metadata to cite its origin.
type Chunk struct {
	ID          string
	SourceID    string
	SourcePath  string
	Index       int
	Text        string
	StartOffset int // character offsets into the concatenated transcript
	EndOffset   int
	StartTime   float64
	EndTime     float64
	HasTimes    bool
	Language    string
	ChunkSize   int
	Overlap     int
}

// RetrievalResult is a stored chunk scored against a query vector.
// Higher scores are more relevant.
type RetrievalResult struct {
	ChunkID    string
	Score      float64
	Text       string
	SourcePath string
	Index      int
	StartTime  float64
	EndTime    float64
}

// UpsertResult reports how many records an upsert wrote.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// StoreStats summarizes the persisted state of a vector store.
type StoreStats struct {
	TotalChunks      int
	TotalSourceFiles int
	StorageBytes     int64
	Files            []string
}

// ChatTurn is one completed question/answer exchange.
type ChatTurn struct {
	Question string
	Context  []RetrievalResult
	Answer   string
	Sources  []string
}

// ChatSession holds the history of one interactive chat invocation.
// It is never persisted.
type ChatSession struct {
	ID    string
	Turns []ChatTurn
}

// Append records a completed turn.
func (s *ChatSession) Append(turn ChatTurn) {
	s.Turns = append(s.Turns, turn)
}

// Embedder converts free text into a fixed-dimensionality vector.
// Query and chunk embeddings must come from the same Embedder, otherwise
// similarity scores are meaningless.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Transcriber turns an audio file into timestamped transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) ([]TranscriptSegment, error)
}

// VectorStore persists chunks with their embeddings and supports
// similarity search. It exclusively owns the on-disk state at its db path.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) (UpsertResult, error)
	Query(ctx context.Context, vector []float64, topK int) ([]RetrievalResult, error)
	Stats(ctx context.Context) (StoreStats, error)
	Clear(ctx context.Context) error
	Close() error
}
