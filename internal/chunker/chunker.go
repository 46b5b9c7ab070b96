package chunker

import (
	"fmt"
	"sort"
	"strconv"

	"cvector/internal/domain"
)

// Chunker splits transcripts into fixed-size overlapping windows.
// Identical input always produces identical chunk ids and boundaries, so
// re-ingesting a file overwrites its old records instead of duplicating them.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New validates the window parameters. The constraint 0 <= overlap < chunkSize
// is enforced here, before any chunk is produced.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidChunkConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < chunk size %d", domain.ErrInvalidChunkConfig, overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk concatenates the segments in timestamp order and slides a window of
// chunkSize characters across the result, advancing chunkSize-overlap per
// step. The final window is truncated to the remaining text. Consecutive
// chunks overlap by exactly the configured amount, clamped at transcript
// boundaries (a final chunk shorter than the overlap shares its full length).
func (c *Chunker) Chunk(file domain.MediaFile, segments []domain.TranscriptSegment) ([]domain.Chunk, error) {
	index := NewOffsetIndex(segments)
	text := index.runes
	if len(text) == 0 {
		return nil, nil
	}

	language := ""
	for _, seg := range segments {
		if seg.Language != "" {
			language = seg.Language
			break
		}
	}

	var chunks []domain.Chunk
	step := c.chunkSize - c.overlap
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		idx := len(chunks)
		chunk := domain.Chunk{
			ID:          file.ID + ":" + strconv.Itoa(idx),
			SourceID:    file.ID,
			SourcePath:  file.Path,
			Index:       idx,
			Text:        string(text[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Language:    language,
			ChunkSize:   c.chunkSize,
			Overlap:     c.overlap,
		}
		if from, to, ok := index.TimeRange(start, end); ok {
			chunk.StartTime = from
			chunk.EndTime = to
			chunk.HasTimes = true
		}
		chunks = append(chunks, chunk)
		if end == len(text) {
			break
		}
	}
	return chunks, nil
}

// offsetSpan records which character range of the concatenated transcript a
// segment covers.
type offsetSpan struct {
	start int
	end   int
	from  float64
	to    float64
}

// OffsetIndex maps character ranges of the concatenated transcript back to
// segment timestamps. Built once per file, queried per chunk. All offsets
// count characters (runes), not bytes, so window boundaries never split a
// multi-byte character.
type OffsetIndex struct {
	runes []rune
	spans []offsetSpan
}

// NewOffsetIndex concatenates segment texts in timestamp order and records
// the character-offset range each segment covers.
func NewOffsetIndex(segments []domain.TranscriptSegment) *OffsetIndex {
	ordered := make([]domain.TranscriptSegment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	index := &OffsetIndex{}
	offset := 0
	for _, seg := range ordered {
		if seg.Text == "" {
			continue
		}
		segRunes := []rune(seg.Text)
		index.runes = append(index.runes, segRunes...)
		index.spans = append(index.spans, offsetSpan{
			start: offset,
			end:   offset + len(segRunes),
			from:  seg.Start,
			to:    seg.End,
		})
		offset += len(segRunes)
	}
	return index
}

// Text returns the concatenated transcript.
func (ix *OffsetIndex) Text() string { return string(ix.runes) }

// TimeRange returns the union of timestamps of every segment whose offset
// range intersects [start, end). ok is false when no segment carries
// timestamps for the span.
func (ix *OffsetIndex) TimeRange(start, end int) (from, to float64, ok bool) {
	for _, span := range ix.spans {
		if span.start >= end || span.end <= start {
			continue
		}
		if !ok || span.from < from {
			from = span.from
		}
		if !ok || span.to > to {
			to = span.to
		}
		ok = true
	}
	return from, to, ok
}
