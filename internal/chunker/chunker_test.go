package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvector/internal/domain"
)

func mediaFile() domain.MediaFile {
	return domain.MediaFile{ID: "f1a2b3c4", Path: "/videos/lecture.mp4", Kind: domain.MediaKindVideo}
}

func segmentsOf(texts ...string) []domain.TranscriptSegment {
	segs := make([]domain.TranscriptSegment, 0, len(texts))
	start := 0.0
	for _, txt := range texts {
		segs = append(segs, domain.TranscriptSegment{
			Start:    start,
			End:      start + 10,
			Text:     txt,
			Language: "en",
		})
		start += 10
	}
	return segs
}

func TestNew(t *testing.T) {
	t.Run("rejects zero chunk size", func(t *testing.T) {
		_, err := New(0, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
	})

	t.Run("rejects negative overlap", func(t *testing.T) {
		_, err := New(100, -1)
		assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
	})

	t.Run("rejects overlap equal to chunk size", func(t *testing.T) {
		_, err := New(100, 100)
		assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
	})

	t.Run("accepts zero overlap", func(t *testing.T) {
		_, err := New(100, 0)
		assert.NoError(t, err)
	})
}

func TestChunkBoundaries(t *testing.T) {
	// 2400 characters with size 1000 / overlap 200 must yield exactly three
	// windows: [0,1000), [800,1800), [1600,2400).
	c, err := New(1000, 200)
	require.NoError(t, err)

	text := strings.Repeat("a", 800) + strings.Repeat("b", 800) + strings.Repeat("c", 800)
	chunks, err := c.Chunk(mediaFile(), segmentsOf(text[:1200], text[1200:]))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 1000, chunks[0].EndOffset)
	assert.Equal(t, 800, chunks[1].StartOffset)
	assert.Equal(t, 1800, chunks[1].EndOffset)
	assert.Equal(t, 1600, chunks[2].StartOffset)
	assert.Equal(t, 2400, chunks[2].EndOffset)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "f1a2b3c4", ch.SourceID)
		assert.Equal(t, 1000, ch.ChunkSize)
		assert.Equal(t, 200, ch.Overlap)
	}
}

func TestChunkOverlapInvariant(t *testing.T) {
	c, err := New(100, 30)
	require.NoError(t, err)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 12)
	chunks, err := c.Chunk(mediaFile(), segmentsOf(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := 30
		if len(cur.Text) < overlap {
			overlap = len(cur.Text)
		}
		assert.Equal(t, prev.Text[len(prev.Text)-overlap:], cur.Text[:overlap],
			"chunks %d and %d must share the overlap region", i-1, i)
	}
}

func TestChunkNonASCII(t *testing.T) {
	// Windows count characters, not bytes: boundaries must never split a
	// multi-byte rune.
	c, err := New(10, 3)
	require.NoError(t, err)

	chunks, err := c.Chunk(mediaFile(), segmentsOf(strings.Repeat("é", 20)))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk %d text must be valid UTF-8", i)
	}
	assert.Equal(t, strings.Repeat("é", 10), chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 10, chunks[0].EndOffset)
	assert.Equal(t, 7, chunks[1].StartOffset)
	assert.Equal(t, 17, chunks[1].EndOffset)
	assert.Equal(t, 14, chunks[2].StartOffset)
	assert.Equal(t, 20, chunks[2].EndOffset)
	assert.Equal(t, strings.Repeat("é", 6), chunks[2].Text)
}

func TestChunkDeterminism(t *testing.T) {
	c, err := New(120, 40)
	require.NoError(t, err)

	segs := segmentsOf("First part of a talk about storage engines. ", "Second part covering compaction and merges. ", "Third part on write amplification in detail. ")
	first, err := c.Chunk(mediaFile(), segs)
	require.NoError(t, err)
	second, err := c.Chunk(mediaFile(), segs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunkShortTranscript(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	chunks, err := c.Chunk(mediaFile(), segmentsOf("just one short segment"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just one short segment", chunks[0].Text)
	assert.Equal(t, "f1a2b3c4:0", chunks[0].ID)
	assert.Equal(t, "en", chunks[0].Language)
}

func TestChunkEmptyTranscript(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	chunks, err := c.Chunk(mediaFile(), nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkTimestamps(t *testing.T) {
	c, err := New(20, 5)
	require.NoError(t, err)

	segs := []domain.TranscriptSegment{
		{Start: 0, End: 4, Text: strings.Repeat("x", 20), Language: "en"},
		{Start: 4, End: 9, Text: strings.Repeat("y", 20), Language: "en"},
		{Start: 9, End: 15, Text: strings.Repeat("z", 20), Language: "en"},
	}
	chunks, err := c.Chunk(mediaFile(), segs)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// The first window covers only the first segment.
	assert.True(t, chunks[0].HasTimes)
	assert.Equal(t, 0.0, chunks[0].StartTime)
	assert.Equal(t, 4.0, chunks[0].EndTime)

	// The last window must reach the final segment's end time.
	last := chunks[len(chunks)-1]
	assert.True(t, last.HasTimes)
	assert.Equal(t, 15.0, last.EndTime)
}

func TestOffsetIndex(t *testing.T) {
	t.Run("orders segments by start time", func(t *testing.T) {
		ix := NewOffsetIndex([]domain.TranscriptSegment{
			{Start: 5, End: 8, Text: "world"},
			{Start: 0, End: 5, Text: "hello "},
		})
		assert.Equal(t, "hello world", ix.Text())
	})

	t.Run("union of intersecting spans", func(t *testing.T) {
		ix := NewOffsetIndex([]domain.TranscriptSegment{
			{Start: 0, End: 2, Text: "aaaa"},
			{Start: 2, End: 6, Text: "bbbb"},
		})
		from, to, ok := ix.TimeRange(3, 6)
		require.True(t, ok)
		assert.Equal(t, 0.0, from)
		assert.Equal(t, 6.0, to)
	})

	t.Run("no timestamps for empty index", func(t *testing.T) {
		ix := NewOffsetIndex(nil)
		_, _, ok := ix.TimeRange(0, 10)
		assert.False(t, ok)
	})
}
