// Package service orchestrates the ingestion and query pipelines.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"cvector/internal/chunker"
	"cvector/internal/domain"
)

// MediaSource discovers media files and prepares their audio for
// transcription. Implemented by media.Loader.
type MediaSource interface {
	Discover(root string) ([]domain.MediaFile, error)
	ExtractAudio(ctx context.Context, file domain.MediaFile) (string, func(), error)
}

// FileReport is the per-file outcome of an ingestion batch.
type FileReport struct {
	Path     string
	Chunks   int
	Duration time.Duration
	Err      error
}

// Report summarizes one ingestion run. Partial-batch success is expected:
// failed files are reported alongside the ones that made it in.
type Report struct {
	RunID string
	Files []FileReport
	Stats domain.StoreStats
}

// Failed counts the files whose pipeline failed.
func (r Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded counts the files ingested without error.
func (r Report) Succeeded() int { return len(r.Files) - r.Failed() }

// Ingestor runs the ingestion pipeline: extract, transcribe, chunk, embed,
// store. The transcription engine is acquired by the caller for the whole
// batch and passed in, so the model is loaded once and reused across files.
type Ingestor struct {
	source      MediaSource
	transcriber domain.Transcriber
	chunker     *chunker.Chunker
	embedder    domain.Embedder
	store       domain.VectorStore
	logger      *log.Logger
	workers     int

	mu sync.Mutex // serializes store writes across file pipelines
}

// NewIngestor wires an ingestion pipeline. workers bounds how many files run
// the extract/transcribe stages concurrently; values below 1 mean sequential.
func NewIngestor(source MediaSource, transcriber domain.Transcriber, ch *chunker.Chunker, embedder domain.Embedder, store domain.VectorStore, logger *log.Logger, workers int) *Ingestor {
	if workers < 1 {
		workers = 1
	}
	return &Ingestor{
		source:      source,
		transcriber: transcriber,
		chunker:     ch,
		embedder:    embedder,
		store:       store,
		logger:      logger,
		workers:     workers,
	}
}

// Run ingests every supported media file under root. A failure in one file's
// pipeline never cancels its siblings; the per-file outcomes land in the
// report. Discovery failure is fatal: no partial work is attempted.
func (in *Ingestor) Run(ctx context.Context, root, languageHint string) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	files, err := in.source.Discover(root)
	if err != nil {
		return report, err
	}
	in.logger.Info("starting ingestion", "run", report.RunID, "files", len(files), "workers", in.workers)

	report.Files = make([]FileReport, len(files))
	sem := make(chan struct{}, in.workers)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, file domain.MediaFile) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Files[i] = in.ingestFile(ctx, file, languageHint)
		}(i, file)
	}
	wg.Wait()

	for _, f := range report.Files {
		if f.Err != nil {
			in.logger.Error("file failed", "run", report.RunID, "file", f.Path, "error", f.Err)
		} else {
			in.logger.Info("file ingested", "run", report.RunID, "file", f.Path, "chunks", f.Chunks, "duration", f.Duration)
		}
	}

	stats, err := in.store.Stats(ctx)
	if err != nil {
		return report, err
	}
	report.Stats = stats
	return report, nil
}

// ingestFile runs the full pipeline for one file. The extraction artifact is
// released on every exit path.
func (in *Ingestor) ingestFile(ctx context.Context, file domain.MediaFile, languageHint string) FileReport {
	started := time.Now()
	report := FileReport{Path: file.Path}
	defer func() { report.Duration = time.Since(started) }()

	audioPath, cleanup, err := in.source.ExtractAudio(ctx, file)
	if err != nil {
		report.Err = err
		return report
	}
	defer cleanup()

	segments, err := in.transcriber.Transcribe(ctx, audioPath, languageHint)
	if err != nil {
		report.Err = err
		return report
	}
	for i := range segments {
		segments[i].SourceID = file.ID
	}

	chunks, err := in.chunker.Chunk(file, segments)
	if err != nil {
		report.Err = err
		return report
	}
	if len(chunks) == 0 {
		return report
	}

	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vectors[i], err = in.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			report.Err = fmt.Errorf("embedding chunk %s: %w", chunks[i].ID, err)
			return report
		}
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	res, err := in.store.Upsert(ctx, chunks, vectors)
	if err != nil {
		report.Err = err
		return report
	}
	report.Chunks = res.Inserted + res.Updated
	return report
}
