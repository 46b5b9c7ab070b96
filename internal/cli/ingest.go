package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cvector/internal/chunker"
	"cvector/internal/media"
	"cvector/internal/service"
	"cvector/internal/transcribe"
)

// IngestFlags holds the flags for the ingest command.
type IngestFlags struct {
	Model     string
	Language  string
	ChunkSize int
	Overlap   int
	Workers   int
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(fs afero.Fs, globals *GlobalFlags, logger *log.Logger) *cobra.Command {
	flags := &IngestFlags{}

	ingestCmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "Transcribe media and add it to the index",
		Long: `Ingest a media file or every supported file under a directory.

Each file is converted to audio, transcribed with whisper.cpp, chunked and
embedded into the local index. Re-ingesting a file replaces its chunks in
place. One bad file never aborts the batch; failures are reported at the end.

Supported formats:
  video: mp4, mkv, avi, mov, webm
  audio: mp3, wav, m4a, flac`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], fs, globals, flags, logger)
		},
	}

	ingestCmd.Flags().StringVar(&flags.Model, "model", "", "Whisper model size (tiny, base, small, medium, large)")
	ingestCmd.Flags().StringVar(&flags.Language, "language", "", "Language hint for transcription (default auto-detect)")
	ingestCmd.Flags().IntVar(&flags.ChunkSize, "chunk-size", 0, "Chunk size in characters (default 1000)")
	ingestCmd.Flags().IntVar(&flags.Overlap, "overlap", 0, "Overlap between consecutive chunks in characters (default 200)")
	ingestCmd.Flags().IntVar(&flags.Workers, "workers", 0, "Files transcribed concurrently (default 1)")

	return ingestCmd
}

func runIngest(cmd *cobra.Command, root string, fs afero.Fs, globals *GlobalFlags, flags *IngestFlags, logger *log.Logger) error {
	cfg, err := loadConfig(fs, globals)
	if err != nil {
		return err
	}
	if flags.Model != "" {
		cfg.Transcribe.Model = flags.Model
	}
	if flags.ChunkSize > 0 {
		cfg.Chunker.ChunkSize = flags.ChunkSize
	}
	if cmd.Flags().Changed("overlap") {
		cfg.Chunker.Overlap = flags.Overlap
	}
	if flags.Workers > 0 {
		cfg.Ingest.Workers = flags.Workers
	}

	ch, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return err
	}

	engine, err := transcribe.Open(transcribe.Config{
		Binary:   cfg.Transcribe.Binary,
		ModelDir: cfg.Transcribe.ModelDir,
		Model:    transcribe.ModelSize(cfg.Transcribe.Model),
		Language: cfg.Transcribe.Language,
	}, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	loader := media.NewLoader(fs, logger)
	ingestor := service.NewIngestor(loader, engine, ch, newEmbedder(cfg), store, logger, cfg.Ingest.Workers)

	report, err := ingestor.Run(cmd.Context(), root, flags.Language)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		if f.Err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", f.Path, f.Err)
		} else {
			fmt.Fprintf(out, "✓ %s (%d chunks, %s)\n", f.Path, f.Chunks, f.Duration.Round(10*time.Millisecond))
		}
	}
	fmt.Fprintf(out, "\nIngested %d of %d files. Index now holds %d chunks from %d files.\n",
		report.Succeeded(), len(report.Files), report.Stats.TotalChunks, report.Stats.TotalSourceFiles)

	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(report.Files))
	}
	return nil
}
