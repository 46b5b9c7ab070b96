// Package transcribe adapts the external whisper.cpp speech-to-text engine.
// The engine is treated as a black box: audio in, timestamped segments and a
// detected language out.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/charmbracelet/log"

	"cvector/internal/domain"
)

// ModelSize selects the whisper model, trading latency for accuracy.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelBase   ModelSize = "base"
	ModelSmall  ModelSize = "small"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"
)

// ParseModelSize validates a model size name. Unknown sizes are rejected
// rather than substituted.
func ParseModelSize(s string) (ModelSize, error) {
	switch ModelSize(s) {
	case ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge:
		return ModelSize(s), nil
	}
	return "", fmt.Errorf("unknown model size %q (expected tiny, base, small, medium or large)", s)
}

// TaskRunner executes a subprocess task. Injectable so tests can stub the
// whisper binary.
type TaskRunner func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error)

func runTask(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
	return task.Execute(ctx)
}

// Config configures the whisper engine.
type Config struct {
	Binary   string // whisper-cli binary, looked up on PATH when bare
	ModelDir string // directory holding ggml-<size>.bin model files
	Model    ModelSize
	Language string // optional hint; empty means auto-detect
}

// Engine is the process-wide transcription resource: the model file is
// resolved and validated once per ingestion batch, then reused for every
// file. Callers own its lifecycle via Open/Close.
type Engine struct {
	binary    string
	modelPath string
	model     ModelSize
	language  string
	logger    *log.Logger

	// RunTaskFn runs the whisper subprocess; replace it in tests.
	RunTaskFn TaskRunner
}

var _ domain.Transcriber = (*Engine)(nil)

// Open validates the configuration and acquires the model for the coming
// batch.
func Open(cfg Config, logger *log.Logger) (*Engine, error) {
	model, err := ParseModelSize(string(cfg.Model))
	if err != nil {
		return nil, err
	}
	binary := cfg.Binary
	if binary == "" {
		binary = "whisper-cli"
	}
	modelPath := filepath.Join(cfg.ModelDir, fmt.Sprintf("ggml-%s.bin", model))
	if cfg.ModelDir != "" {
		if _, err := os.Stat(modelPath); err != nil {
			return nil, fmt.Errorf("model %s not available: %w", model, err)
		}
	}
	logger.Debug("transcription engine ready", "binary", binary, "model", model)
	return &Engine{
		binary:    binary,
		modelPath: modelPath,
		model:     model,
		language:  cfg.Language,
		logger:    logger,
		RunTaskFn: runTask,
	}, nil
}

// Close releases the engine. The subprocess model holds no live resources
// between calls, so this only marks the end of the batch.
func (e *Engine) Close() error { return nil }

// Transcribe runs whisper over one audio file and returns its timestamped
// segments. languageHint overrides the engine-level hint; when both are
// empty the language is auto-detected and recorded on every segment.
func (e *Engine) Transcribe(ctx context.Context, audioPath, languageHint string) ([]domain.TranscriptSegment, error) {
	language := languageHint
	if language == "" {
		language = e.language
	}
	if language == "" {
		language = "auto"
	}

	outDir, err := os.MkdirTemp("", "cvector-transcript-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating output dir: %v", domain.ErrTranscription, err)
	}
	defer os.RemoveAll(outDir)
	outPrefix := filepath.Join(outDir, "transcript")

	task := execute.ExecTask{
		Command: e.binary,
		Args: []string{
			"-m", e.modelPath,
			"-f", audioPath,
			"-l", language,
			"-oj",
			"-of", outPrefix,
		},
		StreamStdio: false,
	}
	e.logger.Debug("transcribing", "file", audioPath, "model", e.model, "language", language)

	res, err := e.RunTaskFn(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTranscription, audioPath, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%w: %s: whisper exited %d: %s", domain.ErrTranscription, audioPath, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	payload, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading transcript: %v", domain.ErrTranscription, audioPath, err)
	}
	segments, err := ParseOutput(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTranscription, audioPath, err)
	}
	return segments, nil
}

// whisperOutput is the whisper.cpp -oj JSON shape.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"` // milliseconds
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// ParseOutput decodes whisper.cpp JSON into transcript segments. The
// detected language is stamped on every segment.
func ParseOutput(payload []byte) ([]domain.TranscriptSegment, error) {
	var out whisperOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding whisper output: %v", err)
	}
	segments := make([]domain.TranscriptSegment, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		segments = append(segments, domain.TranscriptSegment{
			Start:    float64(seg.Offsets.From) / 1000,
			End:      float64(seg.Offsets.To) / 1000,
			Text:     seg.Text,
			Language: out.Result.Language,
		})
	}
	return segments, nil
}
