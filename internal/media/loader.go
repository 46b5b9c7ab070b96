// Package media locates supported media files and prepares their audio
// streams for transcription.
package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"cvector/internal/domain"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {}, ".webm": {},
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".m4a": {}, ".flac": {},
}

// Kind classifies a path by extension. ok is false for unsupported formats.
func Kind(path string) (domain.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, found := videoExtensions[ext]; found {
		return domain.MediaKindVideo, true
	}
	if _, found := audioExtensions[ext]; found {
		return domain.MediaKindAudio, true
	}
	return "", false
}

// TaskRunner executes a subprocess task. Injectable so tests can stub ffmpeg.
type TaskRunner func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error)

func runTask(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
	return task.Execute(ctx)
}

// Loader discovers media files under a root path and extracts mono WAV audio
// from video sources via ffmpeg.
type Loader struct {
	fs     afero.Fs
	logger *log.Logger
	ffmpeg string

	// RunTaskFn runs extraction subprocesses; replace it in tests.
	RunTaskFn TaskRunner
}

// NewLoader creates a loader over the given filesystem.
func NewLoader(fs afero.Fs, logger *log.Logger) *Loader {
	return &Loader{fs: fs, logger: logger, ffmpeg: "ffmpeg", RunTaskFn: runTask}
}

// Discover returns the supported media files under root in deterministic
// (sorted) order. A directory is scanned recursively and non-matching files
// are silently skipped; a single file must itself be a supported format.
func (l *Loader) Discover(root string) ([]domain.MediaFile, error) {
	info, err := l.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPathNotFound, root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		kind, ok := Kind(root)
		if !ok {
			return nil, fmt.Errorf("unsupported media format: %s", filepath.Ext(root))
		}
		return []domain.MediaFile{newMediaFile(root, kind)}, nil
	}

	var files []domain.MediaFile
	err = afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if kind, ok := Kind(path); ok {
			files = append(files, newMediaFile(path, kind))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ExtractAudio prepares a file for transcription. Audio files pass through
// untouched. Video files are converted to a temporary 16 kHz mono WAV; the
// returned cleanup func removes that artifact and must be called on every
// exit path.
func (l *Loader) ExtractAudio(ctx context.Context, file domain.MediaFile) (string, func(), error) {
	if file.Kind == domain.MediaKindAudio {
		return file.Path, func() {}, nil
	}

	tmp, err := os.CreateTemp("", "cvector-audio-*.wav")
	if err != nil {
		return "", func() {}, fmt.Errorf("creating extraction artifact: %w", err)
	}
	wavPath := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(wavPath) }

	task := execute.ExecTask{
		Command: l.ffmpeg,
		Args: []string{
			"-i", file.Path,
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", "16000",
			"-ac", "1",
			"-y", wavPath,
		},
		StreamStdio: false,
	}
	l.logger.Debug("extracting audio", "file", file.Path, "artifact", wavPath)

	res, err := l.RunTaskFn(ctx, task)
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("extracting audio from %s: %w", file.Path, err)
	}
	if res.ExitCode != 0 {
		cleanup()
		return "", func() {}, fmt.Errorf("extracting audio from %s: ffmpeg exited %d: %s", file.Path, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return wavPath, cleanup, nil
}

func newMediaFile(path string, kind domain.MediaKind) domain.MediaFile {
	return domain.MediaFile{ID: hashPath(path), Path: filepath.Clean(path), Kind: kind}
}

// hashPath derives a stable source id from the canonical path.
func hashPath(path string) string {
	canonical := filepath.Clean(path)
	if abs, err := filepath.Abs(canonical); err == nil {
		canonical = abs
	}
	h := sha1.Sum([]byte(canonical))
	return hex.EncodeToString(h[:8])
}
