package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvector/internal/domain"
)

const sampleOutput = `{
	"result": {"language": "en"},
	"transcription": [
		{"offsets": {"from": 0, "to": 1830}, "text": " I'm happy to have you here today."},
		{"offsets": {"from": 1910, "to": 3610}, "text": " As I'm sure you're all aware."}
	]
}`

func TestParseModelSize(t *testing.T) {
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		size, err := ParseModelSize(name)
		require.NoError(t, err)
		assert.Equal(t, ModelSize(name), size)
	}

	_, err := ParseModelSize("huge")
	assert.ErrorContains(t, err, "unknown model size")
}

func TestParseOutput(t *testing.T) {
	segments, err := ParseOutput([]byte(sampleOutput))
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, 0.0, segments[0].Start)
	assert.InDelta(t, 1.83, segments[0].End, 1e-9)
	assert.Equal(t, " I'm happy to have you here today.", segments[0].Text)
	assert.Equal(t, "en", segments[0].Language)
	assert.Equal(t, "en", segments[1].Language)
}

func TestParseOutputInvalidJSON(t *testing.T) {
	_, err := ParseOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestOpenRejectsUnknownModel(t *testing.T) {
	_, err := Open(Config{Model: "enormous"}, log.New(os.Stderr))
	assert.ErrorContains(t, err, "unknown model size")
}

func TestOpenRejectsMissingModelFile(t *testing.T) {
	_, err := Open(Config{Model: ModelBase, ModelDir: t.TempDir()}, log.New(os.Stderr))
	assert.ErrorContains(t, err, "not available")
}

func TestOpenResolvesModelFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ggml-base.bin"), []byte("model"), 0o644))

	engine, err := Open(Config{Model: ModelBase, ModelDir: dir}, log.New(os.Stderr))
	require.NoError(t, err)
	defer engine.Close()
	assert.Equal(t, ModelBase, engine.model)
}

func TestTranscribe(t *testing.T) {
	engine, err := Open(Config{Model: ModelBase}, log.New(os.Stderr))
	require.NoError(t, err)

	var gotTask execute.ExecTask
	engine.RunTaskFn = func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
		gotTask = task
		// The stub plays whisper-cli: write the JSON the -of prefix names.
		for i, arg := range task.Args {
			if arg == "-of" {
				require.NoError(t, os.WriteFile(task.Args[i+1]+".json", []byte(sampleOutput), 0o644))
			}
		}
		return execute.ExecResult{ExitCode: 0}, nil
	}

	segments, err := engine.Transcribe(context.Background(), "/tmp/audio.wav", "")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "en", segments[0].Language)

	assert.Contains(t, gotTask.Args, "/tmp/audio.wav")
	assert.Contains(t, gotTask.Args, "auto", "language auto-detected when no hint given")
}

func TestTranscribeLanguageHint(t *testing.T) {
	engine, err := Open(Config{Model: ModelBase}, log.New(os.Stderr))
	require.NoError(t, err)

	var gotArgs []string
	engine.RunTaskFn = func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
		gotArgs = task.Args
		for i, arg := range task.Args {
			if arg == "-of" {
				require.NoError(t, os.WriteFile(task.Args[i+1]+".json", []byte(sampleOutput), 0o644))
			}
		}
		return execute.ExecResult{ExitCode: 0}, nil
	}

	_, err = engine.Transcribe(context.Background(), "/tmp/audio.wav", "de")
	require.NoError(t, err)
	assert.Contains(t, gotArgs, "de", "language hint passed through verbatim")
}

func TestTranscribeDecodeFailure(t *testing.T) {
	engine, err := Open(Config{Model: ModelBase}, log.New(os.Stderr))
	require.NoError(t, err)

	engine.RunTaskFn = func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
		return execute.ExecResult{ExitCode: 1, Stderr: "failed to decode audio"}, nil
	}

	_, err = engine.Transcribe(context.Background(), "/tmp/broken.wav", "")
	assert.ErrorIs(t, err, domain.ErrTranscription)
}

func TestTranscribeRunnerError(t *testing.T) {
	engine, err := Open(Config{Model: ModelBase}, log.New(os.Stderr))
	require.NoError(t, err)

	engine.RunTaskFn = func(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
		return execute.ExecResult{}, errors.New("binary missing")
	}

	_, err = engine.Transcribe(context.Background(), "/tmp/audio.wav", "")
	assert.ErrorIs(t, err, domain.ErrTranscription)
}
