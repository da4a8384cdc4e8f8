// Package synthesis implements the core.Synthesizer interface by driving the
// Llasa inference runner binary.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/audio"
	"github.com/book-expert/voiceclone-service/internal/config"
	"github.com/book-expert/voiceclone-service/internal/core"
)

var (
	// ErrTextEmpty indicates that there is no text to synthesize.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrReferenceEmpty indicates that no reference audio path was provided.
	ErrReferenceEmpty = errors.New("reference audio path cannot be empty")
	// ErrRunnerPathEmpty indicates that the runner binary is not configured.
	ErrRunnerPathEmpty = errors.New("runner path cannot be empty")
)

// Engine runs voice-cloned synthesis by invoking the inference runner once
// per request. The runner holds the model; the engine owns argument
// construction, temp-file handling, and decoding the exported WAV.
type Engine struct {
	cfg config.TTSConfig
	log *logger.Logger

	// The runner drives a single model instance on the GPU, so inference
	// runs are serialized here rather than queued in the runner.
	mu sync.Mutex
}

// New creates an Engine for the configured runner and model directory.
func New(cfg config.TTSConfig, log *logger.Logger) (*Engine, error) {
	if cfg.RunnerPath == "" {
		return nil, ErrRunnerPathEmpty
	}

	return &Engine{
		cfg: cfg,
		log: log,
	}, nil
}

// Options returns the configured default sampling parameters.
func (e *Engine) Options() core.SynthesisOptions {
	return core.SynthesisOptions{
		Temperature: e.cfg.Temperature,
		TopP:        e.cfg.TopP,
		TopK:        e.cfg.TopK,
		SampleRate:  e.cfg.SampleRate,
	}
}

// Synthesize generates speech for text in the voice of the reference sample.
// The returned clip carries raw 16-bit mono PCM at the rate reported by the
// runner's WAV export.
func (e *Engine) Synthesize(
	ctx context.Context,
	text, referencePath string,
	opts core.SynthesisOptions,
) (core.Clip, error) {
	text = NormalizeText(text)
	if text == "" {
		return core.Clip{}, ErrTextEmpty
	}

	if referencePath == "" {
		return core.Clip{}, ErrReferenceEmpty
	}

	validationErr := opts.Validate()
	if validationErr != nil {
		return core.Clip{}, validationErr
	}

	tempFile, err := os.CreateTemp("", "voiceclone-output-*.wav")
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to create temp file for synthesis output: %w", err)
	}

	defer func() {
		removeErr := os.Remove(tempFile.Name())
		if removeErr != nil {
			e.log.Warn("Failed to remove temp file '%s': %v", tempFile.Name(), removeErr)
		}
	}()

	closeErr := tempFile.Close()
	if closeErr != nil {
		return core.Clip{}, fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	wavData, err := e.runInference(ctx, text, referencePath, tempFile.Name(), opts)
	if err != nil {
		return core.Clip{}, err
	}

	pcm, sampleRate, err := audio.ParseWAV(wavData)
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to decode runner output: %w", err)
	}

	clip := core.Clip{
		PCM:        pcm,
		SampleRate: sampleRate,
	}

	e.log.Info("Synthesized %.2fs of audio for %d characters of text",
		clip.Duration().Seconds(), len(text))

	return clip, nil
}

func (e *Engine) runInference(
	ctx context.Context,
	text, referencePath, exportPath string,
	opts core.SynthesisOptions,
) ([]byte, error) {
	args := []string{
		"-m", e.cfg.ModelDir,
		"--ref_audio", referencePath,
		"-p", text,
		"--tts_export", exportPath,
		"--temp", fmt.Sprintf("%.2f", opts.Temperature),
		"--top_p", fmt.Sprintf("%.2f", opts.TopP),
		"--top_k", strconv.Itoa(opts.TopK),
		"--sample_rate", strconv.Itoa(opts.SampleRate),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// #nosec G204 -- arguments are validated via core.SynthesisOptions validation
	cmd := exec.CommandContext(ctx, e.cfg.RunnerPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("runner execution failed: %w - output: %s", err, string(output))
	}

	wavData, err := os.ReadFile(exportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data from temp file: %w", err)
	}

	return wavData, nil
}
