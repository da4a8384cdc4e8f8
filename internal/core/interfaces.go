// Package core defines the core business logic and interfaces for the
// voice-clone service.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Validation limits for synthesis options.
const (
	MinSampleRate = 8000
	MaxSampleRate = 48000
)

var (
	// ErrTemperatureRange indicates that the Temperature parameter is out of the valid range [0.0, ...).
	ErrTemperatureRange = errors.New("temperature must be >= 0.0")
	// ErrTopPRange indicates that the TopP parameter is out of the valid range [0.0, 1.0].
	ErrTopPRange = errors.New("top_p must be between 0.0 and 1.0")
	// ErrTopKNegative indicates that the TopK parameter is negative.
	ErrTopKNegative = errors.New("top_k must be non-negative")
	// ErrSampleRateRange indicates that the sample rate is outside the supported range.
	ErrSampleRateRange = errors.New("sample rate out of range")
)

// Clip is a single piece of synthesized speech: 16-bit little-endian mono PCM
// samples plus the rate they were generated at.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// Duration reports the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || len(c.PCM) == 0 {
		return 0
	}

	samples := len(c.PCM) / 2

	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// SynthesisOptions holds the sampling parameters for a single synthesis run.
// This allows for per-request customization of the generated speech.
type SynthesisOptions struct {
	Temperature float64
	TopP        float64
	TopK        int
	SampleRate  int
}

// Validate ensures the options contain valid and safe values.
func (o SynthesisOptions) Validate() error {
	if o.Temperature < 0.0 {
		return fmt.Errorf("%w: got %f", ErrTemperatureRange, o.Temperature)
	}

	if o.TopP < 0.0 || o.TopP > 1.0 {
		return fmt.Errorf("%w: got %f", ErrTopPRange, o.TopP)
	}

	if o.TopK < 0 {
		return fmt.Errorf("%w: got %d", ErrTopKNegative, o.TopK)
	}

	if o.SampleRate < MinSampleRate || o.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: got %d", ErrSampleRateRange, o.SampleRate)
	}

	return nil
}

// Reference is a stored reference-voice sample used to condition synthesis.
type Reference struct {
	ID         string
	Name       string
	Path       string
	UploadedAt time.Time
}

// Synthesizer defines the interface for a voice-cloning speech engine.
// The reference path points at the audio sample whose voice the output
// should imitate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, referencePath string, opts SynthesisOptions) (Clip, error)
	Options() SynthesisOptions
}

// ReferenceStore manages uploaded reference-voice samples. The store keeps
// every upload and tracks which one is the current reference for synthesis.
type ReferenceStore interface {
	Save(name string, data []byte) (Reference, error)
	Current() (Reference, bool)
	List() []Reference
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// ClipArchiver persists synthesized clips for downstream consumers. The
// returned key identifies the archived object; implementations may be no-ops.
type ClipArchiver interface {
	ArchiveClip(ctx context.Context, text string, wavData []byte) (string, error)
}
