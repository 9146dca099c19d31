package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clip is one synthesized audio resource. File is what a Player plays,
// Token is what the producing Provider needs to release it again.
type Clip struct {
	File  string
	Token string
}

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize produces a new clip for text. Two calls with the same text
	// yield two independent clips that must be released separately.
	Synthesize(ctx context.Context, text string) (Clip, error)

	// Release deletes the resource behind a disposal token
	Release(token string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // Provider name: "openai" or "espeak"
	Fallback     string // Optional fallback provider name
	ClipDir      string // Directory for transient clip files
	CacheDir     string // Persistent synthesis cache, empty disables it
	OutputFormat string // Output format: "mp3" or "wav"

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts model

	// espeak-ng settings
	ESpeakVoice string
	ESpeakSpeed int

	// Circuit breaker; zero failures disables it
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          "openai",
		ClipDir:           filepath.Join(os.TempDir(), "readaloud-clips"),
		OutputFormat:      "mp3",
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "alloy",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "Read the text aloud in a calm, natural narrator voice.",
		ESpeakVoice:       "en-us",
		ESpeakSpeed:       170,
		BreakerFailures:   3,
		BreakerTimeout:    30 * time.Second,
	}
}

// NewProvider creates the provider chain described by config: the primary
// provider, an optional fallback, and an optional circuit breaker in front.
func NewProvider(config *Config, logger *zap.Logger) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	primary, err := newNamedProvider(config.Provider, config)
	if err != nil {
		return nil, err
	}

	var provider Provider = primary
	if config.Fallback != "" && config.Fallback != config.Provider {
		fallback, err := newNamedProvider(config.Fallback, config)
		if err != nil {
			return nil, fmt.Errorf("fallback provider: %w", err)
		}
		provider = NewProviderWithFallback(primary, fallback, logger)
	}

	if config.BreakerFailures > 0 {
		provider = NewBreakerProvider(provider, config.BreakerFailures, config.BreakerTimeout, logger)
	}
	return provider, nil
}

func newNamedProvider(name string, config *Config) (Provider, error) {
	switch name {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	case "espeak":
		return NewESpeakProvider(&ESpeakConfig{
			Voice:   config.ESpeakVoice,
			Speed:   config.ESpeakSpeed,
			ClipDir: config.ClipDir,
		})

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", name)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *zap.Logger

	mu             sync.Mutex
	fallbackTokens map[string]struct{}
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, logger *zap.Logger) *ProviderWithFallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderWithFallback{
		primary:        primary,
		fallback:       fallback,
		logger:         logger,
		fallbackTokens: make(map[string]struct{}),
	}
}

// Synthesize tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) Synthesize(ctx context.Context, text string) (Clip, error) {
	clip, err := p.primary.Synthesize(ctx, text)
	if err == nil {
		return clip, nil
	}
	if ctx.Err() != nil {
		return Clip{}, err
	}

	p.logger.Warn("primary provider failed, falling back",
		zap.String("primary", p.primary.Name()),
		zap.String("fallback", p.fallback.Name()),
		zap.Error(err))

	clip, err = p.fallback.Synthesize(ctx, text)
	if err != nil {
		return Clip{}, err
	}

	p.mu.Lock()
	p.fallbackTokens[clip.Token] = struct{}{}
	p.mu.Unlock()
	return clip, nil
}

// Release hands the token back to whichever provider produced it
func (p *ProviderWithFallback) Release(token string) error {
	p.mu.Lock()
	_, fromFallback := p.fallbackTokens[token]
	delete(p.fallbackTokens, token)
	p.mu.Unlock()

	if fromFallback {
		return p.fallback.Release(token)
	}
	return p.primary.Release(token)
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}

// newClipFile returns a fresh, unused path for a clip with the given extension
func newClipFile(dir, ext string) (string, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "readaloud-clips")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create clip directory: %w", err)
	}
	ext = strings.TrimPrefix(ext, ".")
	return filepath.Join(dir, uuid.NewString()+"."+ext), nil
}

// removeClipFile deletes a clip file; a file that is already gone is fine.
func removeClipFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove clip %s: %w", path, err)
	}
	return nil
}
