package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockProvider implements Provider interface for testing
type mockProvider struct {
	name            string
	synthesizeErr   error
	availableErr    error
	releaseErr      error
	synthesizeCalls int
	released        []string
}

func (m *mockProvider) Synthesize(ctx context.Context, text string) (Clip, error) {
	m.synthesizeCalls++
	if m.synthesizeErr != nil {
		return Clip{}, m.synthesizeErr
	}
	token := fmt.Sprintf("%s-%d", m.name, m.synthesizeCalls)
	return Clip{File: token + ".mp3", Token: token}, nil
}

func (m *mockProvider) Release(token string) error {
	m.released = append(m.released, token)
	return m.releaseErr
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) IsAvailable() error {
	return m.availableErr
}

func TestDefaultProviderConfig(t *testing.T) {
	config := DefaultProviderConfig()

	if config.Provider != "openai" {
		t.Errorf("Expected provider 'openai', got '%s'", config.Provider)
	}

	if config.OutputFormat != "mp3" {
		t.Errorf("Expected output format 'mp3', got '%s'", config.OutputFormat)
	}

	if config.OpenAIModel != "gpt-4o-mini-tts" {
		t.Errorf("Expected OpenAI model 'gpt-4o-mini-tts', got '%s'", config.OpenAIModel)
	}

	if config.OpenAIVoice != "alloy" {
		t.Errorf("Expected OpenAI voice 'alloy', got '%s'", config.OpenAIVoice)
	}

	if config.OpenAISpeed != 1.0 {
		t.Errorf("Expected OpenAI speed 1.0, got %f", config.OpenAISpeed)
	}

	if config.ClipDir == "" {
		t.Error("Expected a default clip directory")
	}

	if config.BreakerFailures == 0 {
		t.Error("Expected the circuit breaker to be enabled by default")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil config uses defaults",
			config:  nil,
			wantErr: true,
			errMsg:  "OpenAI API key is required",
		},
		{
			name: "openai provider without key",
			config: &Config{
				Provider: "openai",
			},
			wantErr: true,
			errMsg:  "OpenAI API key is required",
		},
		{
			name: "unknown provider",
			config: &Config{
				Provider: "unknown",
			},
			wantErr: true,
			errMsg:  "unknown audio provider: unknown",
		},
		{
			name: "unknown fallback",
			config: &Config{
				Provider:  "openai",
				OpenAIKey: "test-key",
				Fallback:  "nope",
			},
			wantErr: true,
			errMsg:  "fallback provider: unknown audio provider: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && err.Error() != tt.errMsg {
				t.Errorf("NewProvider() error = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestNewProviderWrapsBreaker(t *testing.T) {
	config := &Config{
		Provider:        "openai",
		OpenAIKey:       "test-key",
		ClipDir:         t.TempDir(),
		BreakerFailures: 2,
	}

	provider, err := NewProvider(config, nil)
	if err != nil {
		t.Fatalf("NewProvider() unexpected error: %v", err)
	}

	if _, ok := provider.(*BreakerProvider); !ok {
		t.Errorf("NewProvider() = %T, want *BreakerProvider", provider)
	}
	if provider.Name() != "openai" {
		t.Errorf("Name() = %v, want openai", provider.Name())
	}

	config.BreakerFailures = 0
	provider, err = NewProvider(config, nil)
	if err != nil {
		t.Fatalf("NewProvider() unexpected error: %v", err)
	}
	if _, ok := provider.(*OpenAIProvider); !ok {
		t.Errorf("NewProvider() without breaker = %T, want *OpenAIProvider", provider)
	}
}

func TestProviderWithFallback(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}

	provider := NewProviderWithFallback(primary, fallback, nil)

	// Test successful primary
	ctx := context.Background()
	clip, err := provider.Synthesize(ctx, "test")
	if err != nil {
		t.Errorf("Synthesize() unexpected error: %v", err)
	}
	if clip.Token != "primary-1" {
		t.Errorf("Synthesize() token = %v, want primary-1", clip.Token)
	}
	if primary.synthesizeCalls != 1 {
		t.Errorf("Expected 1 primary call, got %d", primary.synthesizeCalls)
	}
	if fallback.synthesizeCalls != 0 {
		t.Errorf("Expected 0 fallback calls, got %d", fallback.synthesizeCalls)
	}

	// Test primary failure, fallback success
	primary.synthesizeErr = errors.New("primary failed")
	primary.synthesizeCalls = 0

	clip, err = provider.Synthesize(ctx, "test")
	if err != nil {
		t.Errorf("Synthesize() unexpected error: %v", err)
	}
	if clip.Token != "fallback-1" {
		t.Errorf("Synthesize() token = %v, want fallback-1", clip.Token)
	}
	if primary.synthesizeCalls != 1 {
		t.Errorf("Expected 1 primary call, got %d", primary.synthesizeCalls)
	}
	if fallback.synthesizeCalls != 1 {
		t.Errorf("Expected 1 fallback call, got %d", fallback.synthesizeCalls)
	}

	// Test both fail
	fallback.synthesizeErr = errors.New("fallback failed")
	primary.synthesizeCalls = 0
	fallback.synthesizeCalls = 0

	_, err = provider.Synthesize(ctx, "test")
	if err == nil {
		t.Error("Synthesize() expected error when both providers fail")
	}
}

func TestProviderWithFallbackSkipsFallbackWhenCancelled(t *testing.T) {
	primary := &mockProvider{name: "primary", synthesizeErr: context.Canceled}
	fallback := &mockProvider{name: "fallback"}
	provider := NewProviderWithFallback(primary, fallback, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := provider.Synthesize(ctx, "test"); err == nil {
		t.Error("Synthesize() expected error for cancelled context")
	}
	if fallback.synthesizeCalls != 0 {
		t.Errorf("Expected 0 fallback calls, got %d", fallback.synthesizeCalls)
	}
}

func TestProviderWithFallbackReleaseRouting(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}
	provider := NewProviderWithFallback(primary, fallback, nil)
	ctx := context.Background()

	first, _ := provider.Synthesize(ctx, "one")
	primary.synthesizeErr = errors.New("quota exceeded")
	second, _ := provider.Synthesize(ctx, "two")

	if err := provider.Release(second.Token); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}
	if err := provider.Release(first.Token); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}

	if len(fallback.released) != 1 || fallback.released[0] != second.Token {
		t.Errorf("fallback released %v, want [%s]", fallback.released, second.Token)
	}
	if len(primary.released) != 1 || primary.released[0] != first.Token {
		t.Errorf("primary released %v, want [%s]", primary.released, first.Token)
	}
}

func TestProviderWithFallbackName(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}

	provider := NewProviderWithFallback(primary, fallback, nil)

	expected := "primary (fallback: fallback)"
	if provider.Name() != expected {
		t.Errorf("Name() = %v, want %v", provider.Name(), expected)
	}
}

func TestProviderWithFallbackIsAvailable(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	fallback := &mockProvider{name: "fallback"}

	provider := NewProviderWithFallback(primary, fallback, nil)

	// Both available
	err := provider.IsAvailable()
	if err != nil {
		t.Errorf("IsAvailable() unexpected error: %v", err)
	}

	// Primary unavailable, fallback available
	primary.availableErr = errors.New("primary unavailable")
	err = provider.IsAvailable()
	if err != nil {
		t.Errorf("IsAvailable() unexpected error when fallback available: %v", err)
	}

	// Both unavailable
	fallback.availableErr = errors.New("fallback unavailable")
	err = provider.IsAvailable()
	if err == nil {
		t.Error("IsAvailable() expected error when both providers unavailable")
	}
}

func TestNewClipFileIsUnique(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clips")

	first, err := newClipFile(dir, ".mp3")
	if err != nil {
		t.Fatalf("newClipFile() unexpected error: %v", err)
	}
	second, err := newClipFile(dir, "mp3")
	if err != nil {
		t.Fatalf("newClipFile() unexpected error: %v", err)
	}

	if first == second {
		t.Errorf("newClipFile() returned the same path twice: %s", first)
	}
	if !strings.HasPrefix(first, dir) || !strings.HasSuffix(first, ".mp3") {
		t.Errorf("newClipFile() = %s, want %s/*.mp3", first, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("clip directory not created: %v", err)
	}
}

func TestRemoveClipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte{0xFF, 0xFB}, 0644); err != nil {
		t.Fatalf("Failed to create clip: %v", err)
	}

	if err := removeClipFile(path); err != nil {
		t.Errorf("removeClipFile() unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("clip still exists after removeClipFile()")
	}

	// Second removal is a no-op
	if err := removeClipFile(path); err != nil {
		t.Errorf("removeClipFile() on missing file returned error: %v", err)
	}
	if err := removeClipFile(""); err != nil {
		t.Errorf("removeClipFile(\"\") returned error: %v", err)
	}
}
