package audio

import (
	"context"
	"fmt"
	"os/exec"
)

// ESpeakConfig holds configuration for espeak-ng audio generation
type ESpeakConfig struct {
	Voice     string // Voice variant (e.g., "en-us", "en+m1", "de")
	Speed     int    // Speech speed in words per minute (default: 170)
	Pitch     int    // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int    // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int    // Gap between words in 10ms units (default: 0)
	ClipDir   string // Directory for transient clip files
}

// DefaultConfig returns the default espeak-ng configuration
func DefaultConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Voice:     "en-us",
		Speed:     170,
		Pitch:     50,
		Amplitude: 100,
		WordGap:   0,
	}
}

// ESpeakProvider implements Provider for the local espeak-ng engine.
// It needs no network and never hits a quota, which makes it the usual
// fallback behind the OpenAI provider.
type ESpeakProvider struct {
	config *ESpeakConfig
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (*ESpeakProvider, error) {
	if err := checkESpeakInstalled(); err != nil {
		return nil, err
	}
	return newESpeakProvider(config), nil
}

func newESpeakProvider(config *ESpeakConfig) *ESpeakProvider {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.Voice == "" {
		config.Voice = defaults.Voice
	}
	if config.Amplitude == 0 {
		config.Amplitude = defaults.Amplitude
	}
	if config.Pitch == 0 {
		config.Pitch = defaults.Pitch
	}
	if config.Speed == 0 {
		config.Speed = defaults.Speed
	}

	e := &ESpeakProvider{config: config}
	e.SetSpeed(config.Speed)
	return e
}

// Synthesize renders text into a WAV clip
func (e *ESpeakProvider) Synthesize(ctx context.Context, text string) (Clip, error) {
	if err := ValidateText(text); err != nil {
		return Clip{}, err
	}

	outputFile, err := newClipFile(e.config.ClipDir, "wav")
	if err != nil {
		return Clip{}, err
	}

	cmd := exec.CommandContext(ctx, "espeak-ng", e.buildArgs(normalizeSpeechText(text), outputFile)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = removeClipFile(outputFile)
		return Clip{}, fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output))
	}

	return Clip{File: outputFile, Token: outputFile}, nil
}

func (e *ESpeakProvider) buildArgs(text, outputFile string) []string {
	args := []string{
		"-v", e.config.Voice,
		"-s", fmt.Sprintf("%d", e.config.Speed),
		"-p", fmt.Sprintf("%d", e.config.Pitch),
		"-a", fmt.Sprintf("%d", e.config.Amplitude),
	}

	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}

	// "--" keeps sentences starting with a dash from being read as flags
	return append(args, "-w", outputFile, "--", text)
}

// Release deletes the clip file behind token
func (e *ESpeakProvider) Release(token string) error {
	return removeClipFile(token)
}

// Name returns the provider name
func (e *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (e *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}

// SetVoice updates the voice variant
func (e *ESpeakProvider) SetVoice(voice string) {
	e.config.Voice = voice
}

// SetSpeed updates the speech speed
func (e *ESpeakProvider) SetSpeed(speed int) {
	if speed < 80 {
		speed = 80
	} else if speed > 450 {
		speed = 450
	}
	e.config.Speed = speed
}

// checkESpeakInstalled verifies that espeak-ng is available on the system
func checkESpeakInstalled() error {
	cmd := exec.Command("espeak-ng", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}

// ListVoices returns commonly available espeak-ng voice variants
func ListVoices() []string {
	return []string{
		"en-us",  // American English
		"en",     // British English
		"en+m1",  // English male voice 1
		"en+m3",  // English male voice 3
		"en+f1",  // English female voice 1
		"en+f3",  // English female voice 3
		"de",     // German
		"fr-fr",  // French
	}
}
