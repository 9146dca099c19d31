package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client   *openai.Client
	config   *Config
	cacheDir string
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return newOpenAIProviderWithClient(openai.NewClient(config.OpenAIKey), config)
}

func newOpenAIProviderWithClient(client *openai.Client, config *Config) (*OpenAIProvider, error) {
	provider := &OpenAIProvider{
		client:   client,
		config:   config,
		cacheDir: config.CacheDir,
	}

	if provider.cacheDir != "" {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// Synthesize generates a clip for one sentence using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string) (Clip, error) {
	if err := ValidateText(text); err != nil {
		return Clip{}, err
	}

	format := p.responseFormat()
	outputFile, err := newClipFile(p.config.ClipDir, string(format))
	if err != nil {
		return Clip{}, err
	}

	// A cache hit still gets its own clip file, the cached copy is never handed out
	if p.cacheDir != "" {
		cacheFile := p.getCacheFilePath(text)
		if _, err := os.Stat(cacheFile); err == nil {
			if err := p.copyFile(cacheFile, outputFile); err != nil {
				_ = removeClipFile(outputFile)
				return Clip{}, fmt.Errorf("failed to copy cached clip: %w", err)
			}
			return Clip{File: outputFile, Token: outputFile}, nil
		}
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          normalizeSpeechText(text),
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: format,
	}

	if p.supportsInstructions() {
		req.Instructions = p.config.OpenAIInstruction
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not have access to model") && p.supportsInstructions() {
			return Clip{}, fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try using --openai-model tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return Clip{}, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	out, err := os.Create(outputFile)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to create clip file: %w", err)
	}

	written, err := io.Copy(out, response)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = removeClipFile(outputFile)
		return Clip{}, fmt.Errorf("failed to write clip file: %w", err)
	}

	if written == 0 {
		_ = removeClipFile(outputFile)
		return Clip{}, fmt.Errorf("no audio data received from OpenAI")
	}

	if p.cacheDir != "" {
		_ = p.copyFile(outputFile, p.getCacheFilePath(text)) // Ignore cache errors
	}

	return Clip{File: outputFile, Token: outputFile}, nil
}

// Release deletes the clip file behind token
func (p *OpenAIProvider) Release(token string) error {
	return removeClipFile(token)
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	// A test call would spend credits, a configured key has to do
	return nil
}

func (p *OpenAIProvider) supportsInstructions() bool {
	return p.config.OpenAIInstruction != "" &&
		(p.config.OpenAIModel == "gpt-4o-mini-tts" || p.config.OpenAIModel == "gpt-4o-mini-audio-preview")
}

func (p *OpenAIProvider) responseFormat() openai.SpeechResponseFormat {
	switch strings.ToLower(p.config.OutputFormat) {
	case "wav":
		return openai.SpeechResponseFormatWav
	case "opus":
		return openai.SpeechResponseFormatOpus
	case "aac":
		return openai.SpeechResponseFormatAac
	case "flac":
		return openai.SpeechResponseFormatFlac
	default:
		return openai.SpeechResponseFormatMp3
	}
}

// normalizeSpeechText collapses whitespace so line breaks inside a sentence
// are not read as pauses.
func normalizeSpeechText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// getCacheFilePath generates a cache file path for the given text
func (p *OpenAIProvider) getCacheFilePath(text string) string {
	h := md5.New()
	h.Write([]byte(normalizeSpeechText(text)))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(p.config.OpenAIVoice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.OpenAISpeed)))
	if p.supportsInstructions() {
		h.Write([]byte(p.config.OpenAIInstruction))
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// First 2 chars as subdirectory keeps directories small
	subdir := hash[:2]
	filename := hash[2:] + "." + string(p.responseFormat())

	return filepath.Join(p.cacheDir, subdir, filename)
}

// copyFile copies a file from src to dst
func (p *OpenAIProvider) copyFile(src, dst string) error {
	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}

// ClearCache removes a synthesis cache directory. An empty dir means no
// cache is configured.
func ClearCache(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// CacheStats counts the files below a synthesis cache directory
func CacheStats(dir string) (fileCount int, totalSize int64, err error) {
	if dir == "" {
		return 0, 0, nil
	}
	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		return 0, 0, nil
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})

	return fileCount, totalSize, err
}
