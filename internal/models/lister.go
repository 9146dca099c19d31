package models

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/readaloud/internal/audio"
)

// Catalog is the categorized model list
type Catalog struct {
	Speech []string
	Chat   []string
}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
	out    io.Writer
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return newListerWithClient(apiKey, openai.NewClient(apiKey))
}

func newListerWithClient(apiKey string, client *openai.Client) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: client,
		out:    os.Stdout,
	}
}

// Catalog fetches the OpenAI models and sorts them into categories
func (l *Lister) Catalog(ctx context.Context) (*Catalog, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .readaloud.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	c := &Catalog{}
	for _, model := range models.Models {
		id := model.ID
		switch {
		case strings.Contains(id, "tts"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(id, "audio"), strings.Contains(id, "realtime"),
			strings.Contains(id, "transcribe"), strings.Contains(id, "search"):
			// not usable for either reading or chatting
		case strings.HasPrefix(id, "gpt"), strings.HasPrefix(id, "o1"),
			strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"), strings.Contains(id, "chat"):
			c.Chat = append(c.Chat, id)
		}
	}

	sort.Strings(c.Speech)
	sort.Strings(c.Chat)
	return c, nil
}

// ListAvailableModels prints the speech models, chat models and espeak-ng
// voices
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	c, err := l.Catalog(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(l.out, "Available OpenAI Models:")
	printSection(l.out, "Text-to-Speech (TTS) Models:", c.Speech, "No TTS models found")
	printSection(l.out, "Chat Models (for the chat command):", c.Chat, "No chat models found")
	printSection(l.out, "espeak-ng Voices (offline):", audio.ListVoices(), "")

	return nil
}

func printSection(w io.Writer, heading string, items []string, empty string) {
	fmt.Fprintf(w, "\n%s\n", heading)
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}
