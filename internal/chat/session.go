package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoTab is returned for an unknown tab id
	ErrNoTab = errors.New("no such chat tab")
	// ErrBusy is returned when a tab is still streaming a reply
	ErrBusy = errors.New("chat tab is busy")
	// ErrEmptyMessage is returned for a message with only whitespace
	ErrEmptyMessage = errors.New("message is empty")
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a tab history
type Message struct {
	Role    Role
	Content string
}

// Backend streams a reply to a conversation
type Backend interface {
	// Stream calls onChunk for every piece of text of the reply, in order
	Stream(ctx context.Context, history []Message, onChunk func(string)) error
	Name() string
}

// Tab is a snapshot of one chat tab
type Tab struct {
	ID        string
	Title     string
	Messages  []Message
	Streaming bool
	CreatedAt time.Time
}

type tab struct {
	id        string
	title     string
	messages  []Message
	streaming bool
	createdAt time.Time
}

func (t *tab) snapshot() Tab {
	return Tab{
		ID:        t.id,
		Title:     t.title,
		Messages:  append([]Message(nil), t.messages...),
		Streaming: t.streaming,
		CreatedAt: t.createdAt,
	}
}

// Session holds the open chat tabs
type Session struct {
	backend Backend
	logger  *zap.Logger

	mu   sync.Mutex
	tabs []*tab
}

// NewSession creates a session without tabs
func NewSession(backend Backend, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		backend: backend,
		logger:  logger.With(zap.String("component", "chat"), zap.String("backend", backend.Name())),
	}
}

// NewTab opens an empty tab. An empty title becomes "Chat N".
func (s *Session) NewTab(title string) Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		title = fmt.Sprintf("Chat %d", len(s.tabs)+1)
	}
	t := &tab{id: uuid.NewString(), title: title, createdAt: time.Now()}
	s.tabs = append(s.tabs, t)
	return t.snapshot()
}

// Tabs returns all tabs in the order they were opened
func (s *Session) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs := make([]Tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		tabs = append(tabs, t.snapshot())
	}
	return tabs
}

// Tab returns the tab with id
func (s *Session) Tab(id string) (Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.findLocked(id)
	if err != nil {
		return Tab{}, err
	}
	return t.snapshot(), nil
}

// Close removes a tab. A reply still streaming into it is discarded.
func (s *Session) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tabs {
		if t.id == id {
			s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoTab, id)
}

// Send appends text as a user message to the tab and streams the reply.
// onChunk may be nil. The assembled reply is returned and stored.
func (s *Session) Send(ctx context.Context, tabID, text string, onChunk func(string)) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	s.mu.Lock()
	t, err := s.findLocked(tabID)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if t.streaming {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrBusy, t.title)
	}
	t.messages = append(t.messages, Message{Role: RoleUser, Content: text})
	t.streaming = true
	history := append([]Message(nil), t.messages...)
	s.mu.Unlock()

	var reply strings.Builder
	err = s.backend.Stream(ctx, history, func(chunk string) {
		if chunk == "" {
			return
		}
		reply.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	t.streaming = false

	if err != nil {
		s.logger.Warn("chat stream failed", zap.String("tab", tabID), zap.Error(err))
		return "", fmt.Errorf("chat reply failed: %w", err)
	}

	if _, err := s.findLocked(tabID); err != nil {
		// Tab closed while the reply was streaming
		return reply.String(), nil
	}
	t.messages = append(t.messages, Message{Role: RoleAssistant, Content: reply.String()})
	return reply.String(), nil
}

func (s *Session) findLocked(id string) (*tab, error) {
	for _, t := range s.tabs {
		if t.id == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoTab, id)
}
