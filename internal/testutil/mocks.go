package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/snonux/readaloud/internal/audio"
)

// MockProvider is an audio.Provider that hands out numbered clips. Texts
// registered with Hold block in Synthesize until Unblock is called.
type MockProvider struct {
	Errors     map[string]error
	ReleaseErr error
	Dir        string // when set, every clip is a real file in Dir

	// Requests receives the text of every Synthesize call as it starts
	Requests chan string

	mu       sync.Mutex
	calls    []string
	released []string
	gates    map[string]chan struct{}
	next     int
}

// NewMockProvider creates a provider with no holds and no errors
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Errors:   make(map[string]error),
		Requests: make(chan string, 64),
		gates:    make(map[string]chan struct{}),
	}
}

// Hold makes Synthesize for text block until Unblock(text)
func (m *MockProvider) Hold(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[text] = make(chan struct{})
}

// Unblock releases every Synthesize call waiting on text
func (m *MockProvider) Unblock(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gate, ok := m.gates[text]; ok {
		close(gate)
		delete(m.gates, text)
	}
}

// Synthesize ignores ctx, like a remote call that always settles
func (m *MockProvider) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	gate := m.gates[text]
	m.mu.Unlock()

	m.Requests <- text

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors[text]; ok {
		return audio.Clip{}, err
	}

	m.next++
	token := fmt.Sprintf("clip-%d", m.next)
	file := token + ".wav"
	if m.Dir != "" {
		file = filepath.Join(m.Dir, file)
		if err := os.WriteFile(file, []byte(text), 0644); err != nil {
			return audio.Clip{}, err
		}
		token = file
	}

	return audio.Clip{File: file, Token: token}, nil
}

// Release records token and removes its file when Dir is set
func (m *MockProvider) Release(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.released = append(m.released, token)
	if m.ReleaseErr != nil {
		return m.ReleaseErr
	}
	if m.Dir != "" {
		return os.Remove(token)
	}
	return nil
}

// Name returns "mock"
func (m *MockProvider) Name() string {
	return "mock"
}

// IsAvailable always succeeds
func (m *MockProvider) IsAvailable() error {
	return nil
}

// Calls returns the texts passed to Synthesize in order
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how often text was synthesized
func (m *MockProvider) CallCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == text {
			n++
		}
	}
	return n
}

// ReleasedTokens returns the tokens passed to Release in order
func (m *MockProvider) ReleasedTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.released...)
}

// MockPlayer is an audio.Player whose clips end when the test says so
type MockPlayer struct {
	// AutoFinish makes every Play return nil right away
	AutoFinish bool
	// IgnoreCancel makes Play wait for Finish or Fail even after ctx is
	// cancelled, like an end-of-clip callback that arrives late
	IgnoreCancel bool

	// Started receives the file of every Play call as it starts
	Started chan string

	ends chan error

	mu        sync.Mutex
	played    []string
	cancelled int
}

// NewMockPlayer creates a player that blocks until Finish
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{
		Started: make(chan string, 64),
		ends:    make(chan error),
	}
}

// Play blocks until the clip is finished, failed or cancelled
func (m *MockPlayer) Play(ctx context.Context, file string) error {
	m.mu.Lock()
	m.played = append(m.played, file)
	m.mu.Unlock()

	m.Started <- file

	if m.AutoFinish {
		return nil
	}
	if m.IgnoreCancel {
		return <-m.ends
	}

	select {
	case err := <-m.ends:
		return err
	case <-ctx.Done():
		m.mu.Lock()
		m.cancelled++
		m.mu.Unlock()
		return ctx.Err()
	}
}

// Finish ends the clip that is playing
func (m *MockPlayer) Finish() {
	m.ends <- nil
}

// Fail ends the clip that is playing with err
func (m *MockPlayer) Fail(err error) {
	m.ends <- err
}

// Played returns the files passed to Play in order
func (m *MockPlayer) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

// Cancelled returns how many Play calls ended through ctx
func (m *MockPlayer) Cancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}
