package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/readaloud/internal/audio"
	"codeberg.org/snonux/readaloud/internal/chat"
	"codeberg.org/snonux/readaloud/internal/cli"
	"codeberg.org/snonux/readaloud/internal/library"
	"codeberg.org/snonux/readaloud/internal/testutil"
)

type echoBackend struct{}

func (echoBackend) Name() string { return "echo" }

func (echoBackend) Stream(ctx context.Context, history []chat.Message, onChunk func(string)) error {
	last := history[len(history)-1].Content
	onChunk("you said: ")
	onChunk(last)
	return nil
}

func newTestApp(input string) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	return &app{flags: cli.NewFlags(), out: &out, in: strings.NewReader(input)}, &out
}

func TestChatLoop(t *testing.T) {
	a, out := newTestApp("hello\n\n/new Second\n/tabs\n/bogus\n/quit\n")
	session := chat.NewSession(echoBackend{}, nil)

	if err := a.chatLoop(context.Background(), session); err != nil {
		t.Fatalf("chatLoop() error = %v", err)
	}

	for _, want := range []string{
		"you said: hello",
		"  1. Chat 1 (2 messages)",
		"* 2. Second (0 messages)",
		"unknown command",
		"[Second] > ",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestChatCommandTabSwitching(t *testing.T) {
	a, _ := newTestApp("")
	session := chat.NewSession(echoBackend{}, nil)
	first := session.NewTab("").ID
	second := session.NewTab("Other").ID

	tests := []struct {
		line    string
		current string
		want    string
		wantErr bool
	}{
		{"/tab 1", second, first, false},
		{"/tab 2", first, second, false},
		{"/tab 3", first, first, true},
		{"/tab x", first, first, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, quit, err := a.chatCommand(session, tt.current, tt.line)
			if (err != nil) != tt.wantErr {
				t.Errorf("chatCommand(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if quit {
				t.Errorf("chatCommand(%q) quit = true", tt.line)
			}
			if got != tt.want {
				t.Errorf("chatCommand(%q) = %s, want %s", tt.line, got, tt.want)
			}
		})
	}
}

func TestChatCommandCloseLastTabOpensNew(t *testing.T) {
	a, _ := newTestApp("")
	session := chat.NewSession(echoBackend{}, nil)
	only := session.NewTab("").ID

	next, _, err := a.chatCommand(session, only, "/close")
	if err != nil {
		t.Fatalf("chatCommand(/close) error = %v", err)
	}
	if next == only {
		t.Error("chatCommand(/close) kept the closed tab")
	}
	if tabs := session.Tabs(); len(tabs) != 1 || tabs[0].ID != next {
		t.Errorf("Tabs() = %v, want only %s", tabs, next)
	}
}

func TestRunHistory(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(testutil.CreateTestDirectory(t), "history.db")
	viper.Set("history.path", path)

	a, out := newTestApp("")
	if err := a.runHistory(nil, nil); err != nil {
		t.Fatalf("runHistory() error = %v", err)
	}
	if !strings.Contains(out.String(), "Nothing read yet") {
		t.Errorf("empty history output = %q", out.String())
	}

	store, err := library.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(library.Entry{Source: "https://example.com/a", Title: "Article A", Cursor: 3, Count: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(library.Entry{Source: "notes.txt", Cursor: 4, Count: 4}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out.Reset()
	if err := a.runHistory(nil, nil); err != nil {
		t.Fatalf("runHistory() error = %v", err)
	}
	for _, want := range []string{"3/10", "Article A", "https://example.com/a", "done", "notes.txt"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("history output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunCache(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	a, out := newTestApp("")
	if err := a.runCache(nil, nil); err != nil {
		t.Fatalf("runCache() error = %v", err)
	}
	if !strings.Contains(out.String(), "No synthesis cache configured") {
		t.Errorf("runCache() output = %q", out.String())
	}

	dir := filepath.Join(testutil.CreateTestDirectory(t), "cache")
	viper.Set("audio.cache_dir", dir)
	testutil.CreateTestFile(t, filepath.Join(dir, "ab", "cdef.mp3"), []byte("abc"))

	out.Reset()
	if err := a.runCache(nil, nil); err != nil {
		t.Fatalf("runCache() error = %v", err)
	}
	if !strings.Contains(out.String(), "1 clips") {
		t.Errorf("runCache() output = %q, want 1 clips", out.String())
	}

	a.flags.ClearCache = true
	if err := a.runCache(nil, nil); err != nil {
		t.Fatalf("runCache(--clear) error = %v", err)
	}
	testutil.AssertFileNotExists(t, dir)
}

func TestRunReadNeedsSource(t *testing.T) {
	a, _ := newTestApp("")
	if err := a.runRead(nil, nil); err == nil || !strings.Contains(err.Error(), "no source given") {
		t.Errorf("runRead() error = %v, want no source given", err)
	}
}

func TestRunHistoryForget(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "history.db")
	viper.Set("history.path", path)

	store, err := library.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(library.Entry{Source: "notes.txt", Cursor: 1, Count: 4}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	a, out := newTestApp("")
	a.flags.Forget = "notes.txt"
	if err := a.runHistory(nil, nil); err != nil {
		t.Fatalf("runHistory(--forget) error = %v", err)
	}
	if !strings.Contains(out.String(), "Forgot notes.txt") {
		t.Errorf("runHistory(--forget) output = %q", out.String())
	}

	if err := a.runHistory(nil, nil); err == nil {
		t.Error("runHistory(--forget) of a missing source expected error")
	}

	a.flags.Forget = ""
	out.Reset()
	if err := a.runHistory(nil, nil); err != nil {
		t.Fatalf("runHistory() error = %v", err)
	}
	if !strings.Contains(out.String(), "Nothing read yet") {
		t.Errorf("history after forget = %q", out.String())
	}
}

func TestBreakerNotice(t *testing.T) {
	inner := testutil.NewMockProvider()
	inner.Errors["Hello."] = errors.New("quota exceeded")
	breaker := audio.NewBreakerProvider(inner, 1, time.Minute, nil)

	if got := breakerNotice(inner); got != "" {
		t.Errorf("breakerNotice(plain provider) = %q, want empty", got)
	}
	if got := breakerNotice(breaker); got != "" {
		t.Errorf("breakerNotice(closed) = %q, want empty", got)
	}

	if _, err := breaker.Synthesize(context.Background(), "Hello."); err == nil {
		t.Fatal("Synthesize() expected error")
	}
	if got := breakerNotice(breaker); !strings.Contains(got, "synthesis is paused") {
		t.Errorf("breakerNotice(open) = %q, want paused notice", got)
	}
}
