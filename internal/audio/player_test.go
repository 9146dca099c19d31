package audio

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"testing"
	"time"
)

func TestNewExecPlayer(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
		wantErr bool
	}{
		{name: "empty uses platform player", command: "", want: nil},
		{name: "simple command", command: "mpv --really-quiet", want: []string{"mpv", "--really-quiet"}},
		{name: "quoted argument", command: `ffplay -window_title "read aloud" {file}`, want: []string{"ffplay", "-window_title", "read aloud", "{file}"}},
		{name: "unterminated quote", command: `mpv "oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewExecPlayer(tt.command)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExecPlayer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(p.command, tt.want) {
				t.Errorf("NewExecPlayer() command = %v, want %v", p.command, tt.want)
			}
		})
	}
}

func TestCommandLine(t *testing.T) {
	appended, _ := NewExecPlayer("mpv --no-video")
	got, err := appended.commandLine("/tmp/a.mp3")
	if err != nil {
		t.Fatalf("commandLine() unexpected error: %v", err)
	}
	want := []string{"mpv", "--no-video", "/tmp/a.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commandLine() = %v, want %v", got, want)
	}

	placeholder, _ := NewExecPlayer("ffplay -i {file} -autoexit")
	got, _ = placeholder.commandLine("/tmp/b.mp3")
	want = []string{"ffplay", "-i", "/tmp/b.mp3", "-autoexit"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commandLine() = %v, want %v", got, want)
	}
}

func TestPlatformCommand(t *testing.T) {
	origLookPath := lookPath
	defer func() { lookPath = origLookPath }()

	lookPath = func(name string) (string, error) {
		if name == "paplay" {
			return "/usr/bin/paplay", nil
		}
		return "", exec.ErrNotFound
	}

	got, err := platformCommand("linux", "clip.wav")
	if err != nil {
		t.Fatalf("platformCommand() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"paplay", "clip.wav"}) {
		t.Errorf("platformCommand() = %v, want paplay", got)
	}

	lookPath = func(name string) (string, error) { return "", exec.ErrNotFound }
	if _, err := platformCommand("linux", "clip.wav"); err == nil {
		t.Error("platformCommand() expected error without any player")
	}

	got, _ = platformCommand("darwin", "clip.mp3")
	if got[0] != "afplay" {
		t.Errorf("platformCommand(darwin) = %v, want afplay", got)
	}

	if _, err := platformCommand("plan9", "clip.mp3"); err == nil {
		t.Error("platformCommand() expected error for unsupported platform")
	}
}

func TestExecPlayerPlay(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	p, _ := NewExecPlayer("true")
	if err := p.Play(context.Background(), "clip.mp3"); err != nil {
		t.Errorf("Play() unexpected error: %v", err)
	}
}

func TestExecPlayerPlayFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	p, _ := NewExecPlayer("false")
	if err := p.Play(context.Background(), "clip.mp3"); err == nil {
		t.Error("Play() expected error from failing player")
	}
}

func TestExecPlayerPlayCancel(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	p, _ := NewExecPlayer(`sh -c "sleep 5"`)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err := p.Play(ctx, "clip.mp3")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Play() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Play() took %v after cancel, want immediate stop", elapsed)
	}

	if err := p.Play(ctx, "clip.mp3"); !errors.Is(err, context.Canceled) {
		t.Errorf("Play() on cancelled context = %v, want context.Canceled", err)
	}
}
