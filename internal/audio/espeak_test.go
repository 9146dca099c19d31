package audio

import (
	"context"
	"os"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Voice != "en-us" {
		t.Errorf("Expected voice 'en-us', got '%s'", config.Voice)
	}
	if config.Speed != 170 {
		t.Errorf("Expected speed 170, got %d", config.Speed)
	}
	if config.Pitch != 50 {
		t.Errorf("Expected pitch 50, got %d", config.Pitch)
	}
	if config.Amplitude != 100 {
		t.Errorf("Expected amplitude 100, got %d", config.Amplitude)
	}
}

func TestNewESpeakProviderDefaults(t *testing.T) {
	e := newESpeakProvider(&ESpeakConfig{Speed: 20})

	if e.config.Voice != "en-us" {
		t.Errorf("Voice = %s, want en-us", e.config.Voice)
	}
	if e.config.Speed != 80 {
		t.Errorf("Speed = %d, want clamped 80", e.config.Speed)
	}
	if e.Name() != "espeak-ng" {
		t.Errorf("Name() = %s, want espeak-ng", e.Name())
	}
}

func TestSetSpeed(t *testing.T) {
	e := newESpeakProvider(nil)

	tests := []struct {
		input    int
		expected int
	}{
		{150, 150}, // Normal speed
		{50, 80},   // Below minimum
		{500, 450}, // Above maximum
		{200, 200}, // Valid speed
	}

	for _, tt := range tests {
		e.SetSpeed(tt.input)
		if e.config.Speed != tt.expected {
			t.Errorf("SetSpeed(%d) resulted in speed %d, expected %d",
				tt.input, e.config.Speed, tt.expected)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	e := newESpeakProvider(&ESpeakConfig{Voice: "en+f3", Speed: 160, Pitch: 40, Amplitude: 90, WordGap: 2})

	got := e.buildArgs("-- dashed start", "/tmp/out.wav")
	want := []string{
		"-v", "en+f3",
		"-s", "160",
		"-p", "40",
		"-a", "90",
		"-g", "2",
		"-w", "/tmp/out.wav", "--", "-- dashed start",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs() = %v, want %v", got, want)
	}

	e.SetVoice("de")
	e.config.WordGap = 0
	got = e.buildArgs("Hallo.", "out.wav")
	for i, arg := range got {
		if arg == "-g" {
			t.Errorf("buildArgs() without word gap contains -g at %d", i)
		}
	}
	if got[1] != "de" {
		t.Errorf("buildArgs() voice = %s, want de", got[1])
	}
}

func TestListVoices(t *testing.T) {
	voices := ListVoices()

	if len(voices) == 0 {
		t.Error("ListVoices() returned empty list")
	}

	found := false
	for _, v := range voices {
		if v == "en-us" {
			found = true
		}
	}
	if !found {
		t.Error("ListVoices() should include the default voice 'en-us'")
	}
}

func TestESpeakSynthesize_Integration(t *testing.T) {
	if checkESpeakInstalled() != nil {
		t.Skip("espeak-ng not installed, skipping integration test")
	}

	provider, err := NewESpeakProvider(&ESpeakConfig{ClipDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewESpeakProvider() failed: %v", err)
	}

	clip, err := provider.Synthesize(context.Background(), "Hello world.")
	if err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}

	info, err := os.Stat(clip.File)
	if err != nil {
		t.Fatalf("Output file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Output file is empty")
	}

	if err := provider.Release(clip.Token); err != nil {
		t.Errorf("Release() failed: %v", err)
	}
	if _, err := os.Stat(clip.File); !os.IsNotExist(err) {
		t.Error("clip file still exists after Release()")
	}
}
