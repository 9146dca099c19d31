package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	Verbose     bool
	BatchFile   string
	Resume      bool
	NoHistory   bool
	HistoryPath string
	Width       int

	// Audio flags
	AudioProvider    string
	FallbackProvider string
	AudioFormat      string
	PlayerCommand    string
	ClipDir          string
	CacheDir         string
	BreakerFailures  uint32
	BreakerTimeout   time.Duration

	// OpenAI flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// espeak-ng flags
	ESpeakVoice string
	ESpeakSpeed int

	// Chat flags
	ChatProvider string
	ChatModel    string

	// History flags
	HistoryLimit int
	Forget       string

	// Cache flags
	ClearCache bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Width:           80,
		AudioProvider:   "openai",
		AudioFormat:     "mp3",
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
		OpenAIModel:     "gpt-4o-mini-tts",
		OpenAIVoice:     "alloy",
		OpenAISpeed:     1.0,
		ESpeakVoice:     "en-us",
		ESpeakSpeed:     170,
		ChatProvider:    "gemini",
		HistoryLimit:    20,
	}
}
