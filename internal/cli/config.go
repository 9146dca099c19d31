package cli

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codeberg.org/snonux/readaloud/internal/audio"
	"codeberg.org/snonux/readaloud/internal/chat"
	"codeberg.org/snonux/readaloud/internal/library"
)

// AudioConfig builds the speech provider configuration from flags, the
// config file and the environment
func AudioConfig() *audio.Config {
	config := audio.DefaultProviderConfig()

	setString(&config.Provider, "audio.provider")
	setString(&config.Fallback, "audio.fallback")
	setString(&config.OutputFormat, "audio.format")
	setString(&config.ClipDir, "audio.clip_dir")
	setString(&config.CacheDir, "audio.cache_dir")
	setString(&config.OpenAIModel, "audio.openai_model")
	setString(&config.OpenAIVoice, "audio.openai_voice")
	setString(&config.OpenAIInstruction, "audio.openai_instruction")
	setString(&config.ESpeakVoice, "audio.espeak_voice")

	if viper.IsSet("audio.openai_speed") {
		config.OpenAISpeed = viper.GetFloat64("audio.openai_speed")
	}
	if viper.IsSet("audio.espeak_speed") {
		config.ESpeakSpeed = viper.GetInt("audio.espeak_speed")
	}
	if viper.IsSet("audio.breaker_failures") {
		config.BreakerFailures = viper.GetUint32("audio.breaker_failures")
	}
	if viper.IsSet("audio.breaker_timeout") {
		config.BreakerTimeout = viper.GetDuration("audio.breaker_timeout")
	}

	config.OpenAIKey = GetOpenAIKey()
	return config
}

// ChatConfig builds the chat backend configuration
func ChatConfig() chat.BackendConfig {
	config := chat.BackendConfig{Provider: "gemini"}
	setString(&config.Provider, "chat.provider")
	setString(&config.Model, "chat.model")
	config.GeminiKey = GetGeminiKey()
	config.OpenAIKey = GetOpenAIKey()
	return config
}

// HistoryPath returns the reading history database location
func HistoryPath() string {
	if path := viper.GetString("history.path"); path != "" {
		return path
	}
	return library.DefaultPath()
}

// setString overwrites dst only with non-empty values
func setString(dst *string, key string) {
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}

// NewLogger builds the application logger. Verbose logging is the
// development configuration at debug level; otherwise only warnings and
// errors are written to stderr.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.DisableCaller = true
	return config.Build()
}
