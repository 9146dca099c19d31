package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/readaloud/internal"
)

// RunFunc is the body of a command
type RunFunc func(cmd *cobra.Command, args []string) error

// Runners are the command bodies wired in by main
type Runners struct {
	Read       RunFunc
	Chat       RunFunc
	History    RunFunc
	ListModels RunFunc
	Cache      RunFunc
}

// CreateRootCommand creates the root command and its subcommands
func CreateRootCommand(flags *Flags, run Runners) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "readaloud [source]",
		Short: "Read articles aloud, sentence by sentence",
		Long: `readaloud fetches an article, splits it into sentences and reads it
aloud with synthesized speech while highlighting the sentence being read.

A source is an http(s) URL, a local text or HTML file, or "-" for stdin.

Examples:
  readaloud https://example.com/post      # Read a web article
  readaloud notes.txt --resume            # Continue where you stopped
  readaloud --batch reading-list.txt      # Read several articles in order
  readaloud chat                          # Chat with Gemini
  readaloud history                       # Show recently read articles`,
		Args:          cobra.MaximumNArgs(1),
		Version:       internal.Version,
		RunE:          run.Read,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, flags)

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a generative-language model in tabs",
		Long: `Start an interactive chat. Replies stream in as they are generated.

Commands inside the chat:
  /new [title]   open a new tab
  /tab N         switch to tab N
  /tabs          list open tabs
  /close         close the current tab
  /quit          leave`,
		Args: cobra.NoArgs,
		RunE: run.Chat,
	}
	chatCmd.Flags().StringVar(&flags.ChatProvider, "provider", flags.ChatProvider, "Chat provider: gemini or openai")
	chatCmd.Flags().StringVar(&flags.ChatModel, "model", "", "Chat model (default depends on provider)")
	viper.BindPFlag("chat.provider", chatCmd.Flags().Lookup("provider"))
	viper.BindPFlag("chat.model", chatCmd.Flags().Lookup("model"))

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recently read articles",
		Args:  cobra.NoArgs,
		RunE:  run.History,
	}
	historyCmd.Flags().IntVarP(&flags.HistoryLimit, "limit", "n", flags.HistoryLimit, "Number of entries to show (0 for all)")
	historyCmd.Flags().StringVar(&flags.Forget, "forget", "", "Remove the entry for this source instead of listing")

	listModelsCmd := &cobra.Command{
		Use:   "list-models",
		Short: "List available speech and chat models",
		Args:  cobra.NoArgs,
		RunE:  run.ListModels,
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the synthesis cache",
		Long: `Show how much synthesized speech is kept in the cache directory
(audio.cache_dir in the config file), or remove it with --clear.`,
		Args: cobra.NoArgs,
		RunE: run.Cache,
	}
	cacheCmd.Flags().BoolVar(&flags.ClearCache, "clear", false, "Remove every cached clip")

	rootCmd.AddCommand(chatCmd, historyCmd, listModelsCmd, cacheCmd)
	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.readaloud.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().StringVar(&flags.HistoryPath, "history-db", "", "Reading history database (default is $HOME/.readaloud/history.db)")

	// Local flags
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Read sources from file (one per line)")
	cmd.Flags().BoolVar(&flags.Resume, "resume", false, "Continue at the sentence where reading last stopped")
	cmd.Flags().BoolVar(&flags.NoHistory, "no-history", false, "Do not record reading positions")
	cmd.Flags().IntVarP(&flags.Width, "width", "w", flags.Width, "Wrap width for the article text")

	// Audio flags
	cmd.Flags().StringVarP(&flags.AudioProvider, "audio-provider", "a", flags.AudioProvider, "Speech provider: openai or espeak")
	cmd.Flags().StringVar(&flags.FallbackProvider, "fallback", "", "Speech provider to use when the primary fails")
	cmd.Flags().StringVarP(&flags.AudioFormat, "format", "f", flags.AudioFormat, "Audio format (mp3 or wav)")
	cmd.Flags().StringVar(&flags.PlayerCommand, "player", "", "Audio player command, {file} is replaced by the clip path")
	cmd.Flags().StringVar(&flags.ClipDir, "clip-dir", "", "Directory for transient clip files")
	cmd.Flags().StringVar(&flags.CacheDir, "cache-dir", "", "Keep synthesized speech in this directory for reuse")
	cmd.Flags().Uint32Var(&flags.BreakerFailures, "breaker-failures", flags.BreakerFailures, "Consecutive synthesis failures before pausing requests (0 disables)")
	cmd.Flags().DurationVar(&flags.BreakerTimeout, "breaker-timeout", flags.BreakerTimeout, "How long synthesis stays paused after too many failures")

	// OpenAI flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts model (e.g., 'read like a radio host')")

	// espeak-ng flags
	cmd.Flags().StringVar(&flags.ESpeakVoice, "espeak-voice", flags.ESpeakVoice, "espeak-ng voice")
	cmd.Flags().IntVar(&flags.ESpeakSpeed, "espeak-speed", flags.ESpeakSpeed, "espeak-ng speed in words per minute (80 to 450)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("history.path", cmd.PersistentFlags().Lookup("history-db"))
	viper.BindPFlag("history.resume", cmd.Flags().Lookup("resume"))
	viper.BindPFlag("display.width", cmd.Flags().Lookup("width"))
	viper.BindPFlag("audio.provider", cmd.Flags().Lookup("audio-provider"))
	viper.BindPFlag("audio.fallback", cmd.Flags().Lookup("fallback"))
	viper.BindPFlag("audio.format", cmd.Flags().Lookup("format"))
	viper.BindPFlag("audio.player", cmd.Flags().Lookup("player"))
	viper.BindPFlag("audio.clip_dir", cmd.Flags().Lookup("clip-dir"))
	viper.BindPFlag("audio.cache_dir", cmd.Flags().Lookup("cache-dir"))
	viper.BindPFlag("audio.breaker_failures", cmd.Flags().Lookup("breaker-failures"))
	viper.BindPFlag("audio.breaker_timeout", cmd.Flags().Lookup("breaker-timeout"))
	viper.BindPFlag("audio.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))
	viper.BindPFlag("audio.openai_instruction", cmd.Flags().Lookup("openai-instruction"))
	viper.BindPFlag("audio.espeak_voice", cmd.Flags().Lookup("espeak-voice"))
	viper.BindPFlag("audio.espeak_speed", cmd.Flags().Lookup("espeak-speed"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".readaloud" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".readaloud")
	}

	// Environment variables
	viper.SetEnvPrefix("READALOUD")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("chat.gemini_key")
}
