// Package cli provides command-line interface setup and configuration
// for the readaloud application. It handles flag parsing, command
// creation, configuration management using cobra and viper, and builds
// the zap logger shared by all components.
package cli
