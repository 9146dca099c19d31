// Package models lists the speech and chat models available to readaloud:
// OpenAI TTS and chat models for an API key, and the bundled espeak-ng
// voices.
package models
