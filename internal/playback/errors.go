package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for a cursor outside the sentence sequence
	ErrOutOfRange = errors.New("sentence index out of range")

	// ErrNotReady is returned when playback is started without a ready clip
	ErrNotReady = errors.New("clip not ready")

	// ErrAlreadyPlaying is returned by Start while playback is running
	ErrAlreadyPlaying = errors.New("playback already running")

	// ErrInvalidated resolves fetches that were outstanding when the cache
	// was invalidated
	ErrInvalidated = errors.New("clip cache invalidated")

	// ErrSynthesis matches every SynthesisError
	ErrSynthesis = errors.New("clip synthesis failed")
)

// SynthesisError reports a provider failure for one sentence
type SynthesisError struct {
	Index int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis of sentence %d failed: %v", e.Index, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSynthesis) work without losing the cause
func (e *SynthesisError) Is(target error) bool {
	return target == ErrSynthesis
}
