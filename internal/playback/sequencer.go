package playback

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"codeberg.org/snonux/readaloud/internal/audio"
)

// Lookahead is how many sentences past the cursor get synthesized while the
// current one plays.
const Lookahead = 1

// Mode is the playback state of a Sequencer
type Mode int

const (
	Idle Mode = iota
	Playing
	Stopped
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// State is a snapshot of a Sequencer for observers
type State struct {
	Mode   Mode
	Cursor int
	Count  int
	Err    error // why playback halted, nil after a stop or a clean finish

	seq uint64
}

// Exhausted reports whether every sentence has been played
func (s State) Exhausted() bool {
	return s.Count > 0 && s.Cursor >= s.Count
}

// Sequencer plays the sentences of a ClipCache one after another. Each
// Start begins a new generation; Stop ends it, and any continuation that
// wakes up under an older generation (a late clip end, a late fetch) drops
// its side effects.
type Sequencer struct {
	cache  *ClipCache
	player audio.Player
	logger *zap.Logger

	mu         sync.Mutex
	mode       Mode
	cursor     int
	generation uint64
	cancel     context.CancelFunc
	playing    int // index marked playing in the cache, -1 for none
	lastErr    error
	done       chan struct{}
	seq        uint64
	observers  []func(State)

	notifyMu  sync.Mutex
	queue     []State
	draining  bool
	delivered uint64
}

// NewSequencer creates an idle sequencer at cursor 0
func NewSequencer(cache *ClipCache, player audio.Player, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		cache:   cache,
		player:  player,
		logger:  logger.With(zap.String("component", "sequencer")),
		playing: -1,
		cancel:  func() {},
	}
}

// OnChange registers fn to receive state changes in order. fn usually runs
// on the goroutine that caused the change and must not block. It may call
// Stop, Start or Seek, but not Wait.
func (s *Sequencer) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// State returns the current state
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Mode: s.mode, Cursor: s.cursor, Count: s.cache.Len(), Err: s.lastErr}
}

// Mode returns the current mode
func (s *Sequencer) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Cursor returns the sentence currently playing or next to play
func (s *Sequencer) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Start plays from cursor. The clip for cursor must already be ready in the
// cache; callers await ClipCache.Ensure(cursor) first. On error nothing
// changes.
func (s *Sequencer) Start(cursor int) error {
	s.mu.Lock()

	if s.mode == Playing {
		s.mu.Unlock()
		return ErrAlreadyPlaying
	}
	if cursor < 0 || cursor >= s.cache.Len() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrOutOfRange, cursor)
	}

	h, err := s.cache.acquire(cursor)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.cancel = cancel
	s.done = done
	s.mode = Playing
	s.cursor = cursor
	s.playing = cursor
	s.lastErr = nil
	s.prefetchLocked(cursor)
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
	go s.run(ctx, gen, h, done)
	return nil
}

// Stop halts playback right away. The clip at the cursor stays cached so a
// later Start at the same cursor resumes without a new fetch. Stop is safe
// to call in any mode; outside Playing it does nothing.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if s.mode != Playing {
		s.mu.Unlock()
		return
	}

	s.generation++
	s.cancel()
	s.releasePlayingLocked()
	s.mode = Stopped
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

// Seek moves the cursor while playback is not running
func (s *Sequencer) Seek(cursor int) error {
	s.mu.Lock()

	if s.mode == Playing {
		s.mu.Unlock()
		return ErrAlreadyPlaying
	}
	if cursor < 0 || cursor >= s.cache.Len() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrOutOfRange, cursor)
	}

	s.cursor = cursor
	s.lastErr = nil
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
	return nil
}

// Wait blocks until the most recently started run has ended and returns
// the error that halted it, if any.
func (s *Sequencer) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// run is the play loop of one generation
func (s *Sequencer) run(ctx context.Context, gen uint64, h *ClipHandle, done chan struct{}) {
	defer close(done)

	for {
		s.logger.Debug("playing sentence", zap.Int("index", h.Index))
		playErr := s.player.Play(ctx, h.File)

		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}

		s.releasePlayingLocked()
		if playErr != nil {
			s.haltLocked(fmt.Errorf("play sentence %d: %w", h.Index, playErr))
			return
		}

		s.cache.Release(h.Index)
		s.cursor = h.Index + 1
		if s.cursor >= s.cache.Len() {
			s.haltLocked(nil)
			return
		}
		next := s.cursor
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(st)

		nextHandle, err := s.cache.Ensure(next).Wait(ctx)

		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}
		if err == nil {
			nextHandle, err = s.cache.acquire(next)
		}
		if err != nil {
			s.haltLocked(err)
			return
		}
		s.playing = next
		s.prefetchLocked(next)
		s.mu.Unlock()

		h = nextHandle
	}
}

// haltLocked ends the current generation in Stopped mode. It unlocks s.mu.
func (s *Sequencer) haltLocked(err error) {
	s.generation++
	s.cancel()
	s.mode = Stopped
	s.lastErr = err
	st := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("playback halted", zap.Int("cursor", st.Cursor), zap.Error(err))
	}
	s.notify(st)
}

func (s *Sequencer) releasePlayingLocked() {
	if s.playing >= 0 {
		s.cache.finish(s.playing)
		s.playing = -1
	}
}

// prefetchLocked requests the clips after index. Failures surface only
// when the cursor reaches that index and it is fetched again.
func (s *Sequencer) prefetchLocked(index int) {
	for i := index + 1; i <= index+Lookahead && i < s.cache.Len(); i++ {
		s.cache.Ensure(i)
	}
}

func (s *Sequencer) snapshotLocked() State {
	s.seq++
	return State{Mode: s.mode, Cursor: s.cursor, Count: s.cache.Len(), Err: s.lastErr, seq: s.seq}
}

// notify delivers st to the observers unless a newer state went out
// already. Observers run without any lock held, so they may call Stop,
// Start or Seek. A state raised meanwhile is queued and delivered by the
// goroutine that is already draining, after the current callback returns.
func (s *Sequencer) notify(st State) {
	s.notifyMu.Lock()
	s.queue = append(s.queue, st)
	if s.draining {
		s.notifyMu.Unlock()
		return
	}
	s.draining = true

	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		if next.seq <= s.delivered {
			continue
		}
		s.delivered = next.seq
		s.notifyMu.Unlock()

		s.mu.Lock()
		observers := append([]func(State){}, s.observers...)
		s.mu.Unlock()
		for _, fn := range observers {
			fn(next)
		}

		s.notifyMu.Lock()
	}

	s.draining = false
	s.notifyMu.Unlock()
}
