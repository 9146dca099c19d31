package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"codeberg.org/snonux/readaloud/internal/article"
	"codeberg.org/snonux/readaloud/internal/audio"
	"codeberg.org/snonux/readaloud/internal/library"
	"codeberg.org/snonux/readaloud/internal/playback"
	"codeberg.org/snonux/readaloud/internal/segment"
)

// ErrNoArticle is returned by playback controls before Load succeeded
var ErrNoArticle = errors.New("no article loaded")

// Source loads article text
type Source interface {
	Fetch(ctx context.Context, source string) (*article.Article, error)
}

// History remembers reading positions between sessions
type History interface {
	Position(source string) (int, error)
	Save(e library.Entry) (library.Entry, error)
}

// Options tunes a Session
type Options struct {
	// Resume starts a loaded article at the position saved in History
	Resume bool
}

// scope is everything that belongs to one loaded article
type scope struct {
	art   *article.Article
	cache *playback.ClipCache
	seq   *playback.Sequencer
}

// Session reads one article at a time
type Session struct {
	source   Source
	splitter segment.Splitter
	provider audio.Provider
	player   audio.Player
	history  History // may be nil
	options  Options
	logger   *zap.Logger

	mu        sync.Mutex
	current   *scope
	sentences []string
	observers []func(playback.State)
}

// NewSession creates a session with nothing loaded
func NewSession(source Source, splitter segment.Splitter, provider audio.Provider, player audio.Player, history History, options Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if splitter == nil {
		splitter = segment.SentenceSplitter{}
	}
	return &Session{
		source:   source,
		splitter: splitter,
		provider: provider,
		player:   player,
		history:  history,
		options:  options,
		logger:   logger,
	}
}

// OnChange registers fn for playback state changes of every article
// loaded from now on. fn may call Pause, Seek or Play, but Close, Load and
// Wait block until playback ends and must not be called from fn.
func (s *Session) OnChange(fn func(playback.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Load fetches and splits source and makes it the current article. The
// previous article is stopped and its clips released first. On error the
// previous article stays loaded.
func (s *Session) Load(ctx context.Context, source string) error {
	art, err := s.source.Fetch(ctx, source)
	if err != nil {
		return err
	}

	sentences, err := s.splitter.Split(art.Text)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	cursor := 0
	if s.options.Resume && s.history != nil {
		if cursor, err = s.history.Position(source); err != nil {
			s.logger.Warn("failed to read saved position", zap.String("source", source), zap.Error(err))
			cursor = 0
		}
		if cursor >= len(sentences) {
			cursor = 0
		}
	}

	logger := s.logger.With(zap.String("source", source))
	next := &scope{art: art, cache: playback.NewClipCache(s.provider, sentences, logger)}
	next.seq = playback.NewSequencer(next.cache, s.player, logger)
	if cursor > 0 {
		if err := next.seq.Seek(cursor); err != nil {
			next.cache.Close()
			return err
		}
	}

	s.mu.Lock()
	observers := append([]func(playback.State){}, s.observers...)
	prev := s.current
	s.current = nil
	s.sentences = nil
	s.mu.Unlock()

	s.closeScope(prev)

	next.seq.OnChange(func(st playback.State) {
		for _, fn := range observers {
			fn(st)
		}
	})

	s.mu.Lock()
	s.current = next
	s.sentences = sentences
	s.mu.Unlock()

	logger.Info("article loaded",
		zap.String("title", art.Title),
		zap.Int("sentences", len(sentences)),
		zap.Int("cursor", cursor))
	s.save(next)
	return nil
}

// Article returns the loaded article
func (s *Session) Article() *article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	return s.current.art
}

// Sentences returns the sentences of the loaded article
func (s *Session) Sentences() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sentences...)
}

// State returns the playback state of the loaded article
func (s *Session) State() playback.State {
	sc, err := s.loaded()
	if err != nil {
		return playback.State{}
	}
	return sc.seq.State()
}

// Ready reports whether the clip at the cursor can be played right away
func (s *Session) Ready() bool {
	sc, err := s.loaded()
	if err != nil {
		return false
	}
	return sc.cache.Ready(sc.seq.Cursor())
}

// Play waits for the clip at the cursor and starts playback there. After
// the last sentence it starts over from the beginning.
func (s *Session) Play(ctx context.Context) error {
	sc, err := s.loaded()
	if err != nil {
		return err
	}

	st := sc.seq.State()
	if st.Mode == playback.Playing {
		return nil
	}
	cursor := st.Cursor
	if st.Exhausted() {
		cursor = 0
		if err := sc.seq.Seek(cursor); err != nil {
			return err
		}
	}

	if _, err := sc.cache.Ensure(cursor).Wait(ctx); err != nil {
		return fmt.Errorf("sentence %d: %w", cursor, err)
	}
	return sc.seq.Start(cursor)
}

// Pause stops playback at the current sentence and saves the position
func (s *Session) Pause() {
	sc, err := s.loaded()
	if err != nil {
		return
	}
	sc.seq.Stop()
	s.save(sc)
}

// Toggle pauses while playing and plays otherwise
func (s *Session) Toggle(ctx context.Context) error {
	if s.State().Mode == playback.Playing {
		s.Pause()
		return nil
	}
	return s.Play(ctx)
}

// Seek moves to sentence index while paused. Clips around the old cursor
// that are no longer needed are released.
func (s *Session) Seek(index int) error {
	sc, err := s.loaded()
	if err != nil {
		return err
	}

	old := sc.seq.Cursor()
	if err := sc.seq.Seek(index); err != nil {
		return err
	}

	for i := old; i <= old+playback.Lookahead; i++ {
		if i < index || i > index+playback.Lookahead {
			sc.cache.Release(i)
		}
	}
	return nil
}

// Wait blocks until the current playback run ends and saves the position
func (s *Session) Wait() error {
	sc, err := s.loaded()
	if err != nil {
		return err
	}
	err = sc.seq.Wait()
	s.save(sc)
	return err
}

// Close stops playback, releases every clip and saves the position
func (s *Session) Close() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.sentences = nil
	s.mu.Unlock()

	s.closeScope(prev)
}

func (s *Session) loaded() (*scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoArticle
	}
	return s.current, nil
}

func (s *Session) closeScope(sc *scope) {
	if sc == nil {
		return
	}
	sc.seq.Stop()
	if err := sc.seq.Wait(); err != nil {
		s.logger.Debug("playback had halted", zap.Error(err))
	}
	s.save(sc)
	sc.cache.Close()
}

func (s *Session) save(sc *scope) {
	if s.history == nil {
		return
	}

	st := sc.seq.State()
	_, err := s.history.Save(library.Entry{
		Source: sc.art.Source,
		Title:  sc.art.Title,
		Cursor: st.Cursor,
		Count:  st.Count,
	})
	if err != nil {
		s.logger.Warn("failed to save reading position", zap.String("source", sc.art.Source), zap.Error(err))
	}
}
