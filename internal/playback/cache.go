package playback

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"codeberg.org/snonux/readaloud/internal/audio"
)

// ClipHandle is a ready clip for one sentence. Only the ClipCache that
// handed it out can dispose of it.
type ClipHandle struct {
	Index int
	File  string
	token string
}

// Pending is the outcome of an Ensure call. It is shared by every caller
// that asks for the same index while the fetch is in flight.
type Pending struct {
	index  int
	done   chan struct{}
	handle *ClipHandle
	err    error
}

func newPending(index int) *Pending {
	return &Pending{index: index, done: make(chan struct{})}
}

func resolvedPending(index int, h *ClipHandle, err error) *Pending {
	p := newPending(index)
	p.resolve(h, err)
	return p
}

// resolve must be called exactly once
func (p *Pending) resolve(h *ClipHandle, err error) {
	p.handle = h
	p.err = err
	close(p.done)
}

// Index returns the sentence index the fetch is for
func (p *Pending) Index() int {
	return p.index
}

// Done is closed once the fetch settled
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the fetch settled or ctx is done
func (p *Pending) Wait(ctx context.Context) (*ClipHandle, error) {
	select {
	case <-p.done:
		return p.handle, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type entry struct {
	pending *Pending
	handle  *ClipHandle // nil while the fetch is in flight
	playing bool
}

// ClipCache holds the clips of one article, keyed by sentence index. It is
// the only owner of clip resources: everything it stores is released by
// Release or Invalidate, and fetches that settle after an invalidation are
// released on arrival instead of being stored.
type ClipCache struct {
	provider  audio.Provider
	sentences []string
	logger    *zap.Logger

	mu         sync.Mutex
	entries    map[int]*entry
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	inflight   sync.WaitGroup
}

// NewClipCache creates the cache for one article's sentences
func NewClipCache(provider audio.Provider, sentences []string, logger *zap.Logger) *ClipCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ClipCache{
		provider:  provider,
		sentences: append([]string(nil), sentences...),
		logger:    logger.With(zap.String("component", "clip-cache")),
		entries:   make(map[int]*entry),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Len returns the number of sentences the cache serves
func (c *ClipCache) Len() int {
	return len(c.sentences)
}

// Sentence returns the text of sentence index
func (c *ClipCache) Sentence(index int) string {
	if index < 0 || index >= len(c.sentences) {
		return ""
	}
	return c.sentences[index]
}

// Ensure returns the entry for index, starting a fetch if there is none.
// There is never more than one fetch in flight for an index.
func (c *ClipCache) Ensure(index int) *Pending {
	if index < 0 || index >= len(c.sentences) {
		return resolvedPending(index, nil, fmt.Errorf("%w: %d", ErrOutOfRange, index))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[index]; ok {
		return e.pending
	}

	e := &entry{pending: newPending(index)}
	c.entries[index] = e

	c.inflight.Add(1)
	go c.fetch(c.ctx, c.generation, index, e)

	return e.pending
}

func (c *ClipCache) fetch(ctx context.Context, gen uint64, index int, e *entry) {
	defer c.inflight.Done()

	clip, err := c.provider.Synthesize(ctx, c.sentences[index])

	c.mu.Lock()
	if gen != c.generation || c.entries[index] != e {
		c.mu.Unlock()
		if err == nil {
			c.dispose(index, clip.Token)
		}
		e.pending.resolve(nil, ErrInvalidated)
		return
	}

	if err != nil {
		delete(c.entries, index)
		c.mu.Unlock()

		c.logger.Warn("clip synthesis failed", zap.Int("index", index), zap.Error(err))
		e.pending.resolve(nil, &SynthesisError{Index: index, Err: err})
		return
	}

	h := &ClipHandle{Index: index, File: clip.File, token: clip.Token}
	e.handle = h
	c.mu.Unlock()

	e.pending.resolve(h, nil)
}

// Get returns the ready clip for index without blocking
func (c *ClipCache) Get(index int) (*ClipHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[index]
	if !ok || e.handle == nil {
		return nil, false
	}
	return e.handle, true
}

// Ready reports whether a clip for index can be played right away
func (c *ClipCache) Ready(index int) bool {
	_, ok := c.Get(index)
	return ok
}

// Release disposes of the clip for index and drops the entry. Entries that
// are absent, still in flight or currently playing are left alone. The
// return value tells whether anything was released.
func (c *ClipCache) Release(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[index]
	if !ok || e.handle == nil || e.playing {
		return false
	}

	// Disposal finishes before the slot can be requested again
	c.dispose(index, e.handle.token)
	delete(c.entries, index)
	return true
}

// Invalidate releases every stored clip and orphans every fetch in flight.
// The cache stays usable afterwards; new Ensure calls start fresh fetches.
func (c *ClipCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())

	for index, e := range c.entries {
		if e.handle != nil {
			c.dispose(index, e.handle.token)
		}
	}
	c.entries = make(map[int]*entry)
}

// Close invalidates the cache and waits for outstanding fetches to settle,
// so no clip produced for this cache outlives it.
func (c *ClipCache) Close() {
	c.Invalidate()
	c.inflight.Wait()
	c.cancel()
}

// acquire marks the clip for index as playing
func (c *ClipCache) acquire(index int) (*ClipHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[index]
	if !ok || e.handle == nil {
		return nil, fmt.Errorf("%w: sentence %d", ErrNotReady, index)
	}
	if e.playing {
		return nil, fmt.Errorf("%w: sentence %d", ErrAlreadyPlaying, index)
	}
	e.playing = true
	return e.handle, nil
}

// finish clears the playing mark set by acquire
func (c *ClipCache) finish(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[index]; ok {
		e.playing = false
	}
}

// dispose hands a token back to the provider. Failures only cost disk
// space, so they are logged and the caller carries on.
func (c *ClipCache) dispose(index int, token string) {
	if err := c.provider.Release(token); err != nil {
		c.logger.Warn("failed to release clip",
			zap.Int("index", index),
			zap.String("token", token),
			zap.Error(err))
	}
}
