// Package playback turns a sentence sequence into gapless speech. A
// ClipCache owns the synthesized clips of one article and a Sequencer
// plays them in order, prefetching one sentence ahead. Both guard their
// asynchronous continuations with a generation counter so that a stop or
// an invalidation makes every outstanding callback inert.
package playback
