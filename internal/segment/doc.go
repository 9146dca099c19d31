// Package segment splits article text into the ordered sentence sequence
// that playback and highlighting index into.
package segment
