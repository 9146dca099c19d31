// Package reader runs one reading session: it loads an article, splits it
// into sentences and plays them back with a fresh clip cache per article.
// Loading a new article stops playback and invalidates the previous cache,
// so clips never outlive the article they were made for.
package reader
