package segment

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNoSentences is returned for text without any speakable fragment
var ErrNoSentences = errors.New("text contains no sentences")

// Splitter turns raw article text into sentences
type Splitter interface {
	Split(text string) ([]string, error)
}

// SentenceSplitter is the default Splitter. It is stateless and safe for
// concurrent use.
type SentenceSplitter struct{}

var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// closers may trail the terminal punctuation of a sentence
const closers = `"')]}»”’`

// Split splits text on paragraph breaks and sentence terminators.
// Whitespace runs are collapsed to single spaces. Fragments without a
// letter or digit ("* * *", a lone dash) count as empty and are dropped. The result is never empty unless an error is returned.
func (SentenceSplitter) Split(text string) ([]string, error) {
	var sentences []string
	for _, paragraph := range paragraphBreak.Split(text, -1) {
		collapsed := strings.Join(strings.Fields(paragraph), " ")
		if collapsed == "" {
			continue
		}
		sentences = append(sentences, splitParagraph(collapsed)...)
	}

	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}
	return sentences, nil
}

// Split is a shorthand for SentenceSplitter{}.Split
func Split(text string) ([]string, error) {
	return SentenceSplitter{}.Split(text)
}

// splitParagraph cuts an already collapsed paragraph into sentences
func splitParagraph(p string) []string {
	var out []string
	start := 0

	for i := 0; i < len(p); {
		r, size := utf8.DecodeRuneInString(p[i:])
		if !isTerminator(r) {
			i += size
			continue
		}

		// Consume runs like "?!" or "..." and trailing quotes
		end := i + size
		for end < len(p) {
			next, n := utf8.DecodeRuneInString(p[end:])
			if !isTerminator(next) && !strings.ContainsRune(closers, next) {
				break
			}
			end += n
		}

		if end < len(p) && p[end] == ' ' && startsSentence(p[end+1:]) {
			if s := strings.TrimSpace(p[start:end]); speakable(s) {
				out = append(out, s)
			}
			start = end + 1
		}
		i = end
	}

	if s := strings.TrimSpace(p[start:]); speakable(s) {
		out = append(out, s)
	}
	return out
}

// speakable reports whether s has anything a voice could read
func speakable(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

// startsSentence reports whether rest looks like the start of a new
// sentence. A lower-case continuation ("E. coli") keeps the sentence going.
func startsSentence(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	if r == utf8.RuneError {
		return false
	}
	return !unicode.IsLower(r)
}
