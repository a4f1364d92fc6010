// Package chunker splits speech text into synthesis sized pieces.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the default maximum characters per chunk.
// Polly rejects requests over 3000 billed characters; 2500 leaves headroom.
const DefaultMaxChars = 2500

// SplitSentences splits text after sentence terminators followed by white
// space, after full width terminators, and at newlines.
// Terminators stay attached to their sentence; empty pieces are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		// "3.5" and "e.g.x" are not sentence ends
		if isTerminator(r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1]) || isWide(r)) {
			flush()
		}
	}
	flush()
	return sentences
}

// SplitText splits text into chunks of at most maxChars runes.
// Sentences are kept whole when they fit; an oversized sentence is split
// at spaces, and an oversized word at rune boundaries.
func SplitText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	add := func(piece string) {
		n := utf8.RuneCountInString(piece)
		sep := 0
		if currentLen > 0 {
			sep = 1
		}
		// If adding this piece would exceed the limit, start a new chunk
		if currentLen+sep+n > maxChars {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte(' ')
		}
		current.WriteString(piece)
		currentLen += sep + n
	}

	for _, sentence := range SplitSentences(text) {
		if utf8.RuneCountInString(sentence) <= maxChars {
			add(sentence)
			continue
		}
		for _, word := range strings.FieldsFunc(sentence, unicode.IsSpace) {
			if utf8.RuneCountInString(word) <= maxChars {
				add(word)
				continue
			}
			// Single word larger than a chunk gets hard split
			flush()
			runes := []rune(word)
			for len(runes) > maxChars {
				chunks = append(chunks, string(runes[:maxChars]))
				runes = runes[maxChars:]
			}
			add(string(runes))
		}
	}

	// Flush remaining chunk
	flush()
	return chunks
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '؟', '।':
		return true
	}
	return false
}

// isWide reports terminators of scripts written without spaces.
func isWide(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}
