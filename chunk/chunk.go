package chunk

import (
	"strings"
	"unicode/utf8"
)

// Token-to-character estimate used to derive the default chunk budget
// from an embedding model's context window.
const (
	// DefaultMaxTokens approximates the context window of common
	// embedding models.
	DefaultMaxTokens = 8192

	// CharsPerToken is the rough character cost of one token in
	// English-like text.
	CharsPerToken = 4

	// DefaultMaxChars is the chunk budget in characters.
	DefaultMaxChars = DefaultMaxTokens * CharsPerToken
)

// Splitter turns a document into passages small enough to embed. Each
// returned chunk becomes one Add call's source text.
type Splitter interface {
	Split(text string) []string
}

// TextOptions configures a Text splitter.
type TextOptions struct {
	// MaxChars caps the chunk size, counted in runes.
	MaxChars int
}

// DefaultTextOptions holds the options for a new Text splitter.
var DefaultTextOptions = TextOptions{
	MaxChars: DefaultMaxChars,
}

// Text splits plain text into chunks of at most MaxChars runes. It
// prefers paragraph boundaries, falls back to sentence boundaries, and
// hard-cuts only when a single sentence exceeds the budget. Whitespace
// around chunks is trimmed and empty chunks are dropped.
type Text struct {
	maxChars int
}

// NewText creates a Text splitter.
func NewText(optFns ...func(o *TextOptions)) *Text {
	opts := DefaultTextOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	return &Text{maxChars: opts.MaxChars}
}

// MaxChars returns the configured chunk budget.
func (t *Text) MaxChars() int {
	return t.maxChars
}

// Split implements Splitter.
func (t *Text) Split(text string) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if chunk := strings.TrimSpace(cur.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}

		cur.Reset()
		curLen = 0
	}

	appendPiece := func(piece string, sep string) {
		pieceLen := utf8.RuneCountInString(piece)

		if curLen > 0 && curLen+len(sep)+pieceLen > t.maxChars {
			flush()
		}

		if curLen > 0 {
			cur.WriteString(sep)
			curLen += len(sep)
		}

		cur.WriteString(piece)
		curLen += pieceLen
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if utf8.RuneCountInString(paragraph) <= t.maxChars {
			appendPiece(paragraph, "\n\n")
			continue
		}

		// Paragraph alone exceeds the budget: fall back to sentences.
		for _, sentence := range splitSentences(paragraph) {
			if utf8.RuneCountInString(sentence) <= t.maxChars {
				appendPiece(sentence, " ")
				continue
			}

			// A single oversized sentence forces a hard cut.
			flush()

			for _, piece := range hardCut(sentence, t.maxChars) {
				flush()
				cur.WriteString(piece)
				curLen = utf8.RuneCountInString(piece)
			}
		}
	}

	flush()

	return chunks
}

// splitSentences splits on ". " boundaries, keeping the period with
// the preceding sentence.
func splitSentences(text string) []string {
	parts := strings.SplitAfter(text, ". ")

	sentences := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}

	return sentences
}

// hardCut slices text into pieces of at most maxChars runes, cutting
// only at rune boundaries.
func hardCut(text string, maxChars int) []string {
	runes := []rune(text)

	pieces := make([]string, 0, (len(runes)+maxChars-1)/maxChars)

	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}

		pieces = append(pieces, string(runes[start:end]))
	}

	return pieces
}
