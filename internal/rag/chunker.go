package rag

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraph breaks first, then lines,
// sentences, words, and finally raw rune windows
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits document text into overlapping chunks sized for embedding.
// Splitting is recursive: the text is broken on the coarsest separator
// present, oversized pieces are re-split on finer separators, and adjacent
// pieces are merged back up to the chunk size with overlap carried between
// consecutive chunks. Sizes are measured in runes so multi-byte text does
// not get cut mid-character.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewChunker creates a chunker with the given size and overlap in runes
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// Split breaks text into chunks. Whitespace-only chunks are dropped.
func (c *Chunker) Split(text string) []string {
	pieces := c.split(text, c.separators)

	chunks := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

func (c *Chunker) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}

	sep := ""
	rest := []string{}
	for i, s := range separators {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return c.splitRunes(text)
	}

	// Keep the separator attached to the preceding piece so merged chunks
	// read like the original text
	parts := strings.SplitAfter(text, sep)

	var pieces []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) > c.chunkSize {
			pieces = append(pieces, c.split(part, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}

	return c.merge(pieces)
}

// merge greedily combines pieces into chunks of at most chunkSize runes,
// seeding each new chunk with the tail of the previous one
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var current []rune

	for _, piece := range pieces {
		runes := []rune(piece)

		if len(current) > 0 && len(current)+len(runes) > c.chunkSize {
			chunks = append(chunks, string(current))

			overlap := c.chunkOverlap
			if overlap > len(current) {
				overlap = len(current)
			}
			// Shrink the overlap when the next piece alone nearly fills the
			// chunk, preserving the size invariant
			if overlap+len(runes) > c.chunkSize {
				overlap = c.chunkSize - len(runes)
				if overlap < 0 {
					overlap = 0
				}
			}
			current = append([]rune{}, current[len(current)-overlap:]...)
		}

		current = append(current, runes...)
	}

	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}

	return chunks
}

// splitRunes is the last resort for text with no separators: fixed rune
// windows advanced by chunkSize minus overlap
func (c *Chunker) splitRunes(text string) []string {
	runes := []rune(text)
	stride := c.chunkSize - c.chunkOverlap
	if stride <= 0 {
		stride = c.chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
