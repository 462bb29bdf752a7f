// Package ingest builds RAG records from markdown documents: normalized
// overlapping text chunks plus image references with surrounding context.
package ingest

import (
	"regexp"
	"strings"
)

const (
	// ChunkSize is the default chunk window in characters.
	ChunkSize = 1200
	// ChunkOverlap is the default overlap between consecutive chunks.
	ChunkOverlap = 200
	// ImageChunkOverlap is the overlap used when re-chunking image blocks.
	ImageChunkOverlap = 150
	// ImageContextWindow is the number of characters of context captured
	// on each side of an image reference.
	ImageContextWindow = 500
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// ChunkText splits text into fixed-size overlapping windows after
// whitespace normalization. Windows are measured in runes so multibyte
// text never splits mid-character.
func ChunkText(text string, size, overlap int) []string {
	cleaned := []rune(NormalizeWhitespace(text))
	if len(cleaned) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(cleaned) {
		end := start + size
		if end > len(cleaned) {
			end = len(cleaned)
		}
		chunks = append(chunks, string(cleaned[start:end]))
		if end == len(cleaned) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

var imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// ImageRef is one markdown image reference with its position.
type ImageRef struct {
	Alt      string
	URL      string
	StartIdx int
}

// ExtractImages finds all markdown image references in a document.
func ExtractImages(markdown string) []ImageRef {
	var out []ImageRef
	for _, m := range imagePattern.FindAllStringSubmatchIndex(markdown, -1) {
		out = append(out, ImageRef{
			Alt:      strings.TrimSpace(markdown[m[2]:m[3]]),
			URL:      markdown[m[4]:m[5]],
			StartIdx: m[0],
		})
	}
	return out
}

// ContextWindow returns normalized text around a center index.
func ContextWindow(text string, centerIdx, windowChars int) string {
	start := centerIdx - windowChars
	if start < 0 {
		start = 0
	}
	end := centerIdx + windowChars
	if end > len(text) {
		end = len(text)
	}
	return NormalizeWhitespace(text[start:end])
}
