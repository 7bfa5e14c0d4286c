package chunker

import (
	"fmt"

	"studyrag/internal/domain"
)

// WindowChunker splits text into fixed-size windows with a fixed overlap.
// Windows start at offsets 0, W-O, 2(W-O), ... and the final window may be
// shorter than W. Consecutive windows share exactly O characters.
type WindowChunker struct {
	window  int
	overlap int
}

// NewWindowChunker validates the window/overlap pair. Overlap must be
// smaller than the window or the split would never make progress.
func NewWindowChunker(window, overlap int) (*WindowChunker, error) {
	if window <= 0 || overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("%w: window=%d overlap=%d", domain.ErrInvalidChunkConfig, window, overlap)
	}
	return &WindowChunker{window: window, overlap: overlap}, nil
}

// Split is a deterministic, pure function of its input. Empty text yields no
// chunks; non-empty text yields ceil((len-overlap)/(window-overlap)) chunks.
func (c *WindowChunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	step := c.window - c.overlap
	for start := 0; start < len(runes); start += step {
		end := start + c.window
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

// Chunk splits a document's extracted text into ordered chunks carrying the
// source filename and position.
func (c *WindowChunker) Chunk(filename, text string) []domain.Chunk {
	parts := c.Split(text)
	chunks := make([]domain.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = domain.Chunk{Filename: filename, Index: i, Text: p}
	}
	return chunks
}
