// Package vectorindex implements the dense-vector side of indexing (C3):
// word-boundary chunking, embedding via internal/embedder, and atomic
// per-document chunk storage via internal/store's VectorStore.
package vectorindex

import "strings"

// Chunk is one word-boundary slice of a document's clean text.
type Chunk struct {
	Index     int
	Text      string
	StartWord int
	EndWord   int // exclusive
}

// ChunkText splits text into word-boundary chunks of at most chunkSize words,
// with chunkOverlap words shared between consecutive chunks. If text has at
// most chunkSize words, the whole text is returned as a single chunk.
//
// Successive chunks start at word offsets 0, chunkSize-chunkOverlap,
// 2*(chunkSize-chunkOverlap), ... Each chunk's word count is <= chunkSize.
func ChunkText(text string, chunkSize, chunkOverlap int) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = len(words)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	if len(words) <= chunkSize {
		return []Chunk{{Index: 0, Text: strings.Join(words, " "), StartWord: 0, EndWord: len(words)}}
	}

	stride := chunkSize - chunkOverlap
	var chunks []Chunk
	idx := 0
	for start := 0; start < len(words); start += stride {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index:     idx,
			Text:      strings.Join(words[start:end], " "),
			StartWord: start,
			EndWord:   end,
		})
		idx++
		if end == len(words) {
			break
		}
	}
	return chunks
}
