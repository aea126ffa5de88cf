// Package chunker splits extracted document text into word-count-bounded
// chunks for independent embedding and storage.
package chunker

import "strings"

// DefaultChunkSize is the word budget per chunk.
const DefaultChunkSize = 350

// Split greedily accumulates whitespace-delimited words into chunks of
// at most chunkSize words. The final chunk may be shorter. Chunks never
// overlap and boundaries ignore sentence structure. Empty input yields
// no chunks.
func Split(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+chunkSize-1)/chunkSize)
	for start := 0; start < len(words); start += chunkSize {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
