package ingestion

import "strings"

// NormalizeText collapses all whitespace runs (spaces, newlines, tabs) into
// single spaces and trims the ends. Chunk boundaries then depend only on the
// text itself, not on the source document's line layout.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SplitChunks cuts text into fixed-size rune windows with no overlap. The
// final chunk may be shorter. Empty text yields no chunks.
func SplitChunks(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
