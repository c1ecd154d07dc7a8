package knowledge

import "strings"

const (
	// chunkSize is the target chunk length in runes. Sized so a chunk
	// carries enough context to be useful on its own while staying well
	// under embedding input limits.
	chunkSize = 1500
	// chunkOverlap carries trailing context into the next chunk so a fact
	// split across a boundary remains retrievable.
	chunkOverlap = 200
)

// Chunk splits text into overlapping pieces suitable for embedding.
// Paragraph boundaries are preferred; paragraphs longer than the chunk
// size are split mid-text with overlap.
func Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(para) > chunkSize {
			flush()
		}

		if len(para) > chunkSize {
			flush()
			chunks = append(chunks, splitLong(para)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitLong splits an oversized paragraph on rune boundaries with overlap.
func splitLong(s string) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - chunkOverlap
	}
	return out
}
