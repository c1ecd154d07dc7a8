package knowledge

import (
	"strings"
	"testing"
)

func TestChunkEmpty(t *testing.T) {
	if got := Chunk("   \n\n  "); got != nil {
		t.Errorf("Chunk(whitespace) = %v, want nil", got)
	}
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph."
	got := Chunk(text)
	if len(got) != 1 {
		t.Fatalf("Chunk returned %d chunks, want 1", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want original text", got[0])
	}
}

func TestChunkSplitsOnParagraphs(t *testing.T) {
	para := strings.Repeat("a", 1000)
	text := para + "\n\n" + para

	got := Chunk(text)
	if len(got) != 2 {
		t.Fatalf("Chunk returned %d chunks, want 2", len(got))
	}
	for i, c := range got {
		if len(c) != 1000 {
			t.Errorf("chunk %d has length %d, want 1000", i, len(c))
		}
	}
}

func TestChunkLongParagraphOverlaps(t *testing.T) {
	text := strings.Repeat("b", 4*chunkSize)

	got := Chunk(text)
	if len(got) < 3 {
		t.Fatalf("Chunk returned %d chunks, want at least 3", len(got))
	}
	for i, c := range got {
		if len(c) > chunkSize {
			t.Errorf("chunk %d has length %d, exceeds %d", i, len(c), chunkSize)
		}
	}

	var total int
	for _, c := range got {
		total += len(c)
	}
	// Overlap means chunks together carry more text than the input.
	if total <= len(text) {
		t.Errorf("total chunk length %d, want more than input length %d (overlap)", total, len(text))
	}
}
