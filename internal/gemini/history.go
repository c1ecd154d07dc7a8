package gemini

import (
	"strings"

	"github.com/asterhq/aster/internal/chat"
)

// historyAck is the synthetic model turn appended when truncation leaves the
// history ending on a user turn. The provider requires history to alternate
// roles and end with a model turn before the next user message.
const historyAck = "Acknowledged input."

// NormalizeHistory rewrites conversation history into the shape the provider
// accepts:
//
//  1. truncate to the most recent window turns,
//  2. drop leading model turns (history must start with a user turn),
//  3. merge adjacent same-role turns with a blank line,
//  4. append a synthetic model acknowledgement if the result ends on a
//     user turn.
//
// The input slice is never mutated. An empty result means there is no usable
// history and the message stands alone.
func NormalizeHistory(turns []chat.Turn, window int) []chat.Turn {
	if window <= 0 {
		window = 10
	}
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	// Whitespace-only turns carry nothing and would defeat the adjacency
	// merge below.
	kept := make([]chat.Turn, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		kept = append(kept, t)
	}

	start := 0
	for start < len(kept) && kept[start].Role != chat.RoleUser {
		start++
	}
	kept = kept[start:]
	if len(kept) == 0 {
		return nil
	}

	merged := make([]chat.Turn, 0, len(kept))
	for _, t := range kept {
		if n := len(merged); n > 0 && merged[n-1].Role == t.Role {
			merged[n-1].Content = merged[n-1].Content + "\n\n" + t.Content
			continue
		}
		merged = append(merged, t)
	}

	if merged[len(merged)-1].Role == chat.RoleUser {
		merged = append(merged, chat.Turn{Role: chat.RoleModel, Content: historyAck})
	}
	return merged
}
