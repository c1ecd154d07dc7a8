package gemini

import (
	"fmt"
	"strings"
	"testing"

	"github.com/asterhq/aster/internal/chat"
)

func user(s string) chat.Turn  { return chat.Turn{Role: chat.RoleUser, Content: s} }
func model(s string) chat.Turn { return chat.Turn{Role: chat.RoleModel, Content: s} }

func TestNormalizeHistoryEmpty(t *testing.T) {
	if got := NormalizeHistory(nil, 10); got != nil {
		t.Errorf("NormalizeHistory(nil) = %v, want nil", got)
	}
	if got := NormalizeHistory([]chat.Turn{model("orphan")}, 10); got != nil {
		t.Errorf("NormalizeHistory(model-only) = %v, want nil", got)
	}
}

func TestNormalizeHistoryWindow(t *testing.T) {
	var turns []chat.Turn
	for i := range 20 {
		turns = append(turns, user(fmt.Sprintf("q%d", i)), model(fmt.Sprintf("a%d", i)))
	}

	got := NormalizeHistory(turns, 10)
	if len(got) != 10 {
		t.Fatalf("normalized length = %d, want 10", len(got))
	}
	if got[0].Content != "q15" {
		t.Errorf("first turn = %q, want q15 (last 10 turns kept)", got[0].Content)
	}
	if got[len(got)-1].Content != "a19" {
		t.Errorf("last turn = %q, want a19", got[len(got)-1].Content)
	}
}

func TestNormalizeHistoryDropsLeadingModelTurns(t *testing.T) {
	got := NormalizeHistory([]chat.Turn{
		model("greeting"),
		model("another"),
		user("hi"),
		model("hello"),
	}, 10)

	if len(got) == 0 || got[0].Role != chat.RoleUser {
		t.Fatalf("normalized = %+v, want to start with a user turn", got)
	}
	if got[0].Content != "hi" {
		t.Errorf("first turn = %q, want %q", got[0].Content, "hi")
	}
}

func TestNormalizeHistoryMergesAdjacentRoles(t *testing.T) {
	got := NormalizeHistory([]chat.Turn{
		user("first"),
		user("second"),
		model("reply"),
	}, 10)

	if len(got) != 2 {
		t.Fatalf("normalized = %+v, want 2 turns", got)
	}
	if got[0].Content != "first\n\nsecond" {
		t.Errorf("merged turn = %q, want blank-line join", got[0].Content)
	}

	for i := 1; i < len(got); i++ {
		if got[i].Role == got[i-1].Role {
			t.Errorf("adjacent turns %d and %d share role %s", i-1, i, got[i].Role)
		}
	}
}

func TestNormalizeHistoryAppendsAck(t *testing.T) {
	got := NormalizeHistory([]chat.Turn{
		user("hi"),
		model("hello"),
		user("dangling"),
	}, 10)

	last := got[len(got)-1]
	if last.Role != chat.RoleModel || last.Content != historyAck {
		t.Errorf("last turn = %+v, want synthetic model acknowledgement", last)
	}
}

func TestNormalizeHistoryTruncationCreatesDanglingUser(t *testing.T) {
	// With window 3, slicing lands mid-conversation: model, user, model
	// becomes user-leading after the drop, and the trailing role decides
	// whether an ack is needed.
	turns := []chat.Turn{
		user("q1"), model("a1"),
		user("q2"), model("a2"),
		user("q3"),
	}

	got := NormalizeHistory(turns, 3)
	if got[0].Role != chat.RoleUser {
		t.Fatalf("normalized = %+v, want user-leading history", got)
	}
	last := got[len(got)-1]
	if last.Content != historyAck {
		t.Errorf("last turn = %+v, want ack after trailing user turn", last)
	}
}

func TestNormalizeHistorySkipsBlankTurns(t *testing.T) {
	got := NormalizeHistory([]chat.Turn{
		user("hi"),
		model("   \n "),
		user("again"),
		model("hello"),
	}, 10)

	for _, turn := range got {
		if strings.TrimSpace(turn.Content) == "" {
			t.Errorf("normalized history contains blank turn: %+v", got)
		}
	}
	// The blank model turn is gone, so the two user turns merge.
	if got[0].Content != "hi\n\nagain" {
		t.Errorf("first turn = %q, want merged user turns", got[0].Content)
	}
}

func TestNormalizeHistoryDoesNotMutateInput(t *testing.T) {
	turns := []chat.Turn{user("a"), user("b"), model("c")}
	NormalizeHistory(turns, 10)

	if turns[0].Content != "a" || turns[1].Content != "b" {
		t.Errorf("input mutated: %+v", turns)
	}
}
