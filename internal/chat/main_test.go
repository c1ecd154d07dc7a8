package chat

import (
	"testing"

	"go.uber.org/goleak"
)

// The agent must never leak goroutines across a Respond call, including on
// cancellation and emitter failure.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
