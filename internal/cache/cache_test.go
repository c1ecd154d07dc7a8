package cache

import (
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time        { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New()
	c.now = clk.Now
	return c, clk
}

func TestSetGet(t *testing.T) {
	c, _ := newTestCache()

	key := Fingerprint(0, "hello", "default", "gemini-2.5-flash")
	c.Set(key, "A", 60*time.Second)

	got, ok := c.Get(key)
	if !ok || got != "A" {
		t.Fatalf("Get() = (%q, %v), want (\"A\", true)", got, ok)
	}
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	c, clk := newTestCache()

	key := Fingerprint(0, "hello", "", "")
	c.Set(key, "A", 60*time.Second)

	clk.Advance(61 * time.Second)

	if _, ok := c.Get(key); ok {
		t.Error("expected entry to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("expected lazy eviction on read, Len() = %d", c.Len())
	}
}

func TestSet_ZeroTTLIsNoop(t *testing.T) {
	c, _ := newTestCache()
	c.Set("k", "v", 0)
	if c.Len() != 0 {
		t.Error("zero TTL must not store an entry")
	}
}

func TestFingerprint_HistoryLengthChangesKey(t *testing.T) {
	// Same message as a follow-up must not reuse the first-turn answer.
	first := Fingerprint(0, "what is go?", "default", "gemini-2.5-flash")
	followUp := Fingerprint(2, "what is go?", "default", "gemini-2.5-flash")
	if first == followUp {
		t.Error("fingerprint must differ when history length differs")
	}
}

func TestFingerprint_ComponentsAreDelimited(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide across field boundaries.
	a := Fingerprint(1, "ab", "c", "m")
	b := Fingerprint(1, "a", "bc", "m")
	if a == b {
		t.Error("fingerprint fields must be delimited")
	}
}

func TestFingerprint_EmbeddedNULDoesNotShiftBoundaries(t *testing.T) {
	// A NUL byte inside a component must not read as a field separator.
	a := Fingerprint(0, "a\x00b", "c", "m")
	b := Fingerprint(0, "a", "b\x00c", "m")
	if a == b {
		t.Error("NUL inside a component must not alias a field boundary")
	}
}

func TestSet_SweepEvictsExpired(t *testing.T) {
	c, clk := newTestCache()

	for i := range DefaultSweepThreshold + 1 {
		c.Set(Fingerprint(i, "m", "", ""), "v", time.Second)
	}
	clk.Advance(2 * time.Second)

	// Table exceeds the threshold, so this write sweeps the expired bulk.
	c.Set("fresh", "v", time.Minute)

	if c.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, _ := newTestCache()
	done := make(chan struct{})

	for i := range 8 {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := range 100 {
				key := Fingerprint(n, "msg", "", "")
				c.Set(key, "v", time.Minute)
				c.Get(key)
				_ = j
			}
		}(i)
	}
	for range 8 {
		<-done
	}
}
