package faq

import "testing"

func TestMatch(t *testing.T) {
	m := New(map[string]string{
		"What are your opening hours?": "We are open 9-5, Monday to Friday.",
		"who made you":                 "I was built by the aster team.",
	})

	tests := []struct {
		name    string
		message string
		want    string
		wantOK  bool
	}{
		{name: "exact", message: "What are your opening hours?", want: "We are open 9-5, Monday to Friday.", wantOK: true},
		{name: "case insensitive", message: "what are your opening hours", want: "We are open 9-5, Monday to Friday.", wantOK: true},
		{name: "trailing punctuation", message: "Who made you?!", want: "I was built by the aster team.", wantOK: true},
		{name: "whitespace", message: "  who made you  ", want: "I was built by the aster team.", wantOK: true},
		{name: "no match", message: "what is the weather", wantOK: false},
		{name: "substring does not match", message: "tell me what are your opening hours please", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.message)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.message, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEmptyMatcher(t *testing.T) {
	m := New(nil)
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
	if _, ok := m.Match("anything"); ok {
		t.Error("empty matcher matched")
	}
}
