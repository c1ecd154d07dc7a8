// Package faq answers common questions from a fixed table without calling
// the model.
package faq

import "strings"

// Matcher holds canned question/answer pairs. Matching is case-insensitive
// and ignores surrounding whitespace and trailing punctuation, nothing
// smarter; anything fuzzier belongs with the model.
type Matcher struct {
	answers map[string]string
}

// New builds a Matcher from configured question/answer pairs.
func New(pairs map[string]string) *Matcher {
	answers := make(map[string]string, len(pairs))
	for q, a := range pairs {
		answers[normalize(q)] = a
	}
	return &Matcher{answers: answers}
}

// Match returns the canned answer for a message, if any.
func (m *Matcher) Match(message string) (string, bool) {
	a, ok := m.answers[normalize(message)]
	return a, ok
}

// Len reports the number of configured answers.
func (m *Matcher) Len() int { return len(m.answers) }

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, "?!. ")
}
