// Package keywords interprets free-form human responses against fixed keyword
// sets. Matching is case-insensitive and word-boundary safe, so "DISAPPROVE"
// never satisfies an APPROVE check and "KNOW" never satisfies a NO check.
package keywords

import (
	"regexp"
	"strings"
	"sync"
)

// Set is an immutable named collection of accepted keywords.
type Set struct {
	Name     string
	Keywords []string
}

// Shared keyword sets. Constructed once; treat as read-only.
var (
	Approval = Set{
		Name:     "approval",
		Keywords: []string{"APPROVE", "YES", "CORRECT", "OK", "ACCEPT", "VALID", "PROCEED"},
	}
	Rejection = Set{
		Name:     "rejection",
		Keywords: []string{"REJECT", "NO", "WRONG", "INCORRECT", "CHANGE", "FIX"},
	}
)

var (
	patternCache   = make(map[string]*regexp.Regexp)
	patternCacheMu sync.Mutex
)

// pattern compiles (and caches) a case-insensitive word-boundary matcher for a
// single keyword.
func pattern(keyword string) *regexp.Regexp {
	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()

	if re, ok := patternCache[keyword]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	patternCache[keyword] = re
	return re
}

// Matches reports whether text contains any keyword of the set as a whole word.
func (s Set) Matches(text string) bool {
	if text == "" {
		return false
	}
	for _, kw := range s.Keywords {
		if pattern(kw).MatchString(text) {
			return true
		}
	}
	return false
}

// Contains reports whether text contains the given keyword as a whole word,
// case-insensitively.
func Contains(text, keyword string) bool {
	if text == "" || keyword == "" {
		return false
	}
	return pattern(keyword).MatchString(text)
}

// ContainsAny reports whether text contains any of the given keywords as whole
// words.
func ContainsAny(text string, kws ...string) bool {
	for _, kw := range kws {
		if Contains(text, kw) {
			return true
		}
	}
	return false
}

// Rule binds a name to a keyword set for ordered first-match interpretation.
type Rule struct {
	Name string
	Set  Set
}

// FirstMatch tests text against rules in order and returns the name of the
// first matching rule. Precedence (e.g. rejection-beats-approval) is therefore
// visible as data, not buried in conditionals. Returns "" when nothing matches.
func FirstMatch(text string, rules []Rule) string {
	for _, r := range rules {
		if r.Set.Matches(text) {
			return r.Name
		}
	}
	return ""
}

// ResponseEntry is one human exchange: the question that was pending and the
// raw reply text. Replies are kept in arrival order so the latest reply is the
// last element.
type ResponseEntry struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// LastResponse returns the text of the most recent reply, or "" when the list
// is empty or nil.
func LastResponse(responses []ResponseEntry) string {
	if len(responses) == 0 {
		return ""
	}
	return strings.TrimSpace(responses[len(responses)-1].Text)
}
