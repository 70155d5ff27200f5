package cove

import "strings"

// QuestionFilter decides whether a trimmed, non-empty line of the planning
// completion is accepted as a verification question. The filter is a named,
// swappable policy so callers can pin either acceptance rule.
type QuestionFilter func(line string) bool

// LeadingMarkFilter accepts lines that begin with a question mark. This is
// the historical acceptance rule; note it rejects ordinary question lines
// such as "1. Did X happen?", which end rather than begin with the mark.
func LeadingMarkFilter(line string) bool {
	return strings.HasPrefix(line, "?")
}

// TrailingMarkFilter accepts lines that end with a question mark, which
// matches how completion models typically format question lists.
func TrailingMarkFilter(line string) bool {
	return strings.HasSuffix(line, "?")
}

// FilterByName resolves a configured filter name. Unknown names fall back to
// the leading-mark rule.
func FilterByName(name string) QuestionFilter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trailing":
		return TrailingMarkFilter
	default:
		return LeadingMarkFilter
	}
}
