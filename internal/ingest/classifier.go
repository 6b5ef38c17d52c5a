package ingest

import (
	"regexp"
	"strings"
)

const (
	// questionMarker force-starts a question regardless of punctuation.
	questionMarker = "$"
	// correctMarker flags the single correct option of a question.
	correctMarker = "#"
)

var numberedItem = regexp.MustCompile(`^\d+\.`)

// IsQuestionStart reports whether a trimmed, non-empty line opens a new
// question. The rules are deliberately permissive heuristics carried over
// from the legacy document format: declarative answer text ending in "..."
// will be misclassified, which is why the check lives behind this single
// function instead of being inlined into the parser.
func IsQuestionStart(line string) bool {
	switch {
	case strings.HasPrefix(line, questionMarker),
		strings.HasSuffix(line, "?"),
		strings.HasSuffix(line, ":"),
		strings.HasSuffix(line, "..."),
		strings.HasPrefix(line, "..."),
		strings.Contains(line, "__"),
		strings.HasSuffix(line, "!"):
		return true
	}
	return numberedItem.MatchString(line)
}
