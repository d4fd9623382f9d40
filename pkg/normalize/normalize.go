// Package normalize strips conversational noise from raw session text
// before any extraction runs over it.
//
// Extraction rules and model prompts both assume prose. Code fences,
// markdown tables, URLs and terminal control sequences produce junk
// candidates, so they are removed up front. Normalization is a pure
// function of its input.
package normalize

import (
	"regexp"
	"strings"
)

var (
	fenceRe   = regexp.MustCompile("(?s)```.*?```")
	inlineRe  = regexp.MustCompile("`([^`\n]*)`")
	tableRe   = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)
	urlRe     = regexp.MustCompile(`https?://\S+`)
	ansiRe    = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	spacesRe  = regexp.MustCompile(`[ \t]{2,}`)
	newlineRe = regexp.MustCompile(`\n{3,}`)
)

// Text removes code fences, inline code markers, markdown tables, URLs and
// ANSI control sequences, then collapses runs of whitespace. Inline code
// keeps its inner text; everything else is dropped entirely.
func Text(s string) string {
	s = fenceRe.ReplaceAllString(s, " ")
	s = inlineRe.ReplaceAllString(s, "$1")
	s = tableRe.ReplaceAllString(s, "")
	s = urlRe.ReplaceAllString(s, "")
	s = ansiRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	s = newlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
