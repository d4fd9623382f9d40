package extract

import (
	"regexp"
	"strings"
)

// Agents sometimes emit highlighted insight blocks in their output:
//
//	★ Insight ─────────────────────────────────
//	explanation text
//	─────────────────────────────────────────────
//
// These are explicit "worth remembering" signals, so they bypass the
// rule table and become candidates directly.
var insightRe = regexp.MustCompile(`(?s)[★✦]\s*Insight\s*[-─—:]+\s*([^\n─]*)─*\n(.*?)─{5,}`)

// Insight is one highlighted block lifted from assistant output.
type Insight struct {
	Title string
	Body  string
}

// Insights returns every highlighted insight block found in text.
func Insights(text string) []Insight {
	var out []Insight
	for _, m := range insightRe.FindAllStringSubmatch(text, -1) {
		title := strings.TrimSpace(m[1])
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		out = append(out, Insight{Title: title, Body: body})
	}
	return out
}

// InsightCandidates converts insight blocks into learning candidates,
// applying the usual content length band.
func InsightCandidates(text string) []Candidate {
	var out []Candidate
	for _, ins := range Insights(text) {
		content := ins.Body
		if ins.Title != "" {
			content = ins.Title + ": " + ins.Body
		}
		content, ok := validContent(content)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Category: CategoryLearning,
			Content:  content,
			Source:   SourcePattern,
		})
	}
	return out
}
