package extract

import (
	"regexp"
	"sort"
	"strings"
)

// patternRule binds one regular expression to the category its matches
// belong to. Captured groups are joined into a single candidate content.
type patternRule struct {
	category Category
	re       *regexp.Regexp
}

// patternRules is the fixed extraction rule table. Rules are ordered by
// category; match ordering in the output is by position in the text, so
// earlier statements win when the per-call cap kicks in.
var patternRules = []patternRule{
	{CategoryDecision, regexp.MustCompile(`(?i)(?:we|i) decided to ([^.!?\n]+)`)},
	{CategoryDecision, regexp.MustCompile(`(?i)(?:let's|we'll|we will) go with ([^.!?\n]+)`)},
	{CategoryDecision, regexp.MustCompile(`(?i)(?:we|i) chose ([^.!?\n]+?) (?:because|over|instead of) ([^.!?\n]+)`)},

	{CategorySolution, regexp.MustCompile(`(?i)fixed (?:this|it|that|the \w+) by ([^.!?\n]+)`)},
	{CategorySolution, regexp.MustCompile(`(?i)the (?:fix|solution|workaround) (?:was|is) (?:to )?([^.!?\n]+)`)},
	{CategorySolution, regexp.MustCompile(`(?i)resolved (?:this|it|the \w+) by ([^.!?\n]+)`)},

	{CategoryPattern, regexp.MustCompile(`(?i)the pattern (?:here )?is (?:to )?([^.!?\n]+)`)},
	{CategoryPattern, regexp.MustCompile(`(?i)(?:always|typically|usually) ([^.!?\n]+?) (?:when|whenever|before|after) ([^.!?\n]+)`)},

	{CategoryLearning, regexp.MustCompile(`(?i)(?:i|we) learned that ([^.!?\n]+)`)},
	{CategoryLearning, regexp.MustCompile(`(?i)turns out (?:that )?([^.!?\n]+)`)},
	{CategoryLearning, regexp.MustCompile(`(?i)(?:important|key takeaway): ([^.!?\n]+)`)},

	{CategoryArchitecture, regexp.MustCompile(`(?i)the (\w+ (?:layer|module|package|service|component)) (?:handles|owns|is responsible for) ([^.!?\n]+)`)},
	{CategoryArchitecture, regexp.MustCompile(`(?i)(\w+) is structured (?:as|around) ([^.!?\n]+)`)},

	{CategorySystem, regexp.MustCompile(`(?i)the (?:build|deploy|release|ci|test) (?:system|pipeline|process) ([^.!?\n]+)`)},
	{CategorySystem, regexp.MustCompile(`(?i)(?:runs?|deployed|hosted) (?:on|in) ((?:production|staging|ci)[^.!?\n]+)`)},

	{CategoryFailure, regexp.MustCompile(`(?i)fail(?:s|ed|ing)? (?:because|when|due to) ([^.!?\n]+)`)},
	{CategoryFailure, regexp.MustCompile(`(?i)the (?:bug|error|crash|panic) was (?:caused by |due to )?([^.!?\n]+)`)},
	{CategoryFailure, regexp.MustCompile(`(?i)broke (?:because|when|after) ([^.!?\n]+)`)},

	{CategoryPreference, regexp.MustCompile(`(?i)(?:i|we) prefer ([^.!?\n]+)`)},
	{CategoryPreference, regexp.MustCompile(`(?i)please (?:always|never|don't) ([^.!?\n]+)`)},
	{CategoryPreference, regexp.MustCompile(`(?i)from now on,? ([^.!?\n]+)`)},
}

type patternMatch struct {
	offset    int
	candidate Candidate
}

// Patterns applies the fixed rule table to normalized text and returns at
// most MaxItems candidates ordered by their position in the text. Matches
// outside the accepted content length band are dropped, and duplicate
// content within one call is collapsed to its first occurrence. Pure
// function of its input.
func Patterns(text string) []Candidate {
	if text == "" {
		return nil
	}

	var matches []patternMatch
	for _, rule := range patternRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			content, ok := validContent(joinGroups(text, m))
			if !ok {
				continue
			}
			matches = append(matches, patternMatch{
				offset: m[0],
				candidate: Candidate{
					Category: rule.category,
					Content:  content,
					Source:   SourcePattern,
				},
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].offset < matches[j].offset
	})

	seen := make(map[string]bool, len(matches))
	out := make([]Candidate, 0, MaxItems)
	for _, m := range matches {
		if seen[m.candidate.Content] {
			continue
		}
		seen[m.candidate.Content] = true
		out = append(out, m.candidate)
		if len(out) == MaxItems {
			break
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// joinGroups concatenates a match's captured groups with single spaces.
// idx is the FindAllStringSubmatchIndex slice for one match.
func joinGroups(text string, idx []int) string {
	var parts []string
	for g := 2; g+1 < len(idx); g += 2 {
		if idx[g] < 0 {
			continue
		}
		part := strings.TrimSpace(text[idx[g]:idx[g+1]])
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
