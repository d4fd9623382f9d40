// Package topics manages the per-project topic files maintained by the
// background summarizer.
//
// A topic file is markdown with a minimal "key:: value" frontmatter block,
// one key per line, followed by the body. Files are replaced wholesale on
// update, never patched, and never deleted by this pipeline.
package topics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const timeLayout = "2006-01-02"

// Topic is one parsed topic file.
type Topic struct {
	Filename   string
	Title      string
	Tags       []string
	Type       string
	SourceRepo string
	Importance int
	Created    string
	Updated    string
	Body       string
}

// Parse splits raw topic file content into frontmatter fields and body.
// Unknown keys are ignored; a file with no frontmatter is all body.
func Parse(raw string) Topic {
	var t Topic
	lines := strings.Split(raw, "\n")

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "::")
		if !ok {
			break
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "title":
			t.Title = value
		case "tags":
			for _, tag := range strings.Split(value, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					t.Tags = append(t.Tags, tag)
				}
			}
		case "type":
			t.Type = value
		case "source-repo":
			t.SourceRepo = value
		case "importance":
			fmt.Sscanf(value, "%d", &t.Importance)
		case "created":
			t.Created = value
		case "updated":
			t.Updated = value
		}
	}

	t.Body = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	return t
}

// Render serializes a topic back to file content. Only set fields emit
// frontmatter lines; field order is stable.
func (t Topic) Render() string {
	var sb strings.Builder

	writeKey := func(key, value string) {
		if value != "" {
			sb.WriteString(key)
			sb.WriteString(":: ")
			sb.WriteString(value)
			sb.WriteString("\n")
		}
	}

	writeKey("title", t.Title)
	writeKey("tags", strings.Join(t.Tags, ", "))
	writeKey("type", t.Type)
	writeKey("source-repo", t.SourceRepo)
	if t.Importance > 0 {
		writeKey("importance", fmt.Sprintf("%d", t.Importance))
	}
	writeKey("created", t.Created)
	writeKey("updated", t.Updated)

	sb.WriteString("\n")
	sb.WriteString(t.Body)
	sb.WriteString("\n")
	return sb.String()
}

// Today returns the current date in the frontmatter layout.
func Today() string {
	return time.Now().UTC().Format(timeLayout)
}

// EnsurePrefix prepends the project slug to a filename that does not
// already carry it, and normalizes the .md extension.
func EnsurePrefix(filename, slug string) string {
	filename = strings.TrimSpace(filename)
	if !strings.HasSuffix(filename, ".md") {
		filename += ".md"
	}
	if slug != "" && !strings.HasPrefix(filename, slug+"-") {
		filename = slug + "-" + filename
	}
	return filename
}

// SortByUpdated orders topics newest-first by their updated (falling back
// to created) date strings.
func SortByUpdated(ts []Topic) {
	key := func(t Topic) string {
		if t.Updated != "" {
			return t.Updated
		}
		return t.Created
	}
	sort.SliceStable(ts, func(i, j int) bool {
		return key(ts[i]) > key(ts[j])
	})
}
