package lifecycle

import (
	"regexp"
	"strings"

	"github.com/mnemohq/mnemo/pkg/session"
	"github.com/mnemohq/mnemo/pkg/utils"
)

const (
	maxCheckpointFiles  = 10
	maxCheckpointTopics = 5
	maxTopicLineChars   = 80
)

// filePathRe matches file paths worth carrying across a compaction.
var filePathRe = regexp.MustCompile(`(?:^|[\s"'(\[])((?:[\w.-]+/)+[\w.-]+\.\w{1,5})`)

// Checkpoint renders a continuity block for reinjection after compaction:
// the file paths touched in the conversation and the most recent user
// topics. Returns an empty string when there is nothing worth carrying.
func Checkpoint(msgs []session.Message) string {
	files := collectFiles(msgs)
	topicLines := recentUserTopics(msgs)
	if len(files) == 0 && len(topicLines) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<session_checkpoint>\n")
	if len(files) > 0 {
		sb.WriteString("Files in play:\n")
		for _, f := range files {
			sb.WriteString("- " + f + "\n")
		}
	}
	if len(topicLines) > 0 {
		sb.WriteString("Recent topics:\n")
		for _, t := range topicLines {
			sb.WriteString("- " + t + "\n")
		}
	}
	sb.WriteString("</session_checkpoint>")
	return sb.String()
}

func collectFiles(msgs []session.Message) []string {
	seen := make(map[string]bool)
	var files []string
	for _, m := range msgs {
		for _, match := range filePathRe.FindAllStringSubmatch(m.Text, -1) {
			f := match[1]
			if seen[f] {
				continue
			}
			seen[f] = true
			files = append(files, f)
			if len(files) == maxCheckpointFiles {
				return files
			}
		}
	}
	return files
}

// recentUserTopics returns the first line of the last few user messages,
// newest last.
func recentUserTopics(msgs []session.Message) []string {
	var lines []string
	for _, text := range session.UserTexts(msgs) {
		line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
		if line == "" {
			continue
		}
		lines = append(lines, utils.Truncate(line, maxTopicLineChars))
	}
	if len(lines) > maxCheckpointTopics {
		lines = lines[len(lines)-maxCheckpointTopics:]
	}
	return lines
}
