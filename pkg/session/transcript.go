// Package session reads agent transcripts from JSONL session files.
package session

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
)

// DefaultMaxChars caps the conversation text handed to downstream
// consumers. Long sessions blow model context limits otherwise.
const DefaultMaxChars = 50_000

// Message is a single user or assistant turn with its text content
// flattened out of the transcript's content blocks.
type Message struct {
	Role string
	Text string
}

// transcriptEntry represents a single line in a JSONL transcript.
type transcriptEntry struct {
	Type    string             `json:"type"`
	Message *transcriptMessage `json:"message"`
}

type transcriptMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type transcriptBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textContent flattens the message content. Content is either a plain
// string or an array of typed blocks; only text blocks contribute.
func (m *transcriptMessage) textContent() string {
	if len(m.Content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}

	var blocks []transcriptBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return ""
	}

	var sb strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// ReadTranscript parses a JSONL transcript and returns the user and
// assistant messages in order. Malformed lines and entries with no text
// content (tool calls, results, progress records) are skipped.
func ReadTranscript(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []Message

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	for scanner.Scan() {
		var entry transcriptEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if entry.Type != "user" && entry.Type != "assistant" {
			continue
		}
		if entry.Message == nil {
			continue
		}

		text := strings.TrimSpace(entry.Message.textContent())
		if text == "" {
			continue
		}

		messages = append(messages, Message{
			Role: entry.Message.Role,
			Text: text,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// ConversationText renders messages as "[USER]:" / "[ASSISTANT]:" lines.
// When the result exceeds maxChars the oldest turns are dropped so the
// tail of the conversation survives. maxChars <= 0 means no cap.
func ConversationText(messages []Message, maxChars int) string {
	lines := make([]string, 0, len(messages))
	total := 0
	for _, m := range messages {
		tag := "[USER]"
		if m.Role == "assistant" {
			tag = "[ASSISTANT]"
		}
		line := tag + ": " + m.Text
		lines = append(lines, line)
		total += len(line) + 1
	}

	if maxChars <= 0 || total <= maxChars {
		return strings.Join(lines, "\n")
	}

	// Drop whole turns from the front until the remainder fits.
	for i := 0; i < len(lines); i++ {
		total -= len(lines[i]) + 1
		if total <= maxChars {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return ""
}

// UserTexts returns just the user-side turns, most recent last.
func UserTexts(messages []Message) []string {
	var out []string
	for _, m := range messages {
		if m.Role == "user" {
			out = append(out, m.Text)
		}
	}
	return out
}
