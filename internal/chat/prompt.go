package chat

import (
	"fmt"
	"strings"
)

// HistoryWindow is how many trailing history entries reach the prompt.
const HistoryWindow = 5

const persona = "You are a helpful AI learning assistant for SwiftCourse, an online learning platform focused on personal development, neurobiology, and growth mindset."

const guidance = "Please provide a helpful, accurate, and friendly response. If the question is about course content, use the knowledge base context provided. If you're not sure about something, be honest about it. Keep responses concise but informative."

// Turn is one entry of the chat transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// recent returns the last HistoryWindow turns.
func recent(history []Turn) []Turn {
	if len(history) > HistoryWindow {
		return history[len(history)-HistoryWindow:]
	}
	return history
}

// renderHistory writes one "User: ..." or "Assistant: ..." line per turn.
// Any role other than "user" is rendered as the assistant.
func renderHistory(history []Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range recent(history) {
		speaker := "Assistant"
		if t.Role == RoleUser {
			speaker = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, t.Content))
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt assembles the single prompt sent to the model.
func BuildPrompt(knowledge string, history []Turn, message string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nKNOWLEDGE BASE CONTEXT:\n")
	b.WriteString(knowledge)
	b.WriteString("\n\nCHAT HISTORY:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nCURRENT USER QUESTION:\n")
	b.WriteString(message)
	b.WriteString("\n\n")
	b.WriteString(guidance)
	return b.String()
}
