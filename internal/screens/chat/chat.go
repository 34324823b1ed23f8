package chat

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/screen"
	"github.com/swiftcourse/swiftcourse/internal/ui/components"
	"github.com/swiftcourse/swiftcourse/internal/ui/layout"
	"github.com/swiftcourse/swiftcourse/internal/ui/theme"
)

const greeting = "Hi! Ask me anything about the course: goal setting, stress, growth mindset, learning habits."

// replyMsg carries the outcome of one assistant request.
type replyMsg struct {
	Text string
	Err  error
}

// ChatScreen is a transcript plus an input line. Each question is sent with
// the turns before it.
type ChatScreen struct {
	svc        *chat.Service
	transcript []chat.Turn
	input      components.TextInput
	waiting    bool
	failure    string
}

var _ screen.Screen = (*ChatScreen)(nil)

// New creates a ChatScreen backed by svc.
func New(svc *chat.Service) *ChatScreen {
	return &ChatScreen{
		svc:   svc,
		input: components.NewTextInput("Type a question and press Enter", 2000),
	}
}

// Transcript returns the turns exchanged so far.
func (c *ChatScreen) Transcript() []chat.Turn {
	return c.transcript
}

func (c *ChatScreen) Init() tea.Cmd {
	return c.input.Init()
}

func (c *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		c.waiting = false
		if msg.Err != nil {
			c.failure = chat.FailedMessage
			if errors.Is(msg.Err, chat.ErrNotConfigured) {
				c.failure = chat.NotConfiguredMessage
			}
			return c, nil
		}
		c.transcript = append(c.transcript, chat.Turn{Role: chat.RoleAssistant, Content: msg.Text})
		return c, nil

	case tea.KeyPressMsg:
		if msg.String() == "enter" {
			return c, c.send()
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// send submits the input. It is a no-op while a reply is pending or when the
// input is blank.
func (c *ChatScreen) send() tea.Cmd {
	text := strings.TrimSpace(c.input.Value())
	if c.waiting || text == "" {
		return nil
	}

	history := append([]chat.Turn(nil), c.transcript...)
	c.transcript = append(c.transcript, chat.Turn{Role: chat.RoleUser, Content: text})
	c.input.Reset()
	c.waiting = true
	c.failure = ""

	svc := c.svc
	return func() tea.Msg {
		if svc == nil {
			return replyMsg{Err: chat.ErrNotConfigured}
		}
		reply, err := svc.Reply(context.Background(), chat.Request{Message: text, History: history})
		return replyMsg{Text: reply, Err: err}
	}
}

func (c *ChatScreen) View(width, height int) string {
	cw := max(width-6, 20)
	wrap := lipgloss.NewStyle().Width(cw)

	var lines []string
	if len(c.transcript) == 0 {
		lines = append(lines, theme.Hint.Render(greeting), "")
	}
	for _, turn := range c.transcript {
		label := theme.AssistantLabel.Render("Assistant")
		if turn.Role == chat.RoleUser {
			label = theme.LearnerLabel.Render("You")
		}
		lines = append(lines, label, wrap.Render(theme.Body.Render(turn.Content)), "")
	}
	if c.waiting {
		lines = append(lines, theme.Hint.Render("Thinking..."), "")
	}
	if c.failure != "" {
		lines = append(lines, theme.Failure.Render(c.failure), "")
	}

	c.input.SetWidth(cw - 2)
	inputView := c.input.View()

	body := strings.Split(strings.Join(lines, "\n"), "\n")
	if avail := height - 2; avail > 0 && len(body) > avail {
		body = body[len(body)-avail:]
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(body, "\n") + "\n" + inputView)
}

func (c *ChatScreen) Title() string {
	return "AI Assistant"
}

func (c *ChatScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
