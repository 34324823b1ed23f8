package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/progress"
	"github.com/swiftcourse/swiftcourse/internal/router"
	"github.com/swiftcourse/swiftcourse/internal/screen"
	chatscreen "github.com/swiftcourse/swiftcourse/internal/screens/chat"
	"github.com/swiftcourse/swiftcourse/internal/screens/outline"
	"github.com/swiftcourse/swiftcourse/internal/ui/components"
	"github.com/swiftcourse/swiftcourse/internal/ui/layout"
	"github.com/swiftcourse/swiftcourse/internal/ui/theme"
)

// Menu labels, in display order.
const (
	LabelContinue = "Continue"
	LabelOutline  = "Course Outline"
	LabelChat     = "Ask the AI Assistant"
	LabelReset    = "Reset Progress"
	LabelExit     = "Exit"
)

// HomeScreen shows overall progress and the main menu. Values are read from
// the manager on every render.
type HomeScreen struct {
	progress   *progress.Manager
	menu       components.Menu
	confirming bool
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a HomeScreen. svc may be nil, which disables the assistant.
func New(m *progress.Manager, svc *chat.Service) *HomeScreen {
	h := &HomeScreen{progress: m}

	items := []components.MenuItem{
		{Label: LabelContinue, Action: h.continueCourse},
		{Label: LabelOutline, Action: func() tea.Cmd {
			return push(outline.New(m))
		}},
		{Label: LabelChat, Disabled: svc == nil, Action: func() tea.Cmd {
			return push(chatscreen.New(svc))
		}},
		{Label: LabelReset, Action: func() tea.Cmd {
			h.confirming = true
			return nil
		}},
		{Label: LabelExit, Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: s}
	}
}

// continueCourse moves the position to the next section and opens the
// outline on it. At the end of the course it just opens the outline.
func (h *HomeScreen) continueCourse() tea.Cmd {
	if loc, ok := h.progress.NextSection(); ok {
		h.progress.SetCurrentPosition(context.Background(), loc.ModuleID, loc.SectionID)
	}
	return push(outline.New(h.progress))
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if h.confirming {
		if kmsg, ok := msg.(tea.KeyPressMsg); ok {
			if kmsg.String() == "y" {
				h.progress.ResetProgress(context.Background())
			}
			h.confirming = false
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-4, 72)
	sum := progress.Summarize(h.progress)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Your Learning Journey"))
	b.WriteString("\n\n")
	b.WriteString(components.NewProgressBar("Overall", sum.Overall, true, cw).View())
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(
		fmt.Sprintf("%d of %d modules complete", sum.CompletedModules, len(sum.Modules))))
	b.WriteString("\n\n")

	if sum.Next != nil {
		b.WriteString(theme.Body.Render("Up next: " + h.sectionTitle(sum.Next.ModuleID, sum.Next.SectionID)))
	} else {
		b.WriteString(theme.Done.Render("You have reached the end of the course."))
	}
	b.WriteString("\n\n")

	if h.confirming {
		b.WriteString(theme.Failure.Render("Reset all progress? Press y to confirm, any other key to cancel."))
	} else {
		b.WriteString(h.menu.View())
	}

	card := theme.Card.Width(cw + 6).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func (h *HomeScreen) sectionTitle(moduleID, sectionID string) string {
	cs := h.progress.CourseStructure()
	mod := cs.Module(moduleID)
	if mod == nil {
		return sectionID
	}
	if sec := cs.Section(moduleID, sectionID); sec != nil {
		return mod.Title + " › " + sec.Title
	}
	return mod.Title
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
