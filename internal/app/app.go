package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/progress"
	"github.com/swiftcourse/swiftcourse/internal/router"
	"github.com/swiftcourse/swiftcourse/internal/screen"
	"github.com/swiftcourse/swiftcourse/internal/screens/home"
	"github.com/swiftcourse/swiftcourse/internal/screens/welcome"
	"github.com/swiftcourse/swiftcourse/internal/ui/layout"
)

const tagline = "Learn how you learn."

// progressChangedMsg is delivered after every progress mutation.
type progressChangedMsg struct{}

// Options holds dependencies for the TUI.
type Options struct {
	Progress *progress.Manager
	Chat     *chat.Service
	// SkipWelcome starts directly on the home screen.
	SkipWelcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	progress *progress.Manager
	hook     *progress.Hook
	width    int
	height   int
}

// newAppModel creates an AppModel starting on the welcome screen, or on
// home when opts.SkipWelcome is set.
func newAppModel(opts Options) AppModel {
	homeFactory := func() screen.Screen {
		return home.New(opts.Progress, opts.Chat)
	}

	var first screen.Screen
	if opts.SkipWelcome {
		first = homeFactory()
	} else {
		first = welcome.New(homeFactory, tagline)
	}

	return AppModel{
		router:   router.New(first),
		progress: opts.Progress,
		hook:     progress.NewHook(opts.Progress),
	}
}

// waitForChange blocks until the manager reports a change.
func (m AppModel) waitForChange() tea.Cmd {
	changes := m.hook.Changes()
	return func() tea.Msg {
		<-changes
		return progressChangedMsg{}
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.waitForChange())
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case progressChangedMsg:
		// Screens read from the manager when rendering; re-arm and redraw.
		return m, m.waitForChange()

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current terminal size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.progress.OverallProgress(), m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "Any key", Description: "Continue"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	model := newAppModel(opts)
	defer model.hook.Close()

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
