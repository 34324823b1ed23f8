package outline

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/swiftcourse/swiftcourse/internal/progress"
	"github.com/swiftcourse/swiftcourse/internal/screen"
	"github.com/swiftcourse/swiftcourse/internal/ui/components"
	"github.com/swiftcourse/swiftcourse/internal/ui/layout"
	"github.com/swiftcourse/swiftcourse/internal/ui/theme"
)

// OutlineScreen lists every module and section. The cursor moves over
// sections only; completion flags are read from the manager on every render.
type OutlineScreen struct {
	progress *progress.Manager
	rows     []progress.Location
	cursor   int
}

var _ screen.Screen = (*OutlineScreen)(nil)

// New creates an OutlineScreen with the cursor on the current position, or
// on the first section when no position is set.
func New(m *progress.Manager) *OutlineScreen {
	o := &OutlineScreen{progress: m}
	for _, mod := range m.CourseStructure().Modules {
		for _, sec := range mod.Sections {
			o.rows = append(o.rows, progress.Location{ModuleID: mod.ID, SectionID: sec.ID})
		}
	}
	pos := m.Position()
	o.moveTo(progress.Location{ModuleID: pos.ModuleID, SectionID: pos.SectionID})
	return o
}

func (o *OutlineScreen) moveTo(loc progress.Location) bool {
	for i, row := range o.rows {
		if row == loc {
			o.cursor = i
			return true
		}
	}
	return false
}

// Selected returns the section under the cursor.
func (o *OutlineScreen) Selected() (progress.Location, bool) {
	if o.cursor < 0 || o.cursor >= len(o.rows) {
		return progress.Location{}, false
	}
	return o.rows[o.cursor], true
}

func (o *OutlineScreen) Init() tea.Cmd {
	return nil
}

func (o *OutlineScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return o, nil
	}

	ctx := context.Background()
	switch kmsg.String() {
	case "up", "k":
		if o.cursor > 0 {
			o.cursor--
		}
	case "down", "j":
		if o.cursor < len(o.rows)-1 {
			o.cursor++
		}
	case "space", " ":
		if loc, ok := o.Selected(); ok {
			if o.isCompleted(loc) {
				o.progress.MarkSectionIncomplete(ctx, loc.ModuleID, loc.SectionID)
			} else {
				o.progress.MarkSectionComplete(ctx, loc.ModuleID, loc.SectionID)
			}
		}
	case "enter":
		if loc, ok := o.Selected(); ok {
			o.progress.SetCurrentPosition(ctx, loc.ModuleID, loc.SectionID)
		}
	case "n":
		if loc, ok := o.progress.NextSection(); ok {
			o.progress.SetCurrentPosition(ctx, loc.ModuleID, loc.SectionID)
			o.moveTo(loc)
		}
	}
	return o, nil
}

func (o *OutlineScreen) isCompleted(loc progress.Location) bool {
	sec := o.progress.CourseStructure().Section(loc.ModuleID, loc.SectionID)
	return sec != nil && sec.Completed
}

func (o *OutlineScreen) View(width, height int) string {
	cs := o.progress.CourseStructure()
	pos := o.progress.Position()
	cw := min(width-4, 76)

	var lines []string
	cursorLine := 0
	row := 0
	for _, mod := range cs.Modules {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, theme.Selected.Render(mod.Title))
		lines = append(lines, components.NewProgressBar("", o.progress.ModuleProgress(mod.ID), true, cw).View())

		for _, sec := range mod.Sections {
			mark := theme.Pending.Render("[ ]")
			if sec.Completed {
				mark = theme.Done.Render("[x]")
			}
			pointer := "  "
			title := theme.Unselected.Render(sec.Title)
			if row == o.cursor {
				pointer = theme.Selected.Render("▸ ")
				title = theme.Selected.Render(sec.Title)
				cursorLine = len(lines)
			}
			here := ""
			if pos.ModuleID == mod.ID && pos.SectionID == sec.ID {
				here = theme.Hint.Render("  ← you are here")
			}
			lines = append(lines, pointer+mark+" "+title+here)
			row++
		}
	}

	lines = window(lines, cursorLine, height)
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

// window returns at most height lines that keep line focus visible.
func window(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := focus - height/2
	start = max(start, 0)
	start = min(start, len(lines)-height)
	return lines[start : start+height]
}

func (o *OutlineScreen) Title() string {
	return "Course Outline"
}

func (o *OutlineScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "Space", Description: "Toggle done"},
		{Key: "Enter", Description: "Set position"},
		{Key: "n", Description: "Next section"},
		{Key: "Esc", Description: "Back"},
	}
}
