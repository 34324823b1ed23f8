package progress

// ModuleSummary is the per-module view of progress.
type ModuleSummary struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Progress          int      `json:"progress"`
	Completed         bool     `json:"completed"`
	CompletedSections []string `json:"completedSections"`
	TotalSections     int      `json:"totalSections"`
}

// Summary is a point-in-time view of all progress, shared by the API,
// the event stream and the CLI.
type Summary struct {
	Overall          int             `json:"overall"`
	CompletedModules int             `json:"completedModules"`
	Modules          []ModuleSummary `json:"modules"`
	Position         Position        `json:"position"`
	Next             *Location       `json:"next,omitempty"`
}

// Summarize collects a consistent Summary from m.
func Summarize(m *Manager) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summaryLocked()
}

// summaryLocked builds the summary from one view of the table. Callers hold mu.
func (m *Manager) summaryLocked() Summary {
	s := Summary{
		Overall:          m.overallLocked(),
		CompletedModules: m.completedModulesLocked(),
		Modules:          make([]ModuleSummary, 0, len(m.structure.Modules)),
		Position:         m.position,
	}
	for i := range m.structure.Modules {
		mod := &m.structure.Modules[i]
		s.Modules = append(s.Modules, ModuleSummary{
			ID:                mod.ID,
			Title:             mod.Title,
			Progress:          percent(mod.CompletedCount(), len(mod.Sections)),
			Completed:         moduleDone(mod),
			CompletedSections: completedIDs(mod),
			TotalSections:     len(mod.Sections),
		})
	}
	if next, ok := m.nextLocked(); ok {
		s.Next = &next
	}
	return s
}
