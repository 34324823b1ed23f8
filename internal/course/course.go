package course

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed course.yaml
var defaultTable []byte

// Section is the smallest trackable unit of course content.
type Section struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	Completed bool   `yaml:"completed" json:"completed"`
}

// Module is a top-level course unit. Section order defines traversal order.
type Module struct {
	ID       string    `yaml:"id" json:"id"`
	Title    string    `yaml:"title" json:"title"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Structure is the full ordered course table.
type Structure struct {
	Modules []Module `yaml:"modules" json:"modules"`
}

// Default returns a fresh copy of the built-in SwiftCourse table with every
// section incomplete.
func Default() (*Structure, error) {
	return Parse(defaultTable)
}

// MustDefault is Default for package-level initialization and tests.
func MustDefault() *Structure {
	s, err := Default()
	if err != nil {
		panic(err)
	}
	return s
}

// Parse decodes and validates an authored course table.
func Parse(data []byte) (*Structure, error) {
	var s Structure
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode course table: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Module returns the module with the given id, or nil.
func (s *Structure) Module(id string) *Module {
	if i := s.ModuleIndex(id); i >= 0 {
		return &s.Modules[i]
	}
	return nil
}

// ModuleIndex returns the position of the module in authoring order, or -1.
func (s *Structure) ModuleIndex(id string) int {
	for i := range s.Modules {
		if s.Modules[i].ID == id {
			return i
		}
	}
	return -1
}

// Section returns the section addressed by module and section id, or nil.
func (s *Structure) Section(moduleID, sectionID string) *Section {
	m := s.Module(moduleID)
	if m == nil {
		return nil
	}
	if i := m.SectionIndex(sectionID); i >= 0 {
		return &m.Sections[i]
	}
	return nil
}

// TotalSections counts sections across all modules.
func (s *Structure) TotalSections() int {
	n := 0
	for i := range s.Modules {
		n += len(s.Modules[i].Sections)
	}
	return n
}

// Clone returns a deep copy.
func (s *Structure) Clone() *Structure {
	out := &Structure{Modules: make([]Module, len(s.Modules))}
	for i, m := range s.Modules {
		out.Modules[i] = Module{
			ID:       m.ID,
			Title:    m.Title,
			Sections: append([]Section(nil), m.Sections...),
		}
	}
	return out
}

// SectionIndex returns the position of the section within the module, or -1.
func (m *Module) SectionIndex(id string) int {
	for i := range m.Sections {
		if m.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

// CompletedCount returns how many sections are marked complete.
func (m *Module) CompletedCount() int {
	n := 0
	for _, sec := range m.Sections {
		if sec.Completed {
			n++
		}
	}
	return n
}
