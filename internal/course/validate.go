package course

import (
	"fmt"
	"strings"
)

// Validate performs structural checks on a course table and reports every
// problem found in a single error.
func Validate(s *Structure) error {
	var errs []string

	if len(s.Modules) == 0 {
		errs = append(errs, "course has no modules")
	}

	moduleIDs := make(map[string]bool, len(s.Modules))
	for i, m := range s.Modules {
		if m.ID == "" {
			errs = append(errs, fmt.Sprintf("module %d has an empty id", i))
		} else if moduleIDs[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module ID: %q", m.ID))
		}
		moduleIDs[m.ID] = true

		if len(m.Sections) == 0 {
			errs = append(errs, fmt.Sprintf("module %q has no sections", m.ID))
		}

		sectionIDs := make(map[string]bool, len(m.Sections))
		for j, sec := range m.Sections {
			if sec.ID == "" {
				errs = append(errs, fmt.Sprintf("module %q section %d has an empty id", m.ID, j))
				continue
			}
			if sectionIDs[sec.ID] {
				errs = append(errs, fmt.Sprintf("module %q has duplicate section ID: %q", m.ID, sec.ID))
			}
			sectionIDs[sec.ID] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("course table validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
