package progress

import (
	"context"

	"github.com/swiftcourse/swiftcourse/internal/course"
)

// legacyProgress is the older index-keyed format written under
// swiftcourse-global-progress (version "1.0").
type legacyProgress struct {
	Modules map[string]legacyModule `json:"modules"`
	Version string                  `json:"version"`
}

type legacyModule struct {
	CompletedSections []int          `json:"completedSections"`
	CurrentSection    int            `json:"currentSection"`
	QuizResults       map[string]any `json:"quizResults,omitempty"`
	LastUpdated       string         `json:"lastUpdated"`
}

// loadLegacy returns data saved in the index-keyed format, if any.
func (s *Store) loadLegacy(ctx context.Context) (legacyProgress, bool) {
	var lp legacyProgress
	if !s.read(ctx, legacyProgressKey, &lp) || len(lp.Modules) == 0 {
		return legacyProgress{}, false
	}
	return lp, true
}

// applyLegacy converts section indices to ids of the given table and sets
// completion flags on it. Out-of-range indices and unknown modules are
// ignored. Quiz results found in the legacy data are returned.
func applyLegacy(lp legacyProgress, structure *course.Structure) QuizResults {
	quiz := QuizResults{}
	for moduleID, lm := range lp.Modules {
		m := structure.Module(moduleID)
		if m == nil {
			continue
		}
		for _, idx := range lm.CompletedSections {
			if idx >= 0 && idx < len(m.Sections) {
				m.Sections[idx].Completed = true
			}
		}
		if len(lm.QuizResults) > 0 {
			quiz[moduleID] = lm.QuizResults
		}
	}
	return quiz
}
