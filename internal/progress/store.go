package progress

import (
	"context"
	"encoding/json"

	"github.com/swiftcourse/swiftcourse/internal/course"
	"github.com/swiftcourse/swiftcourse/internal/logger"
	"github.com/swiftcourse/swiftcourse/internal/store"
)

// Storage keys. These are read back from existing learner data and must
// stay stable across releases.
const (
	ProgressKey    = "swiftcourse_progress"
	PositionKey    = "swiftcourse_position"
	QuizResultsKey = "swiftcourse_quiz_results"

	legacyProgressKey = "swiftcourse-global-progress"
)

// legacyModuleKeys predate the global progress key and are only ever deleted.
var legacyModuleKeys = []string{"module-0-progress", "module-1-progress"}

// SnapshotVersion is written into every saved snapshot.
const SnapshotVersion = 1

// Snapshot is the persisted form of the course table: completion flags keyed
// by module and section id.
type Snapshot struct {
	Version int             `json:"version,omitempty"`
	Modules []course.Module `json:"modules"`
}

// Empty reports whether the snapshot carries no modules.
func (s Snapshot) Empty() bool {
	return len(s.Modules) == 0
}

// Position is the learner's last-viewed location. Empty ids mean unset.
type Position struct {
	ModuleID  string `json:"moduleId"`
	SectionID string `json:"sectionId"`
}

// IsSet reports whether a position has been recorded.
func (p Position) IsSet() bool {
	return p.ModuleID != "" || p.SectionID != ""
}

// QuizResults maps module id to the raw results recorded for that module.
type QuizResults map[string]map[string]any

// Store reads and writes learner progress under fixed keys. It never returns
// errors: absent, corrupted or unreachable storage degrades to defaults and
// is logged.
type Store struct {
	kv  store.KV
	log *logger.Logger
}

// NewStore wraps kv. A nil kv means no persistent storage is available;
// loads return defaults and writes are dropped.
func NewStore(kv store.KV, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{kv: kv, log: log.With("component", "ProgressStore")}
}

// Available reports whether a storage backend is attached.
func (s *Store) Available() bool {
	return s != nil && s.kv != nil
}

// Load returns the saved snapshot, or an empty snapshot.
func (s *Store) Load(ctx context.Context) Snapshot {
	var snap Snapshot
	if !s.read(ctx, ProgressKey, &snap) {
		return Snapshot{}
	}
	return snap
}

// Save writes the snapshot.
func (s *Store) Save(ctx context.Context, snap Snapshot) {
	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}
	s.write(ctx, ProgressKey, snap)
}

// LoadPosition returns the saved position, or an unset position.
func (s *Store) LoadPosition(ctx context.Context) Position {
	var pos Position
	if !s.read(ctx, PositionKey, &pos) {
		return Position{}
	}
	return pos
}

// SavePosition writes the position record.
func (s *Store) SavePosition(ctx context.Context, pos Position) {
	s.write(ctx, PositionKey, pos)
}

// LoadQuizResults returns saved quiz results, or an empty map.
func (s *Store) LoadQuizResults(ctx context.Context) QuizResults {
	results := QuizResults{}
	if !s.read(ctx, QuizResultsKey, &results) || results == nil {
		return QuizResults{}
	}
	return results
}

// SaveQuizResults writes all quiz results.
func (s *Store) SaveQuizResults(ctx context.Context, results QuizResults) {
	s.write(ctx, QuizResultsKey, results)
}

// Clear deletes every progress key, including legacy ones.
func (s *Store) Clear(ctx context.Context) {
	if !s.Available() {
		return
	}
	keys := append([]string{ProgressKey, PositionKey, QuizResultsKey, legacyProgressKey}, legacyModuleKeys...)
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.log.Warn("Failed to clear progress key", "key", key, "error", err)
		}
	}
}

// read decodes key into v. It returns false when the key is absent,
// unreadable or corrupted.
func (s *Store) read(ctx context.Context, key string, v any) bool {
	if !s.Available() {
		return false
	}
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("Failed to load progress", "key", key, "error", err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.log.Warn("Discarding corrupted progress entry", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, key string, v any) {
	if !s.Available() {
		s.log.Debug("No progress storage attached, dropping write", "key", key)
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("Failed to encode progress", "key", key, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		s.log.Warn("Failed to save progress", "key", key, "error", err)
	}
}
