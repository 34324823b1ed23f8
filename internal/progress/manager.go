package progress

import (
	"context"
	"maps"
	"math"
	"sync"

	"github.com/swiftcourse/swiftcourse/internal/course"
	"github.com/swiftcourse/swiftcourse/internal/logger"
)

// Location addresses a single section.
type Location struct {
	ModuleID  string `json:"moduleId"`
	SectionID string `json:"sectionId"`
}

// listener is a registered change callback.
type listener struct {
	id uint64
	fn func()
}

// Manager is the single authority over learner progress. It owns the course
// table, the current position and quiz results; every mutation is persisted
// and then announced to subscribers.
//
// Listeners are called synchronously, in registration order, after the
// manager's lock is released, so they may call back into the manager.
type Manager struct {
	mu        sync.RWMutex
	structure *course.Structure
	position  Position
	quiz      QuizResults
	store     *Store

	listenersMu sync.Mutex
	listeners   []listener
	nextID      uint64

	log *logger.Logger
}

// NewManager takes ownership of structure and overlays any persisted
// progress onto it. Persisted ids that no longer exist are ignored.
func NewManager(ctx context.Context, structure *course.Structure, st *Store, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	if st == nil {
		st = NewStore(nil, log)
	}
	m := &Manager{
		structure: structure,
		quiz:      QuizResults{},
		store:     st,
		log:       log.With("component", "ProgressManager"),
	}
	m.init(ctx)
	return m
}

func (m *Manager) init(ctx context.Context) {
	if !m.store.Available() {
		return
	}

	snap := m.store.Load(ctx)
	if !snap.Empty() {
		merge(m.structure, snap)
		m.quiz = m.store.LoadQuizResults(ctx)
	} else if lp, ok := m.store.loadLegacy(ctx); ok {
		m.quiz = applyLegacy(lp, m.structure)
		m.store.Save(ctx, m.snapshotLocked())
		m.store.SaveQuizResults(ctx, m.quiz)
		m.log.Info("Migrated legacy progress", "modules", len(lp.Modules))
	}

	m.position = m.store.LoadPosition(ctx)
}

// merge copies completion flags from snap onto structure by id lookup.
func merge(structure *course.Structure, snap Snapshot) {
	for _, saved := range snap.Modules {
		m := structure.Module(saved.ID)
		if m == nil {
			continue
		}
		for _, sec := range saved.Sections {
			if i := m.SectionIndex(sec.ID); i >= 0 {
				m.Sections[i].Completed = sec.Completed
			}
		}
	}
}

// MarkSectionComplete marks a section complete. Unknown ids are ignored and
// reported by a false return; nothing is persisted or announced for them.
func (m *Manager) MarkSectionComplete(ctx context.Context, moduleID, sectionID string) bool {
	return m.setCompleted(ctx, moduleID, sectionID, true)
}

// MarkSectionIncomplete clears a section's completion flag.
func (m *Manager) MarkSectionIncomplete(ctx context.Context, moduleID, sectionID string) bool {
	return m.setCompleted(ctx, moduleID, sectionID, false)
}

func (m *Manager) setCompleted(ctx context.Context, moduleID, sectionID string, completed bool) bool {
	m.mu.Lock()
	sec := m.structure.Section(moduleID, sectionID)
	if sec == nil {
		m.mu.Unlock()
		m.log.Debug("Ignoring unknown section", "moduleId", moduleID, "sectionId", sectionID)
		return false
	}
	sec.Completed = completed
	m.store.Save(ctx, m.snapshotLocked())
	m.mu.Unlock()

	m.notify()
	return true
}

// SetCurrentPosition records the learner's location. Ids are not validated.
func (m *Manager) SetCurrentPosition(ctx context.Context, moduleID, sectionID string) {
	m.mu.Lock()
	m.position = Position{ModuleID: moduleID, SectionID: sectionID}
	m.store.SavePosition(ctx, m.position)
	m.mu.Unlock()

	m.notify()
}

// Position returns the current position.
func (m *Manager) Position() Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// ModuleProgress returns the module's completion percentage, or 0 for an
// unknown module.
func (m *Manager) ModuleProgress(moduleID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mod := m.structure.Module(moduleID)
	if mod == nil {
		return 0
	}
	return percent(mod.CompletedCount(), len(mod.Sections))
}

// OverallProgress returns the completion percentage across every section.
func (m *Manager) OverallProgress() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.overallLocked()
}

func (m *Manager) overallLocked() int {
	completed, total := 0, 0
	for i := range m.structure.Modules {
		completed += m.structure.Modules[i].CompletedCount()
		total += len(m.structure.Modules[i].Sections)
	}
	return percent(completed, total)
}

// CompletedSections returns completed section ids in authoring order.
func (m *Manager) CompletedSections(moduleID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return completedIDs(m.structure.Module(moduleID))
}

func completedIDs(mod *course.Module) []string {
	ids := []string{}
	if mod == nil {
		return ids
	}
	for _, sec := range mod.Sections {
		if sec.Completed {
			ids = append(ids, sec.ID)
		}
	}
	return ids
}

// ModuleComplete reports whether every section of the module is complete.
func (m *Manager) ModuleComplete(moduleID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return moduleDone(m.structure.Module(moduleID))
}

func moduleDone(mod *course.Module) bool {
	return mod != nil && len(mod.Sections) > 0 && mod.CompletedCount() == len(mod.Sections)
}

// CompletedModules counts fully completed modules.
func (m *Manager) CompletedModules() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.completedModulesLocked()
}

func (m *Manager) completedModulesLocked() int {
	n := 0
	for i := range m.structure.Modules {
		if moduleDone(&m.structure.Modules[i]) {
			n++
		}
	}
	return n
}

// NextSection returns the section after the current position. After a
// module's last section it moves to the first section of the next module;
// after the last module it returns false. With no position (or an unknown
// current module) the course starts from the first module.
func (m *Manager) NextSection() (Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextLocked()
}

func (m *Manager) nextLocked() (Location, bool) {
	modules := m.structure.Modules
	mi := m.structure.ModuleIndex(m.position.ModuleID)

	if mi >= 0 {
		cur := &modules[mi]
		si := cur.SectionIndex(m.position.SectionID)
		if si < len(cur.Sections)-1 {
			return Location{ModuleID: cur.ID, SectionID: cur.Sections[si+1].ID}, true
		}
	}

	if mi < len(modules)-1 {
		next := &modules[mi+1]
		if len(next.Sections) == 0 {
			return Location{}, false
		}
		return Location{ModuleID: next.ID, SectionID: next.Sections[0].ID}, true
	}

	return Location{}, false
}

// ResetProgress clears every completion flag, the position and quiz
// results, deletes persisted progress and notifies subscribers. Without a
// storage backend it still resets the in-memory state, like every other
// mutation.
func (m *Manager) ResetProgress(ctx context.Context) {
	m.mu.Lock()
	for i := range m.structure.Modules {
		for j := range m.structure.Modules[i].Sections {
			m.structure.Modules[i].Sections[j].Completed = false
		}
	}
	m.position = Position{}
	m.quiz = QuizResults{}
	m.store.Clear(ctx)
	m.mu.Unlock()

	m.notify()
}

// SaveQuizResults records quiz results for a module, replacing earlier ones.
func (m *Manager) SaveQuizResults(ctx context.Context, moduleID string, results map[string]any) {
	m.mu.Lock()
	m.quiz[moduleID] = maps.Clone(results)
	m.store.SaveQuizResults(ctx, m.quiz)
	m.mu.Unlock()

	m.notify()
}

// QuizResults returns a copy of the module's quiz results, or nil.
func (m *Manager) QuizResults(moduleID string) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.quiz[moduleID])
}

// CourseStructure returns a copy of the course table with current flags.
func (m *Manager) CourseStructure() *course.Structure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.structure.Clone()
}

// Subscribe registers fn to be called after every change. The returned
// function removes exactly this registration; calling it again is a no-op.
func (m *Manager) Subscribe(fn func()) (unsubscribe func()) {
	m.listenersMu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			defer m.listenersMu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Manager) notify() {
	m.listenersMu.Lock()
	listeners := make([]listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.Unlock()

	for _, l := range listeners {
		l.fn()
	}
}

// snapshotLocked builds a snapshot of the current table. Callers hold mu.
func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{Version: SnapshotVersion, Modules: m.structure.Clone().Modules}
}

// percent rounds half up, matching the web client's Math.round.
func percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(completed)/float64(total) + 0.5))
}
