package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookCoalescesChanges(t *testing.T) {
	ctx := context.Background()
	h := NewHook(newTestManager(t, nil))
	defer h.Close()

	h.MarkSectionComplete(ctx, "module-0", "summary")
	h.MarkSectionComplete(ctx, "module-0", "action-plan")
	h.SetCurrentPosition(ctx, "module-0", "action-plan")

	select {
	case <-h.Changes():
	default:
		t.Fatal("expected a pending change")
	}
	select {
	case <-h.Changes():
		t.Fatal("changes should coalesce into one signal")
	default:
	}

	assert.Equal(t, 6, h.OverallProgress())
}

func TestHookClose(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	h := NewHook(m)

	h.Close()
	h.Close()
	m.MarkSectionComplete(ctx, "module-0", "summary")

	select {
	case <-h.Changes():
		t.Fatal("closed hook should not receive changes")
	default:
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	m.MarkSectionComplete(ctx, "module-0", "about-swiftcourse")
	m.MarkSectionComplete(ctx, "module-0", "the-problem")
	m.SetCurrentPosition(ctx, "module-0", "the-problem")

	s := Summarize(m)
	assert.Equal(t, 6, s.Overall)
	assert.Len(t, s.Modules, 3)
	assert.Equal(t, 25, s.Modules[0].Progress)
	assert.Equal(t, 8, s.Modules[0].TotalSections)
	assert.Equal(t, []string{"about-swiftcourse", "the-problem"}, s.Modules[0].CompletedSections)
	if assert.NotNil(t, s.Next) {
		assert.Equal(t, Location{ModuleID: "module-0", SectionID: "our-solution"}, *s.Next)
	}

	m.SetCurrentPosition(ctx, "module-2", "module-assessment")
	assert.Nil(t, Summarize(m).Next)
}

func TestSummarizeIsConsistentUnderWrites(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			m.MarkSectionComplete(ctx, "module-0", "summary")
			m.MarkSectionComplete(ctx, "module-2", "limbic-friction")
			m.ResetProgress(ctx)
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		s := Summarize(m)
		completed, total := 0, 0
		for _, mod := range s.Modules {
			completed += len(mod.CompletedSections)
			total += mod.TotalSections
		}
		assert.Equal(t, percent(completed, total), s.Overall)
	}
}
