package progress

import "sync"

// Hook binds a UI layer to a Manager. It embeds the manager so consumers
// call reads and writes directly, and turns every notification into a
// pending signal on Changes. Signals coalesce: a consumer that falls behind
// sees one signal for any number of changes and then reads current state.
type Hook struct {
	*Manager

	changes     chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

// NewHook subscribes to m. Call Close when the consumer goes away.
func NewHook(m *Manager) *Hook {
	h := &Hook{
		Manager: m,
		changes: make(chan struct{}, 1),
	}
	h.unsubscribe = m.Subscribe(h.signal)
	return h
}

func (h *Hook) signal() {
	select {
	case h.changes <- struct{}{}:
	default:
	}
}

// Changes delivers a value after one or more changes.
func (h *Hook) Changes() <-chan struct{} {
	return h.changes
}

// Close unsubscribes from the manager. It is safe to call more than once.
func (h *Hook) Close() {
	h.closeOnce.Do(h.unsubscribe)
}
