// internal/studio/history.go
package studio

import "github.com/merchstudio/photostudio-backend/internal/models"

// HistoryLimit caps how many canvas states a session retains. When the
// limit is exceeded the oldest entry is evicted.
const HistoryLimit = 50

// History is the bounded undo/redo stack of one session. The pointer sits
// on the entry that is currently on the canvas; pushing while the pointer
// is in the middle of the stack discards the redo branch.
type History struct {
	states  []models.Layer
	current int
}

func NewHistory() *History {
	return &History{current: -1}
}

// Push records a new canvas state. Entries past the pointer are truncated
// first; if the stack then outgrows the limit, the oldest entry is dropped
// and the pointer shifts down with it.
func (h *History) Push(layer models.Layer) {
	h.states = append(h.states[:h.current+1], layer)
	h.current++

	if len(h.states) > HistoryLimit {
		h.states = h.states[1:]
		h.current--
	}
}

// Undo steps the pointer back and returns the entry it lands on. At the
// bottom of the stack it is a no-op.
func (h *History) Undo() (models.Layer, bool) {
	if !h.CanUndo() {
		return models.Layer{}, false
	}
	h.current--
	return h.states[h.current], true
}

// Redo steps the pointer forward and returns the entry it lands on. At the
// top of the stack it is a no-op.
func (h *History) Redo() (models.Layer, bool) {
	if !h.CanRedo() {
		return models.Layer{}, false
	}
	h.current++
	return h.states[h.current], true
}

func (h *History) CanUndo() bool {
	return h.current > 0
}

func (h *History) CanRedo() bool {
	return h.current < len(h.states)-1
}

// Current returns the entry under the pointer.
func (h *History) Current() (models.Layer, bool) {
	if h.current < 0 {
		return models.Layer{}, false
	}
	return h.states[h.current], true
}

func (h *History) Len() int {
	return len(h.states)
}

// Reset drops the whole stack, releasing the retained canvas states.
func (h *History) Reset() {
	h.states = nil
	h.current = -1
}
