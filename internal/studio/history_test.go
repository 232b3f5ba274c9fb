// internal/studio/history_test.go
package studio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchstudio/photostudio-backend/internal/models"
)

func layerWithID(id string) models.Layer {
	return models.Layer{ImagePreview: models.ImagePreview{ID: id}}
}

func TestHistoryPushAndNavigate(t *testing.T) {
	h := NewHistory()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	h.Push(layerWithID("a"))
	assert.False(t, h.CanUndo(), "a single entry leaves nothing to undo")

	h.Push(layerWithID("b"))
	h.Push(layerWithID("c"))
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	layer, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "b", layer.ID)
	assert.True(t, h.CanRedo())

	layer, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, "a", layer.ID)
	assert.False(t, h.CanUndo())

	// At the bottom of the stack undo is a no-op.
	_, ok = h.Undo()
	assert.False(t, ok)
	current, _ := h.Current()
	assert.Equal(t, "a", current.ID)

	layer, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, "b", layer.ID)
}

func TestHistoryRedoAtTopIsNoOp(t *testing.T) {
	h := NewHistory()
	h.Push(layerWithID("a"))

	_, ok := h.Redo()
	assert.False(t, ok)
	current, _ := h.Current()
	assert.Equal(t, "a", current.ID)
}

func TestHistoryPushTruncatesRedoBranch(t *testing.T) {
	h := NewHistory()
	h.Push(layerWithID("a"))
	h.Push(layerWithID("b"))
	h.Push(layerWithID("c"))

	h.Undo()
	h.Undo()
	require.True(t, h.CanRedo())

	// A new edit from the middle of the stack discards the redo branch.
	h.Push(layerWithID("d"))

	assert.False(t, h.CanRedo())
	assert.Equal(t, 2, h.Len())

	layer, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "a", layer.ID)

	layer, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, "d", layer.ID)
}

func TestHistoryEvictsOldestPastLimit(t *testing.T) {
	h := NewHistory()
	for i := 0; i < HistoryLimit+5; i++ {
		h.Push(layerWithID(fmt.Sprintf("layer-%d", i)))
	}

	assert.Equal(t, HistoryLimit, h.Len())

	current, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("layer-%d", HistoryLimit+4), current.ID)

	// Walk all the way back: the oldest surviving entry is the first one
	// pushed after the evictions.
	steps := 0
	for h.CanUndo() {
		current, _ = h.Undo()
		steps++
	}
	assert.Equal(t, HistoryLimit-1, steps)
	assert.Equal(t, "layer-5", current.ID)
}

func TestHistoryEvictionKeepsPointerOnCurrent(t *testing.T) {
	h := NewHistory()
	for i := 0; i <= HistoryLimit; i++ {
		h.Push(layerWithID(fmt.Sprintf("layer-%d", i)))
	}

	// The eviction shifted every index down by one; undo must still land
	// on the entry pushed immediately before the newest.
	layer, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("layer-%d", HistoryLimit-1), layer.ID)
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory()
	h.Push(layerWithID("a"))
	h.Push(layerWithID("b"))

	h.Reset()

	assert.Zero(t, h.Len())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	_, ok := h.Current()
	assert.False(t, ok)
}
