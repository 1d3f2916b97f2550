package canvas

import (
	"sync"
)

// The authoritative drawing state for one room: the strokes currently on
// the canvas plus the strokes removed by undo. Mutations happen only on
// the hub's run loop; the lock exists so stats readers can take snapshots
// from other goroutines.
type Board struct {
	mu      sync.RWMutex
	history []Stroke
	redo    []Stroke
}

func NewBoard() *Board {
	return &Board{
		history: make([]Stroke, 0),
		redo:    make([]Stroke, 0),
	}
}

// Appends a brand-new stroke and discards the redo buffer; once a new
// edit lands, previously undone strokes are unreachable.
func (b *Board) Draw(s Stroke) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, s)
	b.redo = b.redo[:0]
}

// Moves the most recent stroke onto the redo buffer. Returns false on an
// empty history, which is a no-op rather than an error.
func (b *Board) Undo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.history) == 0 {
		return false
	}
	last := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	b.redo = append(b.redo, last)
	return true
}

// Moves the most recently undone stroke back onto the history tail.
// Returns false on an empty redo buffer.
func (b *Board) Redo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.redo) == 0 {
		return false
	}
	last := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]
	b.history = append(b.history, last)
	return true
}

// Empties both sequences unconditionally.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = b.history[:0]
	b.redo = b.redo[:0]
}

// Returns a copy of the strokes currently on the canvas, oldest first.
// Never nil, so it marshals as a JSON array.
func (b *Board) History() []Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Stroke, len(b.history))
	copy(out, b.history)
	return out
}

// Returns a copy of the redo buffer with the most recently undone stroke
// last. Never nil.
func (b *Board) RedoStack() []Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Stroke, len(b.redo))
	copy(out, b.redo)
	return out
}

func (b *Board) StrokeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.history)
}
