package hub

import (
	"sync"

	"easel/internal/canvas"
)

// One isolated collaboration session: its participants and its board.
// Participants are mutated only on the hub's run loop; the lock lets the
// stats endpoints read counts from other goroutines.
type Room struct {
	id    string
	board *canvas.Board

	mu           sync.RWMutex
	participants map[Conn]struct{}
}

func newRoom(id string) *Room {
	return &Room{
		id:           id,
		board:        canvas.NewBoard(),
		participants: make(map[Conn]struct{}),
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) Board() *canvas.Board { return r.board }

// add registers a participant and returns the new count.
func (r *Room) add(c Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[c] = struct{}{}
	return len(r.participants)
}

// remove drops a participant and returns the remaining count.
func (r *Room) remove(c Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, c)
	return len(r.participants)
}

func (r *Room) ParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// conns returns a stable snapshot of the participant set for fan-out.
func (r *Room) conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.participants))
	for c := range r.participants {
		out = append(out, c)
	}
	return out
}
