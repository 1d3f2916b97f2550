package hub

import (
	"context"
	"log/slog"

	"easel/internal/protocol"
)

// Relay-side state of one connection. A connection starts unbound and is
// bound to exactly one room by its first valid join; the binding is fixed
// for the connection's lifetime.
type sessionState int

const (
	stateUnbound sessionState = iota
	stateBound
)

type session struct {
	state  sessionState
	roomID string
}

// One inbound wire frame paired with its sender.
type frame struct {
	sender Conn
	data   []byte
}

// Hub serializes every room mutation through a single run loop: the order
// frames are taken off the channel is the total order all participants of
// a room observe. No operation inside the loop blocks on a remote peer,
// so no locking is needed around session or board mutation.
type Hub struct {
	registry *Registry

	register   chan Conn
	unregister chan Conn
	frames     chan frame

	// Owned exclusively by the run loop.
	sessions map[Conn]*session
}

func New(registry *Registry) *Hub {
	return &Hub{
		registry:   registry,
		register:   make(chan Conn),
		unregister: make(chan Conn),
		frames:     make(chan frame),
		sessions:   make(map[Conn]*session),
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// Register hands a newly accepted connection to the run loop.
func (h *Hub) Register(c Conn) { h.register <- c }

// Unregister reports a closed connection. This is the only path that
// removes a participant from its room and tears down empty rooms.
func (h *Hub) Unregister(c Conn) { h.unregister <- c }

// Dispatch queues one inbound frame. Frames are applied in arrival order
// across all connections and all rooms.
func (h *Hub) Dispatch(c Conn, data []byte) {
	h.frames <- frame{sender: c, data: data}
}

// Run drives the relay until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.attach(c)
		case c := <-h.unregister:
			h.detach(c)
		case f := <-h.frames:
			h.handle(f.sender, f.data)
		}
	}
}

func (h *Hub) attach(c Conn) {
	h.sessions[c] = &session{state: stateUnbound}
}

func (h *Hub) detach(c Conn) {
	sess, ok := h.sessions[c]
	if !ok {
		return
	}
	delete(h.sessions, c)

	if sess.state != stateBound {
		return
	}
	room, ok := h.registry.Get(sess.roomID)
	if !ok {
		return
	}

	remaining := room.remove(c)
	if remaining == 0 {
		h.registry.Remove(room.ID())
		slog.Info("room closed", "room", room.ID())
		return
	}

	if payload, err := protocol.EncodeUserCount(remaining); err == nil {
		h.fanOut(room, payload, nil)
	}
	slog.Info("client left room", "room", room.ID(), "clientId", c.ID(), "clients", remaining)
}

func (h *Hub) handle(sender Conn, data []byte) {
	sess, ok := h.sessions[sender]
	if !ok {
		return
	}
	msgType := protocol.Peek(data)

	switch sess.state {
	case stateUnbound:
		if msgType != protocol.TypeJoin {
			slog.Warn("dropping frame from unbound connection",
				"clientId", sender.ID(), "type", msgType)
			return
		}
		h.handleJoin(sender, sess, data)

	case stateBound:
		room, ok := h.registry.Get(sess.roomID)
		if !ok {
			return
		}
		switch msgType {
		case protocol.TypeJoin:
			// Rebinding is not supported; a participant who wants another
			// room opens a new connection.
			slog.Warn("ignoring join from bound connection",
				"clientId", sender.ID(), "room", sess.roomID)
		case protocol.TypeDraw:
			h.handleDraw(sender, room, data)
		case protocol.TypeUndo:
			h.handleHistoryShift(room, protocol.TypeUndo)
		case protocol.TypeRedo:
			h.handleHistoryShift(room, protocol.TypeRedo)
		case protocol.TypeClear:
			room.Board().Clear()
			h.fanOut(room, data, nil)
		default:
			slog.Warn("dropping frame of unknown type",
				"clientId", sender.ID(), "type", msgType)
		}
	}
}

func (h *Hub) handleJoin(sender Conn, sess *session, data []byte) {
	msg, err := protocol.DecodeJoin(data)
	if err != nil {
		slog.Warn("invalid join", "clientId", sender.ID(), "error", err)
		return
	}

	room := h.registry.GetOrCreate(msg.RoomID)
	count := room.add(sender)
	sess.state = stateBound
	sess.roomID = msg.RoomID

	if payload, err := protocol.EncodeUserCount(count); err == nil {
		h.fanOut(room, payload, nil)
	}
	slog.Info("client joined room", "room", room.ID(), "clientId", sender.ID(), "clients", count)
}

// The sender already rendered the stroke locally, so the raw frame is
// relayed to everyone else verbatim.
func (h *Hub) handleDraw(sender Conn, room *Room, data []byte) {
	msg, err := protocol.DecodeDraw(data)
	if err != nil {
		slog.Warn("invalid draw", "clientId", sender.ID(), "error", err)
		return
	}

	room.Board().Draw(msg.Stroke())
	h.fanOut(room, data, sender)
}

// Undo and redo resynchronize every participant, sender included, from
// the relay's authoritative copy. An ineffective shift (empty history or
// empty redo buffer) mutates nothing and broadcasts nothing.
func (h *Hub) handleHistoryShift(room *Room, op string) {
	board := room.Board()

	var moved bool
	if op == protocol.TypeUndo {
		moved = board.Undo()
	} else {
		moved = board.Redo()
	}
	if !moved {
		return
	}

	payload, err := protocol.EncodeHistoryUpdate(op, board.History(), board.RedoStack())
	if err != nil {
		slog.Error("encoding history update", "room", room.ID(), "error", err)
		return
	}
	h.fanOut(room, payload, nil)
}

// fanOut delivers data to every participant of room except exclude.
// Delivery is best effort: a recipient whose transport cannot take the
// write is skipped, never retried, and never aborts the loop.
func (h *Hub) fanOut(room *Room, data []byte, exclude Conn) {
	for _, c := range room.conns() {
		if c == exclude {
			continue
		}
		if err := c.Send(data); err != nil {
			slog.Debug("skipping unwritable participant",
				"room", room.ID(), "clientId", c.ID(), "error", err)
		}
	}
}
