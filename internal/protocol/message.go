package protocol

import (
	"encoding/json"
	"fmt"

	"easel/internal/canvas"
)

// Message type discriminators. Inbound frames carry join/draw/undo/redo/
// clear; the relay emits userCount plus full-state undo/redo updates, and
// re-broadcasts draw and clear frames verbatim.
const (
	TypeJoin      = "join"
	TypeDraw      = "draw"
	TypeUndo      = "undo"
	TypeRedo      = "redo"
	TypeClear     = "clear"
	TypeUserCount = "userCount"
)

type envelope struct {
	Type string `json:"type"`
}

// Peek extracts the type discriminator from a raw frame without decoding
// the payload. Returns an empty string for undecodable input.
func Peek(data []byte) string {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	return env.Type
}

// Join binds a connection to a room. Any non-empty id is a valid room and
// implicitly creates one.
type Join struct {
	RoomID string `json:"roomId"`
}

func DecodeJoin(data []byte) (Join, error) {
	var msg Join
	if err := json.Unmarshal(data, &msg); err != nil {
		return Join{}, err
	}
	if msg.RoomID == "" {
		return Join{}, fmt.Errorf("missing roomId")
	}
	return msg, nil
}

// Draw carries one completed stroke from a client.
type Draw struct {
	Path  []canvas.Point `json:"path"`
	Color string         `json:"color"`
	Width float64        `json:"width"`
}

func DecodeDraw(data []byte) (Draw, error) {
	var msg Draw
	if err := json.Unmarshal(data, &msg); err != nil {
		return Draw{}, err
	}
	if len(msg.Path) == 0 {
		return Draw{}, fmt.Errorf("empty path")
	}
	if msg.Width <= 0 {
		return Draw{}, fmt.Errorf("invalid width: %v", msg.Width)
	}
	return msg, nil
}

// Stroke converts the wire payload into its stored form.
func (d Draw) Stroke() canvas.Stroke {
	return canvas.Stroke{Points: d.Path, Color: d.Color, Width: d.Width}
}

// UserCount announces a room's presence after a join or disconnect.
type UserCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func EncodeUserCount(count int) ([]byte, error) {
	return json.Marshal(UserCount{Type: TypeUserCount, Count: count})
}

// HistoryUpdate is the full-state resync sent after an effective undo or
// redo. Shipping both sequences keeps every client byte-identical with
// the relay's authoritative copy instead of trusting local pops to match.
type HistoryUpdate struct {
	Type      string          `json:"type"`
	Paths     []canvas.Stroke `json:"paths"`
	RedoStack []canvas.Stroke `json:"redoStack"`
}

func EncodeHistoryUpdate(op string, paths, redoStack []canvas.Stroke) ([]byte, error) {
	return json.Marshal(HistoryUpdate{Type: op, Paths: paths, RedoStack: redoStack})
}
