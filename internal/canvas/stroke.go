package canvas

// A single sampled position on the canvas, encoded on the wire as [x, y].
type Point [2]float64

// One completed freehand gesture. Immutable once recorded; a stroke lives
// in exactly one place at a time (a board's history, its redo buffer, or
// in flight on the wire).
type Stroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}
