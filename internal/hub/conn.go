package hub

// Conn is the transport-facing handle for one participant. Send must not
// block; an implementation that cannot take the write returns an error so
// fan-out can skip the recipient.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}
