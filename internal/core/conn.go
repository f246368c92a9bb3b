package core

// Conn is an admitted client connection as seen by the core layer.
// The transport layer owns it; the presence registry and the router
// only hold references.
type Conn struct {
	// ID is a process-unique connection handle.
	ID string
	// Identity is the authenticated user ID. Bound exactly once by the
	// connection gate before the hub ever sees the connection.
	Identity string
	// Commands carries client-initiated actions into the hub.
	Commands chan *Command
	// Events carries gateway events out to the transport write loop.
	Events chan *Event

	// channels tracks this connection's memberships so disconnect
	// cleanup doesn't have to scan every channel. Touched only by the
	// hub goroutine.
	channels map[string]struct{}
}

// NewConn constructs a connection bound to the given identity.
func NewConn(id, identity string) *Conn {
	return &Conn{
		ID:       id,
		Identity: identity,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
		channels: make(map[string]struct{}),
	}
}

// send delivers an event to the connection's write loop.
// Events are dropped if the consumer is too slow to keep up.
func (c *Conn) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
