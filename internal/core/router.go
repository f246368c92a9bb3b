package core

// Channel key namespaces. Chat and personal channels must never collide
// in key space: a hostile chat identifier must not let a client join
// another user's personal channel.
const (
	chatChannelPrefix = "chat:"
	userChannelPrefix = "user:"
)

// ChatChannel returns the channel key for a chat's broadcast channel.
func ChatChannel(chatID string) string {
	return chatChannelPrefix + chatID
}

// UserChannel returns the channel key for a user's personal channel.
func UserChannel(identity string) string {
	return userChannelPrefix + identity
}

// Router manages named fan-out channels and connection membership.
// It performs no authorization; callers decide whether a join is
// legitimate. Like the registry, it is only mutated by the hub
// goroutine.
type Router struct {
	channels map[string]map[*Conn]struct{}
}

// NewRouter constructs a router with no channels.
func NewRouter() *Router {
	return &Router{channels: make(map[string]map[*Conn]struct{})}
}

// Join adds the connection to the channel, creating the channel if it
// does not yet exist. Joining twice is a no-op.
func (r *Router) Join(c *Conn, key string) {
	members, ok := r.channels[key]
	if !ok {
		members = make(map[*Conn]struct{})
		r.channels[key] = members
	}
	members[c] = struct{}{}
	c.channels[key] = struct{}{}
}

// Leave removes the connection from the channel. Leaving a channel the
// connection is not in is a no-op; the last member leaving removes the
// channel implicitly.
func (r *Router) Leave(c *Conn, key string) {
	members, ok := r.channels[key]
	if !ok {
		return
	}
	delete(members, c)
	delete(c.channels, key)
	if len(members) == 0 {
		delete(r.channels, key)
	}
}

// Drop removes the connection from every channel it joined.
func (r *Router) Drop(c *Conn) {
	for key := range c.channels {
		r.Leave(c, key)
	}
}

// Emit delivers the event to every connection in the channel.
// A channel with zero members is a silent no-op, never an error.
func (r *Router) Emit(key string, ev *Event) {
	for member := range r.channels[key] {
		member.send(ev)
	}
}

// EmitExcept is Emit skipping one connection, so a sender does not
// receive its own echo.
func (r *Router) EmitExcept(key string, skip *Conn, ev *Event) {
	for member := range r.channels[key] {
		if member == skip {
			continue
		}
		member.send(ev)
	}
}
