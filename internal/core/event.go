package core

import "time"

// EventKind is a notification the gateway emits to clients.
type EventKind int

const (
	// EventOnlineUsers delivers the presence snapshot to a connection
	// once, immediately after admission.
	EventOnlineUsers EventKind = iota
	// EventUserOnline notifies other connections about a new admission.
	EventUserOnline
	// EventUserOffline notifies other connections about a disconnect.
	EventUserOffline
	// EventNewMessage delivers an enriched chat message.
	EventNewMessage
	// EventTyping relays a typing signal.
	EventTyping
	// EventSocketError reports a send validation failure to the sender.
	EventSocketError
	// EventError reports an unexpected send failure to the sender.
	EventError
)

// SenderProfile is the denormalized display view of a message's sender,
// attached at emission time only. It never becomes part of the
// message's stored shape.
type SenderProfile struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

// OutgoingMessage is a persisted message enriched for delivery.
type OutgoingMessage struct {
	ID        string
	ChatID    string
	SenderID  string
	Text      string
	CreatedAt time.Time
	Sender    SenderProfile
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	UserIDs  []string         // EventOnlineUsers
	UserID   string           // EventUserOnline, EventUserOffline, EventTyping
	ChatID   string           // EventTyping
	IsTyping bool             // EventTyping
	Message  *OutgoingMessage // EventNewMessage
	Error    *CoreError       // EventSocketError, EventError
}
