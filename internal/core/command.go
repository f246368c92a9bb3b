package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinChat subscribes the connection to a chat channel.
	CommandJoinChat CommandKind = iota
	// CommandLeaveChat unsubscribes the connection from a chat channel.
	CommandLeaveChat
	// CommandSendMessage runs the message ingestion pipeline.
	CommandSendMessage
	// CommandTyping relays a typing signal to the chat's participants.
	CommandTyping
)

// Command represents an action requested by an admitted connection.
type Command struct {
	Kind     CommandKind
	ChatID   string
	Text     string
	IsTyping bool
}
