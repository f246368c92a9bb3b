package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	DisplayName  string    `bson:"display_name"`
	AvatarURL    string    `bson:"avatar_url"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Chat is a conversation between a fixed, small set of participants.
type Chat struct {
	ID             string    `bson:"_id"`
	Participants   []string  `bson:"participants"` // user IDs
	LastMessageID  string    `bson:"last_message_id"`
	LastActivityAt time.Time `bson:"last_activity_at"`
	CreatedAt      time.Time `bson:"created_at"`
}

// HasParticipant reports whether userID is among the chat's participants.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the first participant whose ID differs from userID.
// Chats are two-party, so this is "the other side" of the conversation.
func (c *Chat) OtherParticipant(userID string) (string, bool) {
	for _, p := range c.Participants {
		if p != userID {
			return p, true
		}
	}
	return "", false
}

// Message is a persisted chat message. Immutable once created.
type Message struct {
	ID        string    `bson:"_id"`
	ChatID    string    `bson:"chat_id"`
	SenderID  string    `bson:"sender_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user document.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username. Returns ErrNotFound if absent.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers lists all users, for the directory endpoint.
	ListUsers(ctx context.Context) ([]*User, error)
}

// ChatStore handles chat persistence.
type ChatStore interface {
	// CreateChat inserts a new chat document.
	CreateChat(ctx context.Context, chat *Chat) error

	// GetChatByID retrieves a chat by ID. Returns ErrNotFound if absent.
	GetChatByID(ctx context.Context, id string) (*Chat, error)

	// ListChatsForUser lists chats the user participates in,
	// most recently active first.
	ListChatsForUser(ctx context.Context, userID string) ([]*Chat, error)

	// UpdateChatSummary sets the chat's last-message reference and
	// last-activity timestamp.
	UpdateChatSummary(ctx context.Context, chatID, lastMessageID string, lastActivityAt time.Time) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage inserts a new message document.
	CreateMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves messages from a chat, oldest first.
	// If beforeID is non-empty, only messages created before that message
	// are returned. Limit caps the number of messages; 0 means no cap.
	ListMessages(ctx context.Context, chatID string, limit int, beforeID string) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatStore
	MessageStore

	// Close closes the underlying database connection.
	Close(ctx context.Context) error
}
