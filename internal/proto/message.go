package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client -> gateway event names. The credential itself travels
// out-of-band in the connection handshake, not as an event.
const (
	InboundJoinChat    = "join-chat"
	InboundLeaveChat   = "leave-chat"
	InboundSendMessage = "send-message"
	InboundTyping      = "typing"
)

// Gateway -> client event names.
const (
	OutboundOnlineUsers = "online-users"
	OutboundUserOnline  = "user-online"
	OutboundUserOffline = "user-offline"
	OutboundNewMessage  = "new-message"
	OutboundTyping      = "typing"
	OutboundSocketError = "socket-error"
	OutboundError       = "error"
)

// JoinChatData subscribes the sender to a chat channel.
type JoinChatData struct {
	ChatID string `json:"chatId"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// TypingData is a typing signal from the client.
type TypingData struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// OnlineUsersData is the presence snapshot delivered once after admission.
type OnlineUsersData struct {
	UserIDs []string `json:"userIds"`
}

// UserPresenceData announces a user going on- or offline.
type UserPresenceData struct {
	UserID string `json:"userId"`
}

// SenderData is the denormalized sender profile on a delivered message.
type SenderData struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// NewMessageData is a delivered chat message, enriched with the
// sender's display profile.
type NewMessageData struct {
	ID        string     `json:"id"`
	ChatID    string     `json:"chatId"`
	SenderID  string     `json:"senderId"`
	Text      string     `json:"text"`
	CreatedAt int64      `json:"createdAt"` // unix milliseconds
	Sender    SenderData `json:"sender"`
}

// TypingEventData relays a typing signal to other participants.
type TypingEventData struct {
	UserID   string `json:"userId"`
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorData carries a client-visible failure description.
type ErrorData struct {
	Message string `json:"message"`
}
