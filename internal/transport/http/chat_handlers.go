package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairline/pairline-server/internal/store"
)

const defaultMessagePageSize = 50

// ChatHandlers provides HTTP handlers for chat and history endpoints.
type ChatHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(st store.Store, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		store: st,
		log:   logger,
	}
}

// CreateChatRequest represents the create chat request body.
type CreateChatRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// ChatResponse represents a chat in API responses.
type ChatResponse struct {
	ID             string   `json:"id"`
	Participants   []string `json:"participants"`
	LastMessageID  string   `json:"lastMessageId,omitempty"`
	LastActivityAt int64    `json:"lastActivityAt"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// ListChats lists the requester's chats, most recently active first.
// GET /api/chats
func (h *ChatHandlers) ListChats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	chats, err := h.store.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to list chats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ChatResponse, 0, len(chats))
	for _, chat := range chats {
		response = append(response, chatResponse(chat))
	}
	c.JSON(http.StatusOK, response)
}

// CreateChat creates a two-party chat between the requester and another user.
// POST /api/chats
func (h *ChatHandlers) CreateChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ParticipantID == userID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot start a chat with yourself"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), req.ParticipantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "participant not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", req.ParticipantID).Msg("participant lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	now := time.Now()
	chat := &store.Chat{
		ID:             uuid.NewString(),
		Participants:   []string{userID, req.ParticipantID},
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := h.store.CreateChat(c.Request.Context(), chat); err != nil {
		h.log.Error().Err(err).Msg("failed to create chat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, chatResponse(chat))
}

// ListMessages returns a page of chat history, oldest first.
// GET /api/chats/:id/messages?limit=50&before=<messageId>
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	chatID := c.Param("id")
	chat, err := h.store.GetChatByID(c.Request.Context(), chatID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", chatID).Msg("chat lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a participant of this chat"})
		return
	}

	limit := defaultMessagePageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.store.ListMessages(c.Request.Context(), chatID, limit, c.Query("before"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown before message"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", chatID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			SenderID:  msg.SenderID,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt.UnixMilli(),
		})
	}
	c.JSON(http.StatusOK, response)
}

func chatResponse(chat *store.Chat) ChatResponse {
	return ChatResponse{
		ID:             chat.ID,
		Participants:   chat.Participants,
		LastMessageID:  chat.LastMessageID,
		LastActivityAt: chat.LastActivityAt.UnixMilli(),
	}
}
