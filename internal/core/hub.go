package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairline/pairline-server/internal/store"
)

// Hub is the gateway's event loop. A single goroutine processes
// admissions, client commands, and disconnects strictly one at a time,
// so the presence registry and the router are never mutated
// concurrently — only in an interleaved sequence.
//
// Events from a single connection are handled in the order received.
// There is no ordering guarantee across connections: two simultaneous
// sends to the same chat may persist and fan out in either order, but
// each runs its validate/persist/fan-out sequence to completion before
// the hub picks up the next command.
type Hub struct {
	store    store.Store
	presence Registry
	router   *Router
	log      *zerolog.Logger

	register   chan *Conn
	unregister chan *Conn
	commands   chan command

	// conns is every admitted connection, for the global
	// online/offline broadcasts.
	conns map[*Conn]struct{}
}

type command struct {
	conn *Conn
	cmd  *Command
}

// NewHub constructs a hub. The registry and router are injected so
// tests can build isolated instances and so presence can be swapped for
// a shared external store without touching handler logic.
func NewHub(st store.Store, presence Registry, router *Router, logger *zerolog.Logger) *Hub {
	return &Hub{
		store:      st,
		presence:   presence,
		router:     router,
		log:        logger,
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		commands:   make(chan command),
		conns:      make(map[*Conn]struct{}),
	}
}

// Run processes hub events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.handleAdmission(ctx, c)
		case c := <-h.unregister:
			h.handleDisconnect(ctx, c)
		case env := <-h.commands:
			h.dispatch(ctx, env.conn, env.cmd)
		case <-ctx.Done():
			return
		}
	}
}

// RegisterConn admits an authenticated connection into the hub.
// The transport must have bound the connection's identity already.
func (h *Hub) RegisterConn(c *Conn) {
	h.register <- c
	go h.forward(c)
}

// UnregisterConn removes a departed connection. Called exactly once per
// connection when the transport signals termination.
func (h *Hub) UnregisterConn(c *Conn) {
	h.unregister <- c
}

// forward pumps one connection's commands into the hub loop, preserving
// per-connection ordering. It exits when the transport closes the
// command channel.
func (h *Hub) forward(c *Conn) {
	for cmd := range c.Commands {
		h.commands <- command{conn: c, cmd: cmd}
	}
}

// handleAdmission registers presence, joins the personal channel, sends
// the online snapshot to the new connection, and announces it to
// everyone else.
func (h *Hub) handleAdmission(ctx context.Context, c *Conn) {
	h.conns[c] = struct{}{}

	if err := h.presence.Register(ctx, c.Identity, c.ID); err != nil {
		h.log.Error().Err(err).Str("user_id", c.Identity).Msg("presence register failed")
	}
	h.router.Join(c, UserChannel(c.Identity))

	// The snapshot can be stale by the time the client reads it; a user
	// going on- or offline in between is accepted, not corrected.
	online, err := h.presence.Snapshot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("presence snapshot failed")
		online = []string{c.Identity}
	}
	c.send(&Event{Kind: EventOnlineUsers, UserIDs: online})

	h.broadcastExcept(c, &Event{Kind: EventUserOnline, UserID: c.Identity})

	h.log.Info().Str("conn_id", c.ID).Str("user_id", c.Identity).Msg("connection admitted")
}

// handleDisconnect unwinds presence state and announces the departure.
// Channel memberships are garbage-collected by dropping the connection
// from the router; no per-channel bookkeeping is needed.
func (h *Hub) handleDisconnect(ctx context.Context, c *Conn) {
	if _, ok := h.conns[c]; !ok {
		// Stale unregister from a connection that never completed
		// admission or was already removed. Tolerated silently.
		return
	}
	delete(h.conns, c)

	if err := h.presence.Unregister(ctx, c.Identity); err != nil {
		h.log.Error().Err(err).Str("user_id", c.Identity).Msg("presence unregister failed")
	}
	h.router.Drop(c)

	h.broadcastExcept(c, &Event{Kind: EventUserOffline, UserID: c.Identity})

	h.log.Info().Str("conn_id", c.ID).Str("user_id", c.Identity).Msg("connection removed")
}

func (h *Hub) dispatch(ctx context.Context, c *Conn, cmd *Command) {
	if _, ok := h.conns[c]; !ok {
		// Command raced with a disconnect. Drop it.
		return
	}

	switch cmd.Kind {
	case CommandJoinChat:
		h.router.Join(c, ChatChannel(cmd.ChatID))
	case CommandLeaveChat:
		h.router.Leave(c, ChatChannel(cmd.ChatID))
	case CommandSendMessage:
		h.handleSend(ctx, c, cmd)
	case CommandTyping:
		h.handleTyping(ctx, c, cmd)
	}
}

// handleSend runs the message ingestion pipeline:
// received -> validated -> persisted -> fanned-out.
// There is no retry; a failed send must be resubmitted by the client.
func (h *Hub) handleSend(ctx context.Context, c *Conn, cmd *Command) {
	// Validate. Participancy is re-checked on every send, never cached
	// from an earlier event.
	chat, err := h.store.GetChatByID(ctx, cmd.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		c.send(&Event{Kind: EventSocketError, Error: coreError(ErrCodeChatNotFound, "chat not found")})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", cmd.ChatID).Msg("chat lookup failed")
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeInternal, "failed to send message")})
		return
	}
	if !chat.HasParticipant(c.Identity) {
		// The sender learns the send failed; nobody else is told a send
		// was attempted.
		c.send(&Event{Kind: EventSocketError, Error: coreError(ErrCodeNotParticipant, "not a participant of this chat")})
		return
	}

	// Persist the message, then the chat summary. If the summary update
	// fails the message already exists and the summary is stale; that
	// inconsistency is a known limitation, reported as a failed send.
	msg := &store.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		SenderID:  c.Identity,
		Text:      cmd.Text,
		CreatedAt: time.Now(),
	}
	if err := h.store.CreateMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("chat_id", chat.ID).Msg("message create failed")
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeInternal, "failed to send message")})
		return
	}
	if err := h.store.UpdateChatSummary(ctx, chat.ID, msg.ID, msg.CreatedAt); err != nil {
		h.log.Error().Err(err).Str("chat_id", chat.ID).Str("message_id", msg.ID).Msg("chat summary update failed")
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeInternal, "failed to send message")})
		return
	}

	// Enrich with the sender's display profile. Presentation-only; the
	// stored message is already in its canonical shape.
	sender, err := h.store.GetUserByID(ctx, c.Identity)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", c.Identity).Msg("sender lookup failed")
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeInternal, "failed to send message")})
		return
	}

	ev := &Event{
		Kind: EventNewMessage,
		Message: &OutgoingMessage{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			SenderID:  msg.SenderID,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt,
			Sender: SenderProfile{
				ID:          sender.ID,
				Username:    sender.Username,
				DisplayName: sender.DisplayName,
				AvatarURL:   sender.AvatarURL,
			},
		},
	}

	// Fan out to the chat channel and, independently, to every
	// participant's personal channel. A participant viewing the chat
	// receives the message twice; clients deduplicate by message ID.
	h.router.Emit(ChatChannel(chat.ID), ev)
	for _, participant := range chat.Participants {
		h.router.Emit(UserChannel(participant), ev)
	}
}

// handleTyping relays a typing signal. Fire-and-forget: no persistence,
// no retry, and lookup failures are swallowed entirely.
func (h *Hub) handleTyping(ctx context.Context, c *Conn, cmd *Command) {
	ev := &Event{
		Kind:     EventTyping,
		UserID:   c.Identity,
		ChatID:   cmd.ChatID,
		IsTyping: cmd.IsTyping,
	}

	// The channel-level forward happens regardless of the lookup below.
	h.router.EmitExcept(ChatChannel(cmd.ChatID), c, ev)

	chat, err := h.store.GetChatByID(ctx, cmd.ChatID)
	if err != nil {
		h.log.Debug().Err(err).Str("chat_id", cmd.ChatID).Msg("typing relay lookup failed")
		return
	}
	if other, ok := chat.OtherParticipant(c.Identity); ok {
		h.router.Emit(UserChannel(other), ev)
	}
}

func (h *Hub) broadcastExcept(skip *Conn, ev *Event) {
	for c := range h.conns {
		if c == skip {
			continue
		}
		c.send(ev)
	}
}
