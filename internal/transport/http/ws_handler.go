package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairline/pairline-server/internal/auth"
	"github.com/pairline/pairline-server/internal/core"
	"github.com/pairline/pairline-server/internal/proto"
	"github.com/pairline/pairline-server/internal/store"
)

// WSHandler is the connection gate: it authenticates the handshake
// credential, binds the resolved identity to a core.Conn, and bridges
// the socket to the hub. Admission must succeed before any event is
// processed for a connection.
type WSHandler struct {
	hub       *core.Hub
	verifier  auth.Verifier
	users     store.UserStore
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, verifier auth.Verifier, users store.UserStore, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:       hub,
		verifier:  verifier,
		users:     users,
		rateLimit: rateLimit,
		log:       logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	// Gate first: the three rejection reasons (no credential,
	// verification failure, unknown user) are logged apart but the
	// client sees one opaque refusal. Nothing is registered anywhere
	// until admission succeeds.
	credential := credentialFromRequest(r)
	if credential == "" {
		h.log.Debug().Msg("ws handshake without credential")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	identity, err := h.verifier.Verify(credential)
	if err != nil {
		h.log.Debug().Msg("ws credential verification failed")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	if _, err := h.users.GetUserByID(ctx, identity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.log.Debug().Str("user_id", identity).Msg("ws credential for unknown user")
		} else {
			h.log.Error().Err(err).Str("user_id", identity).Msg("ws admission user lookup failed")
		}
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewConn(uuid.NewString(), identity)
	h.hub.RegisterConn(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// Transport termination reaches the hub exactly once; channel
	// memberships and presence unwind there.
	close(client.Commands)
	h.hub.UnregisterConn(client)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// credentialFromRequest extracts the handshake credential: the "token"
// query parameter, or an Authorization bearer header.
func credentialFromRequest(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return ""
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Conn) error {
	limiter := newRateLimiter(h.rateLimit)
	defer limiter.stop()

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Warn().Str("conn_id", client.ID).Msg("ws rate limit exceeded")
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Event: proto.OutboundError,
				Data:  proto.ErrorData{Message: "rate limit exceeded"},
			}); err != nil {
				return err
			}
			continue
		}

		cmd, clientErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("failed to decode inbound event")
			return err
		}
		if clientErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Event: proto.OutboundSocketError,
				Data:  clientErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			client.Commands <- cmd
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Conn) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
