package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pairline/pairline-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	username := flag.String("user", "smoke", "username to login or register as")
	password := flag.String("password", "smoke-pass", "password")
	token := flag.String("token", "", "JWT to use instead of logging in")
	chatID := flag.String("chat", "", "chat to join and send into")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	credential := *token
	if credential == "" {
		var err error
		credential, err = obtainToken(ctx, *base, *username, *password)
		if err != nil {
			return err
		}
	}

	wsURL := *base + "/ws?token=" + credential
	if len(wsURL) > 4 && wsURL[:4] == "http" {
		wsURL = "ws" + wsURL[4:]
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(event string, data any) error {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", event, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Event: event, Data: raw}); err != nil {
			return fmt.Errorf("send %s: %w", event, err)
		}
		return nil
	}

	if *chatID != "" {
		if err := send(proto.InboundJoinChat, proto.JoinChatData{ChatID: *chatID}); err != nil {
			return err
		}
		if err := send(proto.InboundSendMessage, proto.SendMessageData{ChatID: *chatID, Text: *text}); err != nil {
			return err
		}
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		raw, err := json.Marshal(outbound.Data)
		if err != nil {
			return fmt.Errorf("marshal outbound data: %w", err)
		}
		fmt.Printf("event=%s data=%s\n", outbound.Event, string(raw))

		switch outbound.Event {
		case proto.OutboundNewMessage:
			return nil
		case proto.OutboundSocketError, proto.OutboundError:
			return fmt.Errorf("server reported: %s", string(raw))
		case proto.OutboundOnlineUsers:
			if *chatID == "" {
				// nothing else to wait for without a chat
				return nil
			}
		}
	}
}

func obtainToken(ctx context.Context, base, username, password string) (string, error) {
	login := func(path string) (string, int, error) {
		body, err := json.Marshal(map[string]string{
			"username": username,
			"password": password,
		})
		if err != nil {
			return "", 0, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		var parsed struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", resp.StatusCode, err
		}
		return parsed.Token, resp.StatusCode, nil
	}

	token, status, err := login("/api/login")
	if err == nil && token != "" {
		return token, nil
	}
	if status == http.StatusUnauthorized {
		token, _, err = login("/api/register")
		if err == nil && token != "" {
			return token, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("obtain token: %w", err)
	}
	return "", fmt.Errorf("obtain token: status %d", status)
}
