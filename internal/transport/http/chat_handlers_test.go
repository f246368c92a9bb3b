package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/pairline/pairline-server/internal/store"
)

func doJSON(t *testing.T, env *testEnv, method, path, token string, body any) *stdhttp.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := stdhttp.NewRequest(method, env.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *stdhttp.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRegisterLoginFlow(t *testing.T) {
	env := startTestServer(t)

	resp := doJSON(t, env, stdhttp.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	mustStatus(t, resp, stdhttp.StatusCreated)
	registered := decodeJSON[AuthResponse](t, resp)
	if registered.Token == "" {
		t.Fatalf("expected token on register")
	}

	resp = doJSON(t, env, stdhttp.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	mustStatus(t, resp, stdhttp.StatusConflict)

	resp = doJSON(t, env, stdhttp.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	mustStatus(t, resp, stdhttp.StatusOK)
	loggedIn := decodeJSON[AuthResponse](t, resp)
	if loggedIn.Token == "" {
		t.Fatalf("expected token on login")
	}

	resp = doJSON(t, env, stdhttp.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	mustStatus(t, resp, stdhttp.StatusUnauthorized)
}

func TestListUsersExcludesRequester(t *testing.T) {
	env := startTestServer(t)
	aliceToken := env.seedUser(t, "u1", "alice")
	env.seedUser(t, "u2", "bob")

	resp := doJSON(t, env, stdhttp.MethodGet, "/api/users", aliceToken, nil)
	mustStatus(t, resp, stdhttp.StatusOK)

	users := decodeJSON[[]UserResponse](t, resp)
	if len(users) != 1 || users[0].ID != "u2" {
		t.Fatalf("expected only bob in the directory, got %+v", users)
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	env := startTestServer(t)

	resp := doJSON(t, env, stdhttp.MethodGet, "/api/users", "", nil)
	mustStatus(t, resp, stdhttp.StatusUnauthorized)

	resp = doJSON(t, env, stdhttp.MethodGet, "/api/chats", "garbage-token", nil)
	mustStatus(t, resp, stdhttp.StatusUnauthorized)
}

func TestCreateChatAndList(t *testing.T) {
	env := startTestServer(t)
	aliceToken := env.seedUser(t, "u1", "alice")
	bobToken := env.seedUser(t, "u2", "bob")

	resp := doJSON(t, env, stdhttp.MethodPost, "/api/chats", aliceToken, CreateChatRequest{ParticipantID: "u2"})
	mustStatus(t, resp, stdhttp.StatusCreated)
	created := decodeJSON[ChatResponse](t, resp)
	if len(created.Participants) != 2 {
		t.Fatalf("expected two participants, got %+v", created)
	}

	// Both sides see the chat.
	for _, token := range []string{aliceToken, bobToken} {
		resp = doJSON(t, env, stdhttp.MethodGet, "/api/chats", token, nil)
		mustStatus(t, resp, stdhttp.StatusOK)
		chats := decodeJSON[[]ChatResponse](t, resp)
		if len(chats) != 1 || chats[0].ID != created.ID {
			t.Fatalf("expected the created chat, got %+v", chats)
		}
	}
}

func TestCreateChatRejectsSelfAndUnknownParticipant(t *testing.T) {
	env := startTestServer(t)
	aliceToken := env.seedUser(t, "u1", "alice")

	resp := doJSON(t, env, stdhttp.MethodPost, "/api/chats", aliceToken, CreateChatRequest{ParticipantID: "u1"})
	mustStatus(t, resp, stdhttp.StatusBadRequest)

	resp = doJSON(t, env, stdhttp.MethodPost, "/api/chats", aliceToken, CreateChatRequest{ParticipantID: "nobody"})
	mustStatus(t, resp, stdhttp.StatusNotFound)
}

func TestListMessagesAuthorizationAndPaging(t *testing.T) {
	env := startTestServer(t)
	aliceToken := env.seedUser(t, "u1", "alice")
	env.seedUser(t, "u2", "bob")
	strangerToken := env.seedUser(t, "u3", "carol")
	env.seedChat(t, "c1", "u1", "u2")

	base := time.Now().Add(-time.Minute)
	for i, text := range []string{"one", "two", "three"} {
		if err := env.store.CreateMessage(context.Background(), &store.Message{
			ID:        "m" + text,
			ChatID:    "c1",
			SenderID:  "u1",
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	resp := doJSON(t, env, stdhttp.MethodGet, "/api/chats/c1/messages", strangerToken, nil)
	mustStatus(t, resp, stdhttp.StatusForbidden)

	resp = doJSON(t, env, stdhttp.MethodGet, "/api/chats/missing/messages", aliceToken, nil)
	mustStatus(t, resp, stdhttp.StatusNotFound)

	resp = doJSON(t, env, stdhttp.MethodGet, "/api/chats/c1/messages", aliceToken, nil)
	mustStatus(t, resp, stdhttp.StatusOK)
	msgs := decodeJSON[[]MessageResponse](t, resp)
	if len(msgs) != 3 {
		t.Fatalf("expected three messages, got %+v", msgs)
	}
	if msgs[0].Text != "one" || msgs[2].Text != "three" {
		t.Fatalf("expected chronological order, got %+v", msgs)
	}

	resp = doJSON(t, env, stdhttp.MethodGet, "/api/chats/c1/messages?limit=1&before=mthree", aliceToken, nil)
	mustStatus(t, resp, stdhttp.StatusOK)
	msgs = decodeJSON[[]MessageResponse](t, resp)
	if len(msgs) != 1 || msgs[0].Text != "two" {
		t.Fatalf("expected page ending before mthree, got %+v", msgs)
	}

	resp = doJSON(t, env, stdhttp.MethodGet, "/api/chats/c1/messages?limit=0", aliceToken, nil)
	mustStatus(t, resp, stdhttp.StatusBadRequest)
}
