package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pairline/pairline-server/internal/auth"
	"github.com/pairline/pairline-server/internal/config"
	"github.com/pairline/pairline-server/internal/core"
	"github.com/pairline/pairline-server/internal/store"
)

// memStore is an in-memory store.Store for transport tests.
type memStore struct {
	users    map[string]*store.User
	chats    map[string]*store.Chat
	messages []*store.Message
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*store.User),
		chats: make(map[string]*store.Chat),
	}
}

func (m *memStore) CreateUser(_ context.Context, user *store.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*store.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListUsers(_ context.Context) ([]*store.User, error) {
	users := make([]*store.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *memStore) CreateChat(_ context.Context, chat *store.Chat) error {
	m.chats[chat.ID] = chat
	return nil
}

func (m *memStore) GetChatByID(_ context.Context, id string) (*store.Chat, error) {
	chat, ok := m.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return chat, nil
}

func (m *memStore) ListChatsForUser(_ context.Context, userID string) ([]*store.Chat, error) {
	var chats []*store.Chat
	for _, chat := range m.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastActivityAt.After(chats[j].LastActivityAt)
	})
	return chats, nil
}

func (m *memStore) UpdateChatSummary(_ context.Context, chatID, lastMessageID string, lastActivityAt time.Time) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}
	chat.LastMessageID = lastMessageID
	chat.LastActivityAt = lastActivityAt
	return nil
}

func (m *memStore) CreateMessage(_ context.Context, msg *store.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) ListMessages(_ context.Context, chatID string, limit int, beforeID string) ([]*store.Message, error) {
	var msgs []*store.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })

	if beforeID != "" {
		cut := -1
		for i, msg := range msgs {
			if msg.ID == beforeID {
				cut = i
				break
			}
		}
		if cut == -1 {
			return nil, store.ErrNotFound
		}
		msgs = msgs[:cut]
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (m *memStore) Close(_ context.Context) error { return nil }

type testEnv struct {
	ts          *httptest.Server
	store       *memStore
	authService *auth.Service
	jwtConfig   *auth.JWTConfig
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st := newMemStore()
	logger := zerolog.Nop()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(st, core.NewMemoryRegistry(), core.NewRouter(), &logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := NewServer(hub, authService, st, config.Config{
		Addr:               ":0",
		ReadHeaderTimeout:  time.Second,
		ShutdownTimeout:    time.Second,
		WSMessageRateLimit: 0,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		ts:          ts,
		store:       st,
		authService: authService,
		jwtConfig:   jwtConfig,
	}
}

// seedUser inserts a user directly and returns a valid token for it.
func (env *testEnv) seedUser(t *testing.T, id, username string) string {
	t.Helper()

	if err := env.store.CreateUser(context.Background(), &store.User{
		ID:          id,
		Username:    username,
		DisplayName: username,
		CreatedAt:   time.Now(),
	}); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}

	token, err := auth.GenerateToken(env.jwtConfig, id, username)
	if err != nil {
		t.Fatalf("generate token for %s: %v", username, err)
	}
	return token
}

func (env *testEnv) seedChat(t *testing.T, id string, participants ...string) {
	t.Helper()

	now := time.Now()
	if err := env.store.CreateChat(context.Background(), &store.Chat{
		ID:             id,
		Participants:   participants,
		LastActivityAt: now,
		CreatedAt:      now,
	}); err != nil {
		t.Fatalf("seed chat %s: %v", id, err)
	}
}

func mustStatus(t *testing.T, resp *stdhttp.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("unexpected status: got %d, want %d", resp.StatusCode, want)
	}
}
