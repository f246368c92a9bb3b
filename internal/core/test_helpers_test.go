package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pairline/pairline-server/internal/store"
)

// fakeStore is an in-memory store.Store for hub tests. Error fields
// force failures in specific pipeline steps.
type fakeStore struct {
	users    map[string]*store.User
	chats    map[string]*store.Chat
	messages map[string]*store.Message

	createMessageErr error
	updateSummaryErr error
	getChatErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*store.User),
		chats:    make(map[string]*store.Chat),
		messages: make(map[string]*store.Message),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *store.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context) ([]*store.User, error) {
	users := make([]*store.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeStore) CreateChat(_ context.Context, chat *store.Chat) error {
	f.chats[chat.ID] = chat
	return nil
}

func (f *fakeStore) GetChatByID(_ context.Context, id string) (*store.Chat, error) {
	if f.getChatErr != nil {
		return nil, f.getChatErr
	}
	chat, ok := f.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return chat, nil
}

func (f *fakeStore) ListChatsForUser(_ context.Context, userID string) ([]*store.Chat, error) {
	var chats []*store.Chat
	for _, chat := range f.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	return chats, nil
}

func (f *fakeStore) UpdateChatSummary(_ context.Context, chatID, lastMessageID string, lastActivityAt time.Time) error {
	if f.updateSummaryErr != nil {
		return f.updateSummaryErr
	}
	chat, ok := f.chats[chatID]
	if !ok {
		return store.ErrNotFound
	}
	chat.LastMessageID = lastMessageID
	chat.LastActivityAt = lastActivityAt
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *store.Message) error {
	if f.createMessageErr != nil {
		return f.createMessageErr
	}
	f.messages[msg.ID] = msg
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, chatID string, _ int, _ string) ([]*store.Message, error) {
	var msgs []*store.Message
	for _, msg := range f.messages {
		if msg.ChatID == chatID {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

func (f *fakeStore) Close(_ context.Context) error { return nil }

var errStoreDown = errors.New("store down")

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainEvents collects every event that arrives within the window.
func drainEvents(ch <-chan *Event, window time.Duration) []*Event {
	var events []*Event
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	return events
}

func countKind(events []*Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
