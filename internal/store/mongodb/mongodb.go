package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pairline/pairline-server/internal/store"
)

const (
	collUsers    = "users"
	collChats    = "chats"
	collMessages = "messages"

	connectTimeout = 10 * time.Second
)

// MongoStore implements store.Store on top of a MongoDB database.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	chats    *mongo.Collection
	messages *mongo.Collection
}

// New connects to MongoDB and returns a ready store.
// uri is a full connection string, database the database name.
func New(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection(collUsers),
		chats:    db.Collection(collChats),
		messages: db.Collection(collMessages),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_activity_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("chats index: %w", err)
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("messages index: %w", err)
	}

	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ==== UserStore implementation ====

// CreateUser inserts a new user document.
func (s *MongoStore) CreateUser(ctx context.Context, user *store.User) error {
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	var user store.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	var user store.User
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// ListUsers lists all users sorted by username.
func (s *MongoStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*store.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// ==== ChatStore implementation ====

// CreateChat inserts a new chat document.
func (s *MongoStore) CreateChat(ctx context.Context, chat *store.Chat) error {
	if _, err := s.chats.InsertOne(ctx, chat); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// GetChatByID retrieves a chat by ID.
func (s *MongoStore) GetChatByID(ctx context.Context, id string) (*store.Chat, error) {
	var chat store.Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return &chat, nil
}

// ListChatsForUser lists chats the user participates in, most recently active first.
func (s *MongoStore) ListChatsForUser(ctx context.Context, userID string) ([]*store.Chat, error) {
	cur, err := s.chats.Find(ctx,
		bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "last_activity_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer cur.Close(ctx)

	var chats []*store.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	return chats, nil
}

// UpdateChatSummary sets the chat's last-message reference and last-activity timestamp.
func (s *MongoStore) UpdateChatSummary(ctx context.Context, chatID, lastMessageID string, lastActivityAt time.Time) error {
	res, err := s.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"last_message_id": lastMessageID, "last_activity_at": lastActivityAt}},
	)
	if err != nil {
		return fmt.Errorf("update chat summary: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ==== MessageStore implementation ====

// CreateMessage inserts a new message document.
func (s *MongoStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages retrieves messages from a chat, oldest first.
func (s *MongoStore) ListMessages(ctx context.Context, chatID string, limit int, beforeID string) ([]*store.Message, error) {
	filter := bson.M{"chat_id": chatID}

	if beforeID != "" {
		var before store.Message
		err := s.messages.FindOne(ctx, bson.M{"_id": beforeID}).Decode(&before)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("find before message: %w", err)
		}
		filter["created_at"] = bson.M{"$lt": before.CreatedAt}
	}

	// Fetch newest first so the limit keeps the most recent page,
	// then reverse into chronological order.
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cur.Close(ctx)

	var messages []*store.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
