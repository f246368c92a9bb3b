// Package redispresence keeps the presence registry in Redis so that
// multiple gateway instances can agree on who is online. Channel
// routing still happens in-process; this only externalizes the
// identity -> connection mapping behind core.Registry.
package redispresence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pairline/pairline-server/internal/core"
)

const presenceKey = "pairline:presence"

// Registry implements core.Registry on a Redis hash.
type Registry struct {
	client *redis.Client
}

// New connects to Redis and returns a presence registry.
func New(ctx context.Context, addr string) (*Registry, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Registry{client: client}, nil
}

var _ core.Registry = (*Registry)(nil)

// Register inserts or replaces the entry for identity.
func (r *Registry) Register(ctx context.Context, identity, connID string) error {
	if err := r.client.HSet(ctx, presenceKey, identity, connID).Err(); err != nil {
		return fmt.Errorf("presence hset: %w", err)
	}
	return nil
}

// Unregister removes the entry if present.
func (r *Registry) Unregister(ctx context.Context, identity string) error {
	if err := r.client.HDel(ctx, presenceKey, identity).Err(); err != nil {
		return fmt.Errorf("presence hdel: %w", err)
	}
	return nil
}

// Snapshot returns the identities currently online.
func (r *Registry) Snapshot(ctx context.Context) ([]string, error) {
	ids, err := r.client.HKeys(ctx, presenceKey).Result()
	if err != nil {
		return nil, fmt.Errorf("presence hkeys: %w", err)
	}
	return ids, nil
}

// Close releases the underlying Redis client.
func (r *Registry) Close() error {
	return r.client.Close()
}
