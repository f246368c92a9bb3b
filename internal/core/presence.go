package core

import "context"

// Registry is the process-wide mapping from user identity to the
// connection currently serving it. It is the single source of truth for
// "who is online". The hub is the only writer; implementations are free
// to back the mapping with external storage so presence can be shared
// across gateway instances later.
type Registry interface {
	// Register inserts or replaces the entry for identity.
	// A replacement means the identity came online on a new connection
	// while the old one is presumed stale (last-connected-wins).
	Register(ctx context.Context, identity, connID string) error

	// Unregister removes the entry if present. Removing an absent
	// identity is a silent no-op; disconnect races are expected.
	Unregister(ctx context.Context, identity string) error

	// Snapshot returns the identities currently online, in no
	// particular order.
	Snapshot(ctx context.Context) ([]string, error)
}

// memoryRegistry keeps presence in a plain map. It is only ever touched
// from the hub goroutine, so no locking is needed.
type memoryRegistry struct {
	entries map[string]string // identity -> conn ID
}

// NewMemoryRegistry returns an in-process presence registry.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{entries: make(map[string]string)}
}

func (r *memoryRegistry) Register(_ context.Context, identity, connID string) error {
	r.entries[identity] = connID
	return nil
}

func (r *memoryRegistry) Unregister(_ context.Context, identity string) error {
	delete(r.entries, identity)
	return nil
}

func (r *memoryRegistry) Snapshot(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.entries))
	for identity := range r.entries {
		ids = append(ids, identity)
	}
	return ids, nil
}
