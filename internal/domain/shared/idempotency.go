package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled.
// Webhook deliveries use "<provider>:<event id>" keys.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Forget removes a key so a failed delivery can be retried
	Forget(ctx context.Context, key string) error

	// IsProcessed reports whether the key is present
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}
