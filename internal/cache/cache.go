package cache

import (
	"context"
	"time"
)

// Store memoizes pipeline results keyed by a content hash of the uploaded
// files. Values round-trip through JSON so cached results never alias the
// run that produced them. Invalidation is always explicit.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}
