package repository

import (
	"context"
	"time"
)

// ReplayCache remembers tokens (webhook signatures) seen inside the replay
// window, so a captured delivery cannot be posted twice even though its
// timestamp is still fresh.
type ReplayCache interface {
	// MarkOnce records the token and reports true exactly once per ttl.
	MarkOnce(ctx context.Context, token string, ttl time.Duration) (bool, error)
}
