package redis

import (
	"context"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
)

var _ repository.ReplayCache = (*ReplayCache)(nil)

// ReplayCache marks webhook signatures with SetNX so a delivery inside the
// replay window is accepted exactly once. The timestamp check bounds how
// long a marker has to live, so the TTL is short.
type ReplayCache struct {
	cli *Client
}

func NewReplayCache(c *Client) *ReplayCache { return &ReplayCache{cli: c} }

func (r *ReplayCache) MarkOnce(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return r.cli.SetNX(ctx, "paywith302:replay:"+token, "1", ttl)
}
