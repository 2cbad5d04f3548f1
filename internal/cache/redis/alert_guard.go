package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertGuard deduplicates alert delivery across service replicas. The first
// instance to claim a report ID within the window sends the alert; everyone
// else skips it. Claims are never released; the TTL is the dedup window.
type AlertGuard struct {
	rdb *redis.Client
}

// NewAlertGuard creates an AlertGuard backed by the given Client.
func NewAlertGuard(c *Client) *AlertGuard {
	return &AlertGuard{rdb: c.Underlying()}
}

func claimKey(key string) string {
	return "alert:sent:" + key
}

// Claim attempts to claim the key for this instance. It returns true when
// the claim is fresh and the caller should proceed.
func (g *AlertGuard) Claim(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, claimKey(key), 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("redis: claim %s: %w", key, err)
	}
	return ok, nil
}
