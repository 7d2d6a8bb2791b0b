package redis

import (
	"context"
	"fmt"
	"time"
)

// JoinDedupe suppresses duplicate chat-member updates: Telegram may deliver
// the same join more than once, and reconciliation must run once per join.
type JoinDedupe struct {
	client RedisClient
	ttl    time.Duration
}

func NewJoinDedupe(client RedisClient, ttl time.Duration) *JoinDedupe {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &JoinDedupe{client: client, ttl: ttl}
}

// FirstSeen reports whether this is the first join event for the user within
// the dedupe window.
func (d *JoinDedupe) FirstSeen(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf("join_seen:%d", userID)
	return d.client.SetNX(ctx, key, 1, d.ttl)
}
