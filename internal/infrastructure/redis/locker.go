package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bid-coordinator/pkg/utils"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

type lockValue struct {
	Token     string    `json:"token"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisLocker shares auction locks across instances. Each lock expires
// after ttl so a crashed holder cannot wedge an auction.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	tokens map[string]string // auctionID -> raw value we wrote
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]string),
	}
}

func lockKey(auctionID string) string {
	return fmt.Sprintf("auction:%s:lock", auctionID)
}

func (r *RedisLocker) Lock(ctx context.Context, auctionID, reason string) (bool, error) {
	raw, err := json.Marshal(lockValue{
		Token:     utils.GenerateID("lock"),
		Reason:    reason,
		Timestamp: r.now(),
	})
	if err != nil {
		return false, err
	}

	ok, err := r.client.SetNX(ctx, lockKey(auctionID), string(raw), r.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		r.mu.Lock()
		r.tokens[auctionID] = string(raw)
		r.mu.Unlock()
	}
	return ok, nil
}

func (r *RedisLocker) Unlock(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	raw, ok := r.tokens[auctionID]
	delete(r.tokens, auctionID)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, r.client, []string{lockKey(auctionID)}, raw).Err()
}

func (r *RedisLocker) IsLocked(ctx context.Context, auctionID string) (bool, error) {
	n, err := r.client.Exists(ctx, lockKey(auctionID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SweepOlderThan forgets local tokens older than cutoff. Redis expires
// the keys themselves.
func (r *RedisLocker) SweepOlderThan(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, raw := range r.tokens {
		var v lockValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil || v.Timestamp.Before(cutoff) {
			delete(r.tokens, id)
			removed++
		}
	}
	return removed
}
