package redis

import (
	"context"
	"errors"
	"fmt"

	"bid-coordinator/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisStateCache shares each auction's lifecycle status between instances
// so one that ends an auction closes bidding everywhere.
type RedisStateCache struct {
	client *redis.Client
}

func NewRedisStateCache(client *redis.Client) *RedisStateCache {
	return &RedisStateCache{client: client}
}

func statusKey(auctionID string) string {
	return fmt.Sprintf("auction:%s:status", auctionID)
}

func (r *RedisStateCache) SetAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	if err := r.client.Set(ctx, statusKey(auctionID), status.String(), 0).Err(); err != nil {
		return fmt.Errorf("cache status of auction %s: %w", auctionID, err)
	}
	return nil
}

// GetAuctionStatus reports pending for auctions no instance has cached yet.
// Pending never blocks bidding; the catalog decides.
func (r *RedisStateCache) GetAuctionStatus(ctx context.Context, auctionID string) (domain.AuctionStatus, error) {
	name, err := r.client.Get(ctx, statusKey(auctionID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.AuctionPending, nil
	}
	if err != nil {
		return domain.AuctionPending, fmt.Errorf("read status of auction %s: %w", auctionID, err)
	}

	status, ok := domain.ParseAuctionStatus(name)
	if !ok {
		return domain.AuctionPending, fmt.Errorf("auction %s has unknown cached status %q", auctionID, name)
	}
	return status, nil
}
