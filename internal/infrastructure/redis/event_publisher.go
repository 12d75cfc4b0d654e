package redis

import (
	"context"
	"encoding/json"

	"bid-coordinator/internal/domain"

	"github.com/go-redis/redis/v8"
)

const bidEventsChannel = "bid_events"

type RedisEventPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, channel: bidEventsChannel}
}

func (r *RedisEventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}
