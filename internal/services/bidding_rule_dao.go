package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"bid-coordinator/internal/domain"

	"github.com/go-redis/redis/v8"
)

const incrementRulesKey = "bid_increment_tiers"

type incrementRulesDoc struct {
	Tiers []domain.IncrementTier `json:"tiers"`
}

// RedisIncrementRules keeps the increment table in Redis so every instance
// enforces the same tiers.
type RedisIncrementRules struct {
	client *redis.Client
	mu     sync.RWMutex
	tiers  []domain.IncrementTier
}

func NewRedisIncrementRules(client *redis.Client) *RedisIncrementRules {
	return &RedisIncrementRules{
		client: client,
		tiers:  DefaultIncrementTiers,
	}
}

func (v *RedisIncrementRules) LoadRules(ctx context.Context) error {
	data, err := v.client.Get(ctx, incrementRulesKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Seed the default table
			return v.SaveRules(ctx, DefaultIncrementTiers)
		}
		return fmt.Errorf("load increment rules: %w", err)
	}

	var doc incrementRulesDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("decode increment rules: %w", err)
	}
	if len(doc.Tiers) == 0 {
		return errors.New("decode increment rules: empty tier table")
	}

	v.mu.Lock()
	v.tiers = doc.Tiers
	v.mu.Unlock()
	return nil
}

func (v *RedisIncrementRules) SaveRules(ctx context.Context, tiers []domain.IncrementTier) error {
	data, err := json.Marshal(incrementRulesDoc{Tiers: tiers})
	if err != nil {
		return err
	}
	if err := v.client.Set(ctx, incrementRulesKey, string(data), 0).Err(); err != nil {
		return fmt.Errorf("save increment rules: %w", err)
	}

	v.mu.Lock()
	v.tiers = tiers
	v.mu.Unlock()
	return nil
}

func (v *RedisIncrementRules) Tiers() []domain.IncrementTier {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.IncrementTier, len(v.tiers))
	copy(out, v.tiers)
	return out
}
