package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cardAdvisor/business/recommendation"
	"cardAdvisor/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const recommendationKeyPrefix = "reco:"

var _ recommendation.Cache = (*RecommendationCache)(nil)

// RecommendationCache stores recommendation payloads in Redis so replicas
// share one cache. Backend failures read as a miss.
type RecommendationCache struct {
	client *redis.Client
}

func NewRecommendationCache(client *redis.Client) *RecommendationCache {
	return &RecommendationCache{
		client: client,
	}
}

func (c *RecommendationCache) Get(ctx context.Context, key string) (recommendation.Payload, bool) {
	val, err := c.client.Get(ctx, recommendationKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("recommendation cache read failed", "key", key, "error", err)
		}
		return recommendation.Payload{}, false
	}

	var payload recommendation.Payload
	if err := json.Unmarshal(val, &payload); err != nil {
		logger.Warn("recommendation cache entry corrupt", "key", key, "error", err)
		return recommendation.Payload{}, false
	}

	return payload, true
}

func (c *RecommendationCache) Set(ctx context.Context, key string, payload recommendation.Payload, ttl time.Duration) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("recommendation cache encode failed", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, recommendationKeyPrefix+key, data, ttl).Err(); err != nil {
		logger.Warn("recommendation cache write failed", "key", key, "error", err)
	}
}

// Clear removes every recommendation entry, leaving other keys alone.
func (c *RecommendationCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, recommendationKeyPrefix+"*", 100).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete recommendation keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan recommendation keys: %w", err)
	}

	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete recommendation keys: %w", err)
		}
	}

	return nil
}
