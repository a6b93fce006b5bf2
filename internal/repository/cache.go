package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ResultCache keeps analysis results in Redis, keyed by the content of both files
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Get reports false on a cache miss
func (c *ResultCache) Get(ctx context.Context, key string) (*models.AnalysisResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached result: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, result *models.AnalysisResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Error().Err(err).
			Str("redisKey", key).
			Msg("Failed to cache result in Redis")
		return fmt.Errorf("failed to cache result in Redis: %w", err)
	}

	log.Trace().Str("redisKey", key).Msg("Result cached")
	return nil
}
