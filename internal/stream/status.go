package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Status is the progress of a queued analysis
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

const statusTTL = 12 * time.Hour

// StatusKey is the Redis key holding the status of a request
func StatusKey(requestID string) string {
	return "similarity:status:" + requestID
}

// UpdateStatus records the status of a queued request. Failures are logged and returned.
func UpdateStatus(ctx context.Context, client *redis.Client, requestID string, status Status) error {
	switch status {
	case StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("unknown status: %s", status)
	}

	key := StatusKey(requestID)
	if err := client.Set(ctx, key, string(status), statusTTL).Err(); err != nil {
		log.Error().Err(err).
			Str("status", string(status)).
			Str("request_id", requestID).
			Str("redisKey", key).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("status", string(status)).
		Str("request_id", requestID).
		Msg("Status updated in Redis")

	return nil
}
