package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrPermanent marks failures that retrying cannot fix
var ErrPermanent = errors.New("permanent failure")

// RetryHandler retries with exponential backoff and dead-letters what still fails
type RetryHandler struct {
	client        *redis.Client
	deadLetterKey string
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
}

func NewRetryHandler(client *redis.Client, deadLetterKey string, maxRetries int) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxRetries:    maxRetries,
		baseDelay:     500 * time.Millisecond,
		maxDelay:      10 * time.Second,
	}
}

// RetryWithBackoff runs fn up to maxRetries+1 times. Errors wrapping ErrPermanent
// are dead-lettered at once.
func (r *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt)
			log.Debug().
				Str("message_id", messageID).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying message")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) || ctx.Err() != nil {
			break
		}
		log.Warn().Err(err).Str("message_id", messageID).Int("attempt", attempt+1).Msg("Message processing failed")
	}

	if ctx.Err() != nil {
		// leave it pending; PEL recovery picks it up after restart
		return ctx.Err()
	}

	if dlqErr := r.deadLetter(ctx, messageID, fields, err); dlqErr != nil {
		return fmt.Errorf("%w (dead-letter failed: %v)", err, dlqErr)
	}
	return err
}

func (r *RetryHandler) backoff(attempt int) time.Duration {
	delay := r.baseDelay << (attempt - 1)
	if delay <= 0 || delay > r.maxDelay {
		return r.maxDelay
	}
	return delay
}

func (r *RetryHandler) deadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) error {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values["original_id"] = messageID
	values["error"] = cause.Error()
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.deadLetterKey,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add message to dead-letter stream: %w", err)
	}

	log.Warn().
		Str("message_id", messageID).
		Str("dead_letter_stream", r.deadLetterKey).
		Err(cause).
		Msg("Message moved to dead-letter stream")
	return nil
}
