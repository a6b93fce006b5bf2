package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Analyzer is implemented by plagiarism.Service
type Analyzer interface {
	CheckAs(ctx context.Context, analysisID string, a, b models.SourceFile, source string) (*models.AnalysisResult, error)
}

type ConsumerConfig struct {
	StreamKey     string
	ConsumerGroup string
	ConsumerName  string
	BatchSize     int
	Retention     time.Duration
}

// Consumer reads queued comparisons from a Redis stream through a consumer group
type Consumer struct {
	client       *redis.Client
	cfg          ConsumerConfig
	analyzer     Analyzer
	retryHandler *RetryHandler

	claimIdle       time.Duration
	claimInterval   time.Duration
	cleanupInterval time.Duration
	lastClaim       time.Time
}

func NewConsumer(client *redis.Client, cfg ConsumerConfig, analyzer Analyzer, retryHandler *RetryHandler) *Consumer {
	cfg.BatchSize = max(1, cfg.BatchSize)
	return &Consumer{
		client:          client,
		cfg:             cfg,
		analyzer:        analyzer,
		retryHandler:    retryHandler,
		claimIdle:       time.Minute,
		claimInterval:   30 * time.Second,
		cleanupInterval: time.Hour,
	}
}

// Start blocks until ctx is done and the background trimmer has stopped
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	// entries left pending by a crashed consumer
	if err := c.claimIdleEntries(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to claim pending entries on startup")
	}
	c.lastClaim = time.Now()

	var trimmer sync.WaitGroup
	trimmer.Add(1)
	go func() {
		defer trimmer.Done()
		c.runTrimmer(ctx)
	}()
	defer trimmer.Wait()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.consume(ctx); err != nil {
			log.Error().Err(err).Msg("Error consuming stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ensureGroup creates the group at the start of the stream so entries queued before the
// first consumer came up are still analysed
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.StreamKey, c.cfg.ConsumerGroup, "0").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().
		Str("group", c.cfg.ConsumerGroup).
		Str("stream", c.cfg.StreamKey).
		Msg("Created consumer group")
	return nil
}

func (c *Consumer) consume(ctx context.Context) error {
	if time.Since(c.lastClaim) > c.claimInterval {
		if err := c.claimIdleEntries(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to claim pending entries")
		}
		c.lastClaim = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.ConsumerGroup,
		Consumer: c.cfg.ConsumerName,
		Streams:  []string{c.cfg.StreamKey, ">"},
		Count:    int64(c.cfg.BatchSize),
		Block:    time.Second,
	}).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for i := range stream.Messages {
			c.handle(ctx, &stream.Messages[i])
		}
	}
	return nil
}

// claimIdleEntries takes over entries other consumers left unacknowledged
func (c *Consumer) claimIdleEntries(ctx context.Context) error {
	start := "0-0"
	for {
		entries, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.StreamKey,
			Group:    c.cfg.ConsumerGroup,
			Consumer: c.cfg.ConsumerName,
			MinIdle:  c.claimIdle,
			Start:    start,
			Count:    int64(c.cfg.BatchSize),
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to claim pending entries: %w", err)
		}

		if len(entries) > 0 {
			log.Info().Int("claimed", len(entries)).Msg("Claimed idle pending entries")
		}
		for i := range entries {
			c.handle(ctx, &entries[i])
		}

		if next == "0-0" || ctx.Err() != nil {
			return nil
		}
		start = next
	}
}

func (c *Consumer) handle(ctx context.Context, msg *redis.XMessage) {
	if err := c.processMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to process message")
	}
}

// processMessage analyses one entry. Bad entries are acked and dropped, failed ones are
// acked once the retry handler has dead-lettered them.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	streamMsg := NewStreamMessage(msg)

	req, err := ParseRequest(streamMsg)
	if err != nil {
		_ = c.acknowledge(ctx, msg.ID)
		return fmt.Errorf("invalid analysis request: %w", err)
	}

	_ = UpdateStatus(ctx, c.client, req.RequestID, StatusProcessing)

	a, b := req.Files()
	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		result, err := c.analyzer.CheckAs(ctx, req.RequestID, a, b, "stream")
		if err != nil {
			return classify(err)
		}
		log.Info().
			Str("message_id", msg.ID).
			Str("request_id", req.RequestID).
			Str("verdict", string(result.Verdict)).
			Msg("Queued analysis completed")
		return nil
	}, msg.ID, streamMsg.Values())

	if err != nil && ctx.Err() != nil {
		// stays pending for the next claim
		return err
	}
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	_ = UpdateStatus(ctx, c.client, req.RequestID, status)

	if ackErr := c.acknowledge(ctx, msg.ID); ackErr != nil {
		return ackErr
	}
	return err
}

// classify marks input errors as permanent so they skip the retries
func classify(err error) error {
	if errors.Is(err, models.ErrUnsupportedLanguage) || errors.Is(err, models.ErrResourceLimit) {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	return err
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.cfg.StreamKey, c.cfg.ConsumerGroup, messageID).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge %s: %w", messageID, err)
	}
	log.Debug().Str("message_id", messageID).Msg("Message acknowledged")
	return nil
}

// trim drops entries older than the retention window
func (c *Consumer) trim(ctx context.Context) error {
	cutoff := time.Now().Add(-c.cfg.Retention)
	trimmed, err := c.client.XTrimMinID(ctx, c.cfg.StreamKey, fmt.Sprintf("%d-0", cutoff.UnixMilli())).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Trimmed old stream entries")
	}
	return nil
}

func (c *Consumer) runTrimmer(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		if err := c.trim(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to trim stream")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
