package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/api"
	"github.com/Ammarkarimi/plagarism-detector/internal/config"
	"github.com/Ammarkarimi/plagarism-detector/internal/configs/env"
	"github.com/Ammarkarimi/plagarism-detector/internal/grammar"
	"github.com/Ammarkarimi/plagarism-detector/internal/infra/mongo"
	redisInfra "github.com/Ammarkarimi/plagarism-detector/internal/infra/redis"
	"github.com/Ammarkarimi/plagarism-detector/internal/logger"
	"github.com/Ammarkarimi/plagarism-detector/internal/plagiarism"
	"github.com/Ammarkarimi/plagarism-detector/internal/repository"
	"github.com/Ammarkarimi/plagarism-detector/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)
	log.Info().
		Strs("languages", languageNames()).
		Str("engine_config", cfg.Engine.Digest()).
		Msg("Starting similarity server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := plagiarism.NewEngine(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analysis engine")
	}

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.MaxConcurrentAnalyses)
	defer workerPool.Close()

	// interface values stay nil when a backend is disabled
	var cache plagiarism.ResultCache
	var store plagiarism.AnalysisStore

	var redisClient *redisInfra.Client
	if cfg.RedisEnabled {
		redisClient, err = redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Redis client")
		}
		defer redisClient.Close()
		cache = repository.NewResultCache(redisClient.Client, cfg.CacheTTL)
	}

	if cfg.MongoEnabled {
		mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB client")
		}
		defer mongoClient.Close(context.Background())

		resultsRepo := repository.NewResultsRepository(repository.NewMongoRepository(mongoClient))
		if err := resultsRepo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure analysis indexes")
		}
		store = resultsRepo
	}

	service := plagiarism.NewService(engine, workerPool, cache, store)

	// closed once the consumer has returned
	consumerDone := make(chan struct{})
	if cfg.StreamEnabled {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "unknown"
		}
		consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])

		retryHandler := stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey, cfg.StreamMaxRetries)
		consumer := stream.NewConsumer(redisClient.Client, stream.ConsumerConfig{
			StreamKey:     cfg.RedisStreamKey,
			ConsumerGroup: cfg.RedisConsumerGroup,
			ConsumerName:  consumerName,
			BatchSize:     cfg.StreamBatchSize,
			Retention:     cfg.StreamRetentionDuration,
		}, service, retryHandler)

		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Redis consumer error")
			}
		}()
		log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer started")
	} else {
		close(consumerDone)
	}

	rateLimiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.RunJanitor(ctx, 10*time.Minute)

	router := api.SetupRoutes(cfg, service, rateLimiter)
	srv := api.StartServer(router, cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	// stops the consumer and the janitor before the pool and clients close
	cancel()
	<-consumerDone

	log.Info().Msg("Shutdown complete")
}

func languageNames() []string {
	langs := grammar.Languages()
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = string(l)
	}
	return names
}
