package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/configs/env"
	"github.com/Ammarkarimi/plagarism-detector/internal/plagiarism"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the application
type Config struct {
	// Engine
	Engine           plagiarism.EngineConfig
	EngineConfigFile string

	// Server
	ServerPort            string
	MaxUploadBytes        int64
	MaxConcurrentAnalyses int
	AnalysisTimeout       time.Duration
	CORSOrigins           []string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Stream
	StreamEnabled           bool
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration
	StreamMaxRetries        int
	StreamBatchSize         int

	// MongoDB
	MongoEnabled bool
	MongoURI     string
	MongoDBName  string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Engine
	cfg.Engine = plagiarism.DefaultEngineConfig()
	cfg.EngineConfigFile = env.GetEnv("ENGINE_CONFIG_FILE", "")
	if cfg.EngineConfigFile != "" {
		if err := loadEngineFile(cfg.EngineConfigFile, &cfg.Engine); err != nil {
			return nil, err
		}
	}
	applyEngineEnv(&cfg.Engine)

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8000")
	cfg.MaxUploadBytes = env.GetEnvInt64("MAX_UPLOAD_BYTES", cfg.Engine.MaxSourceBytes)
	cfg.MaxConcurrentAnalyses = env.GetEnvInt("MAX_CONCURRENT_ANALYSES", defaultWorkers())
	cfg.AnalysisTimeout = env.GetEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second)
	cfg.CORSOrigins = env.GetEnvList("CORS_ORIGINS", []string{"http://localhost:8080"})

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)
	cfg.RateLimitBurst = env.GetEnvInt("RATE_LIMIT_BURST", 20)

	// Redis
	cfg.RedisEnabled = env.GetEnvBool("REDIS_ENABLED", false)
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.CacheTTL = env.GetEnvDuration("CACHE_TTL", 12*time.Hour)

	// Stream
	cfg.StreamEnabled = env.GetEnvBool("STREAM_ENABLED", false)
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "similarity:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "similarity:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "similarity:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_HOURS", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour
	cfg.StreamMaxRetries = env.GetEnvInt("STREAM_MAX_RETRIES", 3)
	cfg.StreamBatchSize = env.GetEnvInt("STREAM_BATCH_SIZE", 10)

	// MongoDB
	cfg.MongoEnabled = env.GetEnvBool("MONGO_ENABLED", false)
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "similarity")

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogFormat = env.GetEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// loadEngineFile overlays the "engine" section of a YAML, TOML or JSON file onto dst
func loadEngineFile(path string, dst *plagiarism.EngineConfig) error {
	k := koanf.New(".")

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".json":
		parser = json.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return fmt.Errorf("unsupported engine config format: %s", path)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to load engine config %s: %w", path, err)
	}
	if err := k.Unmarshal("engine", dst); err != nil {
		return fmt.Errorf("failed to decode engine config %s: %w", path, err)
	}
	return nil
}

func applyEngineEnv(e *plagiarism.EngineConfig) {
	e.KGram = env.GetEnvInt("ENGINE_KGRAM", e.KGram)
	e.Window = env.GetEnvInt("ENGINE_WINDOW", e.Window)
	e.CanonicalizeIdentifiers = env.GetEnvBool("ENGINE_CANONICALIZE_IDENTIFIERS", e.CanonicalizeIdentifiers)
	e.HashThreshold = env.GetEnvFloat("ENGINE_HASH_THRESHOLD", e.HashThreshold)
	e.ASTThreshold = env.GetEnvFloat("ENGINE_AST_THRESHOLD", e.ASTThreshold)
	e.StructuralFloor = env.GetEnvFloat("ENGINE_STRUCTURAL_FLOOR", e.StructuralFloor)
	e.NearMatch = env.GetEnvFloat("ENGINE_NEAR_MATCH", e.NearMatch)
	e.TEDTopN = env.GetEnvInt("ENGINE_TED_TOP_N", e.TEDTopN)
	e.TEDMaxNodes = env.GetEnvInt("ENGINE_TED_MAX_NODES", e.TEDMaxNodes)
	e.TEDBudget = env.GetEnvInt64("ENGINE_TED_BUDGET", e.TEDBudget)
	e.MaxSourceBytes = env.GetEnvInt64("ENGINE_MAX_SOURCE_BYTES", e.MaxSourceBytes)
	e.MaxTreeNodes = env.GetEnvInt("ENGINE_MAX_TREE_NODES", e.MaxTreeNodes)
	e.MaxTreeDepth = env.GetEnvInt("ENGINE_MAX_TREE_DEPTH", e.MaxTreeDepth)
}

// CPU-based default, leaving a quarter of the cores to the system
func defaultWorkers() int {
	total := runtime.NumCPU()
	return max(1, total-max(1, total/4))
}

func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be greater than 0")
	}
	if c.MaxConcurrentAnalyses <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_ANALYSES must be greater than 0")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be greater than 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be greater than 0")
	}
	if c.RedisEnabled && c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.StreamEnabled {
		if !c.RedisEnabled {
			return fmt.Errorf("STREAM_ENABLED requires REDIS_ENABLED")
		}
		if c.StreamRetentionDuration <= 0 {
			return fmt.Errorf("STREAM_RETENTION_HOURS must be greater than 0")
		}
		if c.StreamMaxRetries < 0 {
			return fmt.Errorf("STREAM_MAX_RETRIES must not be negative")
		}
		if c.StreamBatchSize <= 0 {
			return fmt.Errorf("STREAM_BATCH_SIZE must be greater than 0")
		}
	}
	if c.MongoEnabled {
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when MONGO_ENABLED is set")
		}
		if c.MongoDBName == "" {
			return fmt.Errorf("MONGO_DB_NAME is required when MONGO_ENABLED is set")
		}
	}
	return nil
}
