package plagiarism

import (
	"context"
	"fmt"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ResultCache is implemented by repository.ResultCache
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.AnalysisResult, bool, error)
	Set(ctx context.Context, key string, result *models.AnalysisResult) error
}

// AnalysisStore is implemented by repository.ResultsRepository
type AnalysisStore interface {
	InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error)
}

// Service runs analyses for the transports: worker pool, result cache and history.
// cache and store are optional.
type Service struct {
	engine *Engine
	pool   *WorkerPool
	cache  ResultCache
	store  AnalysisStore
}

func NewService(engine *Engine, pool *WorkerPool, cache ResultCache, store AnalysisStore) *Service {
	return &Service{engine: engine, pool: pool, cache: cache, store: store}
}

// Check analyses a pair of files and records the outcome under a fresh id.
// source names the transport.
func (s *Service) Check(ctx context.Context, a, b models.SourceFile, source string) (*models.AnalysisResult, error) {
	return s.CheckAs(ctx, uuid.NewString(), a, b, source)
}

// CheckAs is Check with a caller-chosen analysis id
func (s *Service) CheckAs(ctx context.Context, analysisID string, a, b models.SourceFile, source string) (*models.AnalysisResult, error) {
	key := CacheKey(a, b, s.engine.Config())

	result, hit := s.cached(ctx, key)
	if !hit {
		var err error
		if s.pool != nil {
			result, err = s.pool.Analyze(ctx, s.engine, a, b)
		} else {
			result, err = s.engine.Analyze(ctx, a, b)
		}
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, result); err != nil {
				log.Warn().Err(err).Msg("Failed to cache analysis result")
			}
		}
	}

	out := *result
	out.AnalysisID = analysisID

	if s.store != nil {
		record := &models.AnalysisRecord{
			AnalysisID: out.AnalysisID,
			File1:      meta(a),
			File2:      meta(b),
			Result:     out,
			Source:     source,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.store.InsertAnalysis(ctx, record); err != nil {
			log.Error().Err(err).Str("analysisId", out.AnalysisID).Msg("Failed to store analysis")
		}
	}

	log.Info().
		Str("analysisId", out.AnalysisID).
		Str("source", source).
		Bool("cached", hit).
		Float64("hashSimilarity", out.HashSimilarity).
		Str("verdict", string(out.Verdict)).
		Msg("Analysis served")

	return &out, nil
}

func (s *Service) cached(ctx context.Context, key string) (*models.AnalysisResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	result, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Result cache unavailable, analysing")
		return nil, false
	}
	return result, ok
}

// Get returns a stored analysis, or models.ErrNotFound
func (s *Service) Get(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	if s.store == nil {
		return nil, models.ErrNotFound
	}
	record, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", analysisID, err)
	}
	return record, nil
}

func meta(f models.SourceFile) models.FileMeta {
	return models.FileMeta{
		Name:     f.Name,
		Language: f.Language,
		Size:     len(f.Content),
		Digest:   Digest(f.Content),
	}
}
