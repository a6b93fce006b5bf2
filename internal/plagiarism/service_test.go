package plagiarism

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.AnalysisResult
	gets    int
	failGet bool
}

func (c *memoryCache) Get(_ context.Context, key string) (*models.AnalysisResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("connection refused")
	}
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, result *models.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*models.AnalysisResult)
	}
	c.entries[key] = result
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*models.AnalysisRecord
}

func (s *memoryStore) InsertAnalysis(_ context.Context, record *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]*models.AnalysisRecord)
	}
	s.records[record.AnalysisID] = record
	return nil
}

func (s *memoryStore) GetAnalysis(_ context.Context, id string) (*models.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func TestServiceCheckCachesAndStores(t *testing.T) {
	cache := &memoryCache{}
	store := &memoryStore{}
	pool := NewWorkerPool(context.Background(), 1)
	defer pool.Close()
	svc := NewService(newEngine(t, nil), pool, cache, store)

	a := file("file1", "a.py", bubbleSort)
	b := file("file2", "b.py", bubbleSortReformatted)

	first, err := svc.Check(context.Background(), a, b, "http")
	require.NoError(t, err)
	assert.NotEmpty(t, first.AnalysisID)
	assert.Len(t, cache.entries, 1)
	for _, cached := range cache.entries {
		assert.Empty(t, cached.AnalysisID, "cached results carry no id")
	}

	second, err := svc.Check(context.Background(), a, b, "stream")
	require.NoError(t, err)
	assert.NotEqual(t, first.AnalysisID, second.AnalysisID)
	assert.Equal(t, first.HashSimilarity, second.HashSimilarity)
	assert.Equal(t, first.Verdict, second.Verdict)

	record, err := svc.Get(context.Background(), second.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "stream", record.Source)
	assert.Equal(t, "b.py", record.File2.Name)
	assert.Equal(t, models.LangPython, record.File1.Language)
	assert.Equal(t, len(bubbleSort), record.File1.Size)
	assert.Equal(t, Digest([]byte(bubbleSort)), record.File1.Digest)
	assert.Equal(t, second.Verdict, record.Result.Verdict)
}

func TestServiceCheckWithoutBackends(t *testing.T) {
	svc := NewService(newEngine(t, nil), nil, nil, nil)

	res, err := svc.Check(context.Background(), file("file1", "a.py", bubbleSort), file("file2", "b.py", wordCounter), "http")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictOriginal, res.Verdict)

	_, err = svc.Get(context.Background(), res.AnalysisID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestServiceCheckCacheFailureFallsBack(t *testing.T) {
	cache := &memoryCache{failGet: true}
	svc := NewService(newEngine(t, nil), nil, cache, nil)

	res, err := svc.Check(context.Background(), file("file1", "a.py", bubbleSort), file("file2", "b.py", bubbleSort), "http")
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.HashSimilarity)
}

func TestServiceCheckPropagatesFatalErrors(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(newEngine(t, nil), nil, nil, store)

	_, err := svc.Check(context.Background(), file("file1", "a.py", "x"), file("file2", "b.kt", "x"), "http")
	assert.ErrorIs(t, err, models.ErrUnsupportedLanguage)
	assert.Empty(t, store.records)
}

func TestServiceGetUnknown(t *testing.T) {
	svc := NewService(newEngine(t, nil), nil, nil, &memoryStore{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestServiceCheckAsKeepsID(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(newEngine(t, nil), nil, nil, store)

	res, err := svc.CheckAs(context.Background(), "req-42", file("file1", "a.py", bubbleSort), file("file2", "b.py", bubbleSortRenamed), "stream")
	require.NoError(t, err)
	assert.Equal(t, "req-42", res.AnalysisID)

	record, err := svc.Get(context.Background(), "req-42")
	require.NoError(t, err)
	assert.Equal(t, "stream", record.Source)
}
