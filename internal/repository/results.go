package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const analysesCollection = "analyses"

// ResultsRepository stores the history of analyses
type ResultsRepository struct {
	mongoRepo *MongoRepository
}

func NewResultsRepository(mongoRepo *MongoRepository) *ResultsRepository {
	return &ResultsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ResultsRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.CreateIndexes(ctx, analysesCollection,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "analysisId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis indexes: %w", err)
	}
	return nil
}

func (r *ResultsRepository) InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	err := r.mongoRepo.InsertOne(ctx, analysesCollection, record)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// GetAnalysis returns models.ErrNotFound for unknown ids
func (r *ResultsRepository) GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	filter := bson.M{"analysisId": analysisID}

	var record models.AnalysisRecord
	err := r.mongoRepo.FindOne(ctx, analysesCollection, filter).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}

	return &record, nil
}
