package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
)

// MongoSearchArchiveRepository implements SearchArchiveRepository
type MongoSearchArchiveRepository struct {
	collection *mongo.Collection
}

// NewMongoSearchArchiveRepository creates a new search archive repository
func NewMongoSearchArchiveRepository(db *mongo.Database) repository.SearchArchiveRepository {
	collection := db.Collection("search_outcomes")

	// Create unique index on segmentKey + searchJobId
	ctx := context.Background()
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "segmentKey", Value: 1},
			{Key: "searchJobId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	collection.Indexes().CreateOne(ctx, indexModel)

	// Create index on createdAt for retention queries
	createdIndex := mongo.IndexModel{
		Keys: bson.M{"createdAt": 1},
	}
	collection.Indexes().CreateOne(ctx, createdIndex)

	return &MongoSearchArchiveRepository{
		collection: collection,
	}
}

// RecordOutcome creates or updates the terminal record for a segment search
func (r *MongoSearchArchiveRepository) RecordOutcome(ctx context.Context, outcome *entity.SearchOutcome) error {
	now := time.Now()
	outcome.UpdatedAt = now

	filter := bson.M{
		"segmentKey":  outcome.SegmentKey,
		"searchJobId": outcome.SearchJobID,
	}
	update := bson.M{
		"$set": bson.M{
			"origin":        outcome.Origin,
			"destination":   outcome.Destination,
			"departureDate": outcome.DepartureDate,
			"status":        outcome.Status,
			"resultCount":   outcome.ResultCount,
			"durationMs":    outcome.DurationMs,
			"completedAt":   outcome.CompletedAt,
			"updatedAt":     outcome.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}
