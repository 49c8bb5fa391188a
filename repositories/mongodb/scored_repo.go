package mongodb

import (
	// Go Internal Packages
	"context"
	stderrors "errors"
	"fmt"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultTimeout = 10 * time.Second

type ScoredRepository struct {
	client     *mongo.Client
	database   string
	collection string
	timeout    time.Duration
}

func NewScoredRepository(client *mongo.Client, database, collection string, timeout time.Duration) *ScoredRepository {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ScoredRepository{client: client, database: database, collection: collection, timeout: timeout}
}

func (r *ScoredRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Upsert writes the scored transaction keyed by _id in a single
// findAndModify, stamping ingested_at with the server clock.
func (r *ScoredRepository) Upsert(ctx context.Context, raw models.RawTransaction, probability, threshold float64, modelVersion string) (models.ScoredTransaction, error) {
	if raw.TransNum == "" {
		return models.ScoredTransaction{}, errors.EmptyParamErr(models.ColTransNum)
	}
	if !(probability >= 0 && probability <= 1) {
		return models.ScoredTransaction{}, errors.ValidationFailedErr(fmt.Errorf("fraud_proba %v outside [0, 1]", probability))
	}

	scored := models.NewScoredTransaction(raw, probability, threshold, modelVersion)
	fields, err := toFields(scored)
	if err != nil {
		return models.ScoredTransaction{}, errors.ValidationFailedErr(err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.D{
		{Key: "$set", Value: fields},
		{Key: "$currentDate", Value: bson.D{{Key: "ingested_at", Value: true}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc ScoredDocument
	err = r.coll().FindOneAndUpdate(ctx, bson.M{"_id": raw.TransNum}, update, opts).Decode(&doc)
	if err != nil {
		return models.ScoredTransaction{}, errors.E(errors.StoreUnavailable, "upsert "+raw.TransNum, err)
	}

	scored.IngestedAt = doc.IngestedAt
	return scored, nil
}

// Get returns the stored record for transNum. found is false when no document exists.
func (r *ScoredRepository) Get(ctx context.Context, transNum string) (models.ScoredTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc ScoredDocument
	err := r.coll().FindOne(ctx, bson.M{"_id": transNum}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return models.ScoredTransaction{}, false, nil
	}
	if err != nil {
		return models.ScoredTransaction{}, false, errors.E(errors.StoreUnavailable, "get "+transNum, err)
	}

	scored, err := doc.Transform()
	if err != nil {
		return models.ScoredTransaction{}, false, errors.E(errors.StoreUnavailable, "decode "+transNum, err)
	}
	return scored, true, nil
}

// EnsureIndexes creates the secondary indexes used by reporting queries.
func (r *ScoredRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ingested_at", Value: 1}}},
		{Keys: bson.D{{Key: "fraud_flag", Value: 1}, {Key: "ingested_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", r.collection, err)
	}
	return nil
}
