package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding reports.
const CollectionName = "reports"

// MongoRepo implements Repo on a MongoDB collection, one document per report.
type MongoRepo struct {
	Collection *mongo.Collection
}

func NewMongoRepo(database *mongo.Database) *MongoRepo {
	return &MongoRepo{Collection: database.Collection(CollectionName)}
}

// reportDocument is the stored shape. The analysis is kept as a nested
// document so it stays queryable from the shell.
type reportDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	OriginalText string    `bson:"originalText"`
	Summary      string    `bson:"summary"`
	Analysis     bson.M    `bson:"analysis"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// EnsureIndexes creates the history index used by ListByUser.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (r *MongoRepo) Save(ctx context.Context, report Report) error {
	doc, err := toDocument(report)
	if err != nil {
		return err
	}
	_, err = r.Collection.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"userId": userID}, historyFindOptions(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]Report, 0)
	for cursor.Next(ctx) {
		var doc reportDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		report, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, cursor.Err()
}

func (r *MongoRepo) GetByID(ctx context.Context, userID, reportID string) (Report, error) {
	var doc reportDocument
	err := r.Collection.FindOne(ctx, bson.M{"_id": reportID, "userId": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return fromDocument(doc)
}

func historyFindOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))
}

// toDocument round-trips the analysis through JSON so the stored field names
// match the API's camelCase names.
func toDocument(report Report) (reportDocument, error) {
	payload, err := json.Marshal(report.Analysis)
	if err != nil {
		return reportDocument{}, fmt.Errorf("marshal analysis: %w", err)
	}
	var nested bson.M
	if err := bson.UnmarshalExtJSON(payload, false, &nested); err != nil {
		return reportDocument{}, fmt.Errorf("convert analysis: %w", err)
	}
	return reportDocument{
		ID:           report.ID,
		UserID:       report.UserID,
		OriginalText: report.OriginalText,
		Summary:      report.Summary,
		Analysis:     nested,
		CreatedAt:    report.CreatedAt.UTC(),
	}, nil
}

func fromDocument(doc reportDocument) (Report, error) {
	report := Report{
		ID:           doc.ID,
		UserID:       doc.UserID,
		OriginalText: doc.OriginalText,
		Summary:      doc.Summary,
		CreatedAt:    doc.CreatedAt.UTC(),
	}
	var payload []byte
	if doc.Analysis != nil {
		var err error
		payload, err = bson.MarshalExtJSON(doc.Analysis, false, false)
		if err != nil {
			return Report{}, fmt.Errorf("convert analysis for report %s: %w", doc.ID, err)
		}
	}
	if err := decodeAnalysis(payload, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}
