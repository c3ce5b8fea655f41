package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding user profiles.
const CollectionName = "users"

// MongoRepo implements Repo on a MongoDB collection keyed by user id.
type MongoRepo struct {
	Collection *mongo.Collection
	Now        func() time.Time
}

func NewMongoRepo(database *mongo.Database) *MongoRepo {
	return &MongoRepo{Collection: database.Collection(CollectionName), Now: time.Now}
}

type userDocument struct {
	ID         string    `bson:"_id"`
	Email      string    `bson:"email"`
	Name       string    `bson:"name,omitempty"`
	PictureURL string    `bson:"pictureUrl,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func (r *MongoRepo) Upsert(ctx context.Context, user User) error {
	if err := validate(user); err != nil {
		return err
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": user.ID}, upsertUpdate(user, r.now()), options.Update().SetUpsert(true))
	return err
}

func (r *MongoRepo) GetByID(ctx context.Context, userID string) (User, error) {
	var doc userDocument
	err := r.Collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return User{
		ID:         doc.ID,
		Email:      doc.Email,
		Name:       doc.Name,
		PictureURL: doc.PictureURL,
		CreatedAt:  doc.CreatedAt.UTC(),
		UpdatedAt:  doc.UpdatedAt.UTC(),
	}, nil
}

// upsertUpdate refreshes profile fields and sets createdAt only on insert.
func upsertUpdate(user User, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"email":      user.Email,
			"name":       user.Name,
			"pictureUrl": user.PictureURL,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
}

func (r *MongoRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
