// repositories/country_repository.go
package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaelo-io/referral_backend/config"
	"github.com/kaelo-io/referral_backend/models"
)

type MongoCountryRepository struct {
	collection *mongo.Collection
}

func NewCountryRepository(db *mongo.Client) *MongoCountryRepository {
	return &MongoCountryRepository{
		collection: config.GetCollection(db, "countries"),
	}
}

func (r *MongoCountryRepository) GetByCodeAlpha2(ctx context.Context, code string) (*models.Country, error) {
	var country models.Country
	err := r.collection.FindOne(ctx, bson.M{"codeAlpha2": code}).Decode(&country)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &country, nil
}

func (r *MongoCountryRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Country, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var countries []models.Country
	if err := cursor.All(ctx, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}
