// repositories/block_repository.go
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaelo-io/referral_backend/config"
	"github.com/kaelo-io/referral_backend/models"
)

type MongoBlockRepository struct {
	collection *mongo.Collection
}

func NewBlockRepository(db *mongo.Client) *MongoBlockRepository {
	return &MongoBlockRepository{
		collection: config.GetCollection(db, "referralBlocks"),
	}
}

func (r *MongoBlockRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Block, error) {
	var block models.Block
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "active": true}).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

func (r *MongoBlockRepository) Create(ctx context.Context, block *models.Block) error {
	now := time.Now().UTC()
	if block.ID.IsZero() {
		block.ID = primitive.NewObjectID()
	}
	block.CreatedAt = now
	block.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, block)
	return err
}

func (r *MongoBlockRepository) Update(ctx context.Context, block *models.Block) error {
	block.UpdatedAt = time.Now().UTC()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": block.ID}, block)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

type MongoBlockReasonRepository struct {
	collection *mongo.Collection
}

func NewBlockReasonRepository(db *mongo.Client) *MongoBlockReasonRepository {
	return &MongoBlockReasonRepository{
		collection: config.GetCollection(db, "referralBlockReasons"),
	}
}

func (r *MongoBlockReasonRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BlockReason, error) {
	var reason models.BlockReason
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reason)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &reason, nil
}
