// repositories/link_repository.go
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kaelo-io/referral_backend/config"
	"github.com/kaelo-io/referral_backend/models"
)

type MongoLinkRepository struct {
	collection *mongo.Collection
}

func NewLinkRepository(db *mongo.Client) *MongoLinkRepository {
	return &MongoLinkRepository{
		collection: config.GetCollection(db, "referralLinks"),
	}
}

func (r *MongoLinkRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Link, error) {
	var link models.Link
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *MongoLinkRepository) GetByName(ctx context.Context, userID, programID primitive.ObjectID, name string) (*models.Link, error) {
	filter := bson.M{
		"userId":    userID,
		"programId": programID,
		"name":      bson.M{"$regex": "^" + regexQuoteMeta(name) + "$", "$options": "i"},
	}
	var link models.Link
	err := r.collection.FindOne(ctx, filter).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *MongoLinkRepository) GetActiveByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) (*models.Link, error) {
	filter := bson.M{"userId": userID, "programId": programID, "status": models.LinkStatusActive}
	var link models.Link
	err := r.collection.FindOne(ctx, filter).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *MongoLinkRepository) Create(ctx context.Context, link *models.Link) error {
	now := time.Now().UTC()
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, link)
	return err
}

func (r *MongoLinkRepository) Update(ctx context.Context, link *models.Link) error {
	link.UpdatedAt = time.Now().UTC()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": link.ID}, link)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoLinkRepository) Search(ctx context.Context, filter models.LinkSearchFilter) (*models.LinkSearchResults, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.ProgramID != nil {
		query["programId"] = *filter.ProgramID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	dateRange := bson.M{}
	if filter.DateStart != nil {
		dateRange["$gte"] = *filter.DateStart
	}
	if filter.DateEnd != nil {
		dateRange["$lte"] = *filter.DateEnd
	}
	if len(dateRange) > 0 {
		query["createdAt"] = dateRange
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "name", Value: 1}})
	if filter.PageSize > 0 {
		page := filter.PageNumber
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.PageSize)).SetLimit(int64(filter.PageSize))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.Link{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	return &models.LinkSearchResults{TotalCount: total, Items: items}, nil
}

func (r *MongoLinkRepository) ListByUserAndStatus(ctx context.Context, userID primitive.ObjectID, status models.LinkStatus) ([]models.Link, error) {
	return r.list(ctx, bson.M{"userId": userID, "status": status})
}

func (r *MongoLinkRepository) ListByProgramAndStatus(ctx context.Context, programID primitive.ObjectID, status models.LinkStatus) ([]models.Link, error) {
	return r.list(ctx, bson.M{"programId": programID, "status": status})
}

func (r *MongoLinkRepository) list(ctx context.Context, query bson.M) ([]models.Link, error) {
	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Link
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoLinkRepository) UpdateStatus(ctx context.Context, ids []primitive.ObjectID, to models.LinkStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// IncrementCompletion mirrors the program-level increment: when the owning
// program configures a per-link cap the check and the increment are one
// atomic operation.
func (r *MongoLinkRepository) IncrementCompletion(ctx context.Context, id primitive.ObjectID, limit *int, reward float64) (*models.Link, error) {
	filter := bson.M{"_id": id}
	if limit != nil {
		filter["completionTotal"] = bson.M{"$lt": *limit}
	}
	update := bson.M{
		"$inc": bson.M{"completionTotal": 1, "zltoRewardCumulative": reward},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	var link models.Link
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&link)
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	existing, lookupErr := r.GetByID(ctx, id)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing == nil {
		return nil, mongo.ErrNoDocuments
	}
	return nil, ErrLimitReached
}

func (r *MongoLinkRepository) AggregateByOwner(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	match := bson.M{}
	if filter.UserID != nil {
		match["userId"] = *filter.UserID
	}
	if filter.ProgramID != nil {
		match["programId"] = *filter.ProgramID
	}
	dateRange := bson.M{}
	if filter.DateStart != nil {
		dateRange["$gte"] = *filter.DateStart
	}
	if filter.DateEnd != nil {
		dateRange["$lte"] = *filter.DateEnd
	}
	if len(dateRange) > 0 {
		match["createdAt"] = dateRange
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$userId",
			"linkCount": bson.M{"$sum": 1},
			"linkCountActive": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.LinkStatusActive}}, 1, 0,
			}}},
			"usageCountCompleted": bson.M{"$sum": "$completionTotal"},
			"zltoRewardTotal":     bson.M{"$sum": "$zltoRewardCumulative"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []models.ReferralAnalyticsUser
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
