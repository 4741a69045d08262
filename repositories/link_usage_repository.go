// repositories/link_usage_repository.go
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

type MongoLinkUsageRepository struct {
	collection *mongo.Collection
}

func NewLinkUsageRepository(db *mongo.Client) *MongoLinkUsageRepository {
	return &MongoLinkUsageRepository{
		collection: config.GetCollection(db, "referralLinkUsages"),
	}
}

func (r *MongoLinkUsageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LinkUsage, error) {
	var usage models.LinkUsage
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&usage)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// GetByUserAndProgram finds the referee's usage row for a program. A user
// claims at most once per program regardless of which link they used.
func (r *MongoLinkUsageRepository) GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) (*models.LinkUsage, error) {
	var usage models.LinkUsage
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "programId": programID}).Decode(&usage)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

func (r *MongoLinkUsageRepository) Create(ctx context.Context, usage *models.LinkUsage) error {
	now := time.Now().UTC()
	if usage.ID.IsZero() {
		usage.ID = primitive.NewObjectID()
	}
	usage.CreatedAt = now
	usage.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, usage)
	return err
}

func (r *MongoLinkUsageRepository) Update(ctx context.Context, usage *models.LinkUsage) error {
	usage.UpdatedAt = time.Now().UTC()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": usage.ID}, usage)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoLinkUsageRepository) Search(ctx context.Context, filter models.LinkUsageSearchFilter) (*models.LinkUsageSearchResults, error) {
	query := bson.M{}
	if filter.UserIDReferee != nil {
		query["userId"] = *filter.UserIDReferee
	}
	if filter.UserIDReferrer != nil {
		query["userIdReferrer"] = *filter.UserIDReferrer
	}
	if filter.ProgramID != nil {
		query["programId"] = *filter.ProgramID
	}
	if filter.LinkID != nil {
		query["linkId"] = *filter.LinkID
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
		query["dateClaimed"] = dateRange
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "dateClaimed", Value: -1}})
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

	items := []models.LinkUsage{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	return &models.LinkUsageSearchResults{TotalCount: total, Items: items}, nil
}

func (r *MongoLinkUsageRepository) ListByStatus(ctx context.Context, status models.LinkUsageStatus) ([]models.LinkUsage, error) {
	return r.list(ctx, bson.M{"status": status})
}

func (r *MongoLinkUsageRepository) ListPendingByLinkIDs(ctx context.Context, linkIDs []primitive.ObjectID) ([]models.LinkUsage, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"linkId": bson.M{"$in": linkIDs}, "status": models.LinkUsageStatusPending})
}

func (r *MongoLinkUsageRepository) list(ctx context.Context, query bson.M) ([]models.LinkUsage, error) {
	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.LinkUsage
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoLinkUsageRepository) AggregateByReferee(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	return r.aggregateByField(ctx, "$userId", "$zltoRewardReferee", filter)
}

func (r *MongoLinkUsageRepository) AggregateByReferrer(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	return r.aggregateByField(ctx, "$userIdReferrer", "$zltoRewardReferrer", filter)
}

func (r *MongoLinkUsageRepository) aggregateByField(ctx context.Context, groupField, rewardField string, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	match := bson.M{}
	if filter.ProgramID != nil {
		match["programId"] = *filter.ProgramID
	}
	if filter.UserID != nil {
		switch groupField {
		case "$userId":
			match["userId"] = *filter.UserID
		default:
			match["userIdReferrer"] = *filter.UserID
		}
	}
	dateRange := bson.M{}
	if filter.DateStart != nil {
		dateRange["$gte"] = *filter.DateStart
	}
	if filter.DateEnd != nil {
		dateRange["$lte"] = *filter.DateEnd
	}
	if len(dateRange) > 0 {
		match["dateClaimed"] = dateRange
	}

	countByStatus := func(status models.LinkUsageStatus) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$status", status}}, 1, 0,
		}}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":                 groupField,
			"usageCountCompleted": countByStatus(models.LinkUsageStatusCompleted),
			"usageCountPending":   countByStatus(models.LinkUsageStatusPending),
			"usageCountExpired":   countByStatus(models.LinkUsageStatusExpired),
			"zltoRewardTotal": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.LinkUsageStatusCompleted}},
				bson.M{"$ifNull": bson.A{rewardField, 0}}, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "zltoRewardTotal", Value: -1}}}},
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
