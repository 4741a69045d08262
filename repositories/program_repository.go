// repositories/program_repository.go
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

type MongoProgramRepository struct {
	collection *mongo.Collection
}

func NewProgramRepository(db *mongo.Client) *MongoProgramRepository {
	return &MongoProgramRepository{
		collection: config.GetCollection(db, "referralPrograms"),
	}
}

func (r *MongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	var program models.Program
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

func (r *MongoProgramRepository) GetByName(ctx context.Context, name string) (*models.Program, error) {
	var program models.Program
	filter := bson.M{"name": bson.M{"$regex": "^" + regexQuoteMeta(name) + "$", "$options": "i"}}
	err := r.collection.FindOne(ctx, filter).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

func (r *MongoProgramRepository) GetDefault(ctx context.Context) (*models.Program, error) {
	var program models.Program
	err := r.collection.FindOne(ctx, bson.M{"isDefault": true}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

func (r *MongoProgramRepository) Create(ctx context.Context, program *models.Program) error {
	now := time.Now().UTC()
	if program.ID.IsZero() {
		program.ID = primitive.NewObjectID()
	}
	program.CreatedAt = now
	program.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, program)
	return err
}

func (r *MongoProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": program.ID}, program)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoProgramRepository) Search(ctx context.Context, filter models.ProgramSearchFilter) (*models.ProgramSearchResults, error) {
	query := bson.M{}

	// nil country filter means unrestricted (admin); otherwise match
	// programs declaring one of the countries or no countries at all
	// (implicit worldwide)
	if filter.Countries != nil {
		query["$or"] = bson.A{
			bson.M{"countryIds": bson.M{"$in": filter.Countries}},
			bson.M{"countryIds": bson.M{"$exists": false}},
			bson.M{"countryIds": bson.M{"$size": 0}},
		}
	}

	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}

	if filter.ValueContains != "" {
		query["name"] = bson.M{"$regex": regexQuoteMeta(filter.ValueContains), "$options": "i"}
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

	items := []models.Program{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	return &models.ProgramSearchResults{TotalCount: total, Items: items}, nil
}

func (r *MongoProgramRepository) ListEnded(ctx context.Context) ([]models.Program, error) {
	filter := bson.M{
		"status":  bson.M{"$in": bson.A{models.ProgramStatusActive, models.ProgramStatusUnCompletable}},
		"dateEnd": bson.M{"$ne": nil, "$lte": time.Now().UTC()},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Program
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementCompletion performs the cap check and the increment as one
// atomic FindOneAndUpdate; two concurrent completions can therefore never
// push CompletionTotal past CompletionLimit.
func (r *MongoProgramRepository) IncrementCompletion(ctx context.Context, id primitive.ObjectID, reward float64) (*models.Program, error) {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"completionLimit": bson.M{"$exists": false}},
			bson.M{"completionLimit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$completionTotal", "$completionLimit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"completionTotal": 1, "zltoRewardCumulative": reward},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	var program models.Program
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&program)
	if err == nil {
		return &program, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the program does not exist or its cap is exhausted
	existing, lookupErr := r.GetByID(ctx, id)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing == nil {
		return nil, mongo.ErrNoDocuments
	}
	return nil, ErrLimitReached
}
