// repositories/mongo_transactor.go
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactor runs callbacks inside a MongoDB session transaction.
// The session context is propagated so that every repository call made
// from fn joins the same transaction.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the transaction already on the context instead of
	// opening a second session whose writes would commit independently.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
