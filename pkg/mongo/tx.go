package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a session transaction on db's client.
// Multi-document writes need a replica set; standalone servers reject them.
func WithTransaction(ctx context.Context, db *mongo.Database, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// IsDuplicateKey reports a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
