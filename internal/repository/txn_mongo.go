package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTxnRunner struct {
	client *mongo.Client
}

// NewTxnRunner returns a TxnRunner backed by MongoDB sessions. Requires
// a replica set or sharded deployment, which is what multi-document
// transactions need anyway.
func NewTxnRunner(db *mongo.Database) TxnRunner {
	return &mongoTxnRunner{client: db.Client()}
}

func (t mongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
