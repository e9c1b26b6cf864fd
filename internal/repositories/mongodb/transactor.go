package mongodb

import (
	"context"
	"errors"

	"campusride/internal/repositories/interfaces"
	"campusride/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactor struct {
	db *database.MongoDB
}

func NewTransactor(db *database.MongoDB) interfaces.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.db.WithTransaction(ctx, fn)
}

// notFound maps the driver's no-documents error onto the repository sentinel.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interfaces.ErrNotFound
	}
	return err
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
