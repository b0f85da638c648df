// internal/app/store/counters/counterstore.go
package counterstore

import (
	"context"
	"errors"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store hands out monotonically increasing sequence numbers.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

// Next atomically increments the named counter and returns the new value.
// The first call for a name returns 1.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	v, err := s.next(ctx, name)
	if errors.Is(err, errs.ErrConflict) {
		// Two first calls raced on the upsert; the counter now exists.
		return s.next(ctx, name)
	}
	return v, err
}

func (s *Store) next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, storeerr.Map("next "+name, err)
	}
	return doc.Seq, nil
}
