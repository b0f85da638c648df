// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the user_roles collection.
// There is exactly one document per user (_id = user id).
type Store struct {
	c *mongo.Collection
}

// New creates a new role store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_roles")}
}

// EnsureIndexes creates the role indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}, {Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("idx_role_expires"),
	})
	return err
}

// Get returns the role row for userID. A user without a row gets the
// baseline member record (version 0), never an error.
func (s *Store) Get(ctx context.Context, userID string) (models.RoleRecord, error) {
	var rec models.RoleRecord
	err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.BaselineRole(userID), nil
	}
	if err != nil {
		return models.RoleRecord{}, storeerr.Map("get role", err)
	}
	return rec, nil
}

// GetMany returns role rows keyed by user id. Users without a row are
// reported with the baseline record.
func (s *Store) GetMany(ctx context.Context, userIDs []string) (map[string]models.RoleRecord, error) {
	out := make(map[string]models.RoleRecord, len(userIDs))
	for _, id := range userIDs {
		out[id] = models.BaselineRole(id)
	}
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, storeerr.Map("get roles", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rec models.RoleRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, storeerr.Map("decode role", err)
		}
		out[rec.UserID] = rec
	}
	if err := cur.Err(); err != nil {
		return nil, storeerr.Map("get roles", err)
	}
	return out, nil
}

// ListByRole returns the rows currently storing role, regardless of expiry.
func (s *Store) ListByRole(ctx context.Context, role string) ([]models.RoleRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "expires_at", Value: -1}}))
	if err != nil {
		return nil, storeerr.Map("list roles", err)
	}
	defer cur.Close(ctx)

	var out []models.RoleRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeerr.Map("list roles", err)
	}
	return out, nil
}

// CompareAndSwap replaces the user's row with rec if the stored version
// still equals rec.Version (0 when no row exists). The written row carries
// Version+1 and is returned. A concurrent writer yields errs.ErrConflict.
//
// The replace is an upsert filtered on {_id, version}: when another writer
// has moved the version on, the filter misses and the upsert collides with
// the existing _id.
func (s *Store) CompareAndSwap(ctx context.Context, rec models.RoleRecord) (models.RoleRecord, error) {
	if rec.UserID == "" {
		return models.RoleRecord{}, errs.NewValidation("user_id", "required")
	}
	expected := rec.Version
	rec.Version = expected + 1
	rec.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": rec.UserID, "version": expected}
	res, err := s.c.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return models.RoleRecord{}, storeerr.Map("swap role", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return models.RoleRecord{}, fmt.Errorf("swap role: %w", errs.ErrConflict)
	}
	return rec, nil
}
