// internal/app/store/eventforms/eventformstore.go
package eventformstore

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the event_forms collection.
// Each manager has at most one form (_id = manager user id).
type Store struct {
	c *mongo.Collection
}

// New creates a new event form store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("event_forms")}
}

// Get returns the manager's form.
func (s *Store) Get(ctx context.Context, managerID string) (*models.EventForm, error) {
	var f models.EventForm
	if err := s.c.FindOne(ctx, bson.M{"_id": managerID}).Decode(&f); err != nil {
		return nil, storeerr.Map("get event form", err)
	}
	return &f, nil
}

// Save upserts the manager's form, keeping created_at from the first save.
func (s *Store) Save(ctx context.Context, f models.EventForm) (models.EventForm, error) {
	now := time.Now().UTC()
	f.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"fields":     f.Fields,
			"is_active":  f.IsActive,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved models.EventForm
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": f.ManagerID}, update, opts).Decode(&saved); err != nil {
		return models.EventForm{}, storeerr.Map("save event form", err)
	}
	return saved, nil
}

// SetActive toggles the form. A manager without a form is not an error.
func (s *Store) SetActive(ctx context.Context, managerID string, active bool) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": managerID},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}},
	)
	return storeerr.Map("set event form active", err)
}
