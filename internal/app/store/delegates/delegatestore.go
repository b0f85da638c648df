// internal/app/store/delegates/delegatestore.go
package delegatestore

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages delegate registrations. Rows are never deleted; they stay
// verifiable after the manager's grant ends.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("delegates")}
}

// EnsureIndexes creates the delegate indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "manager_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_manager_created"),
	})
	return err
}

// Create inserts d. The caller assigns the id.
func (s *Store) Create(ctx context.Context, d models.Delegate) (models.Delegate, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.CustomData == nil {
		d.CustomData = map[string]string{}
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Delegate{}, storeerr.Map("create delegate", err)
	}
	return d, nil
}

// Get loads a delegate by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Delegate, error) {
	var d models.Delegate
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, storeerr.Map("get delegate", err)
	}
	return &d, nil
}

// ListByManager returns the manager's delegates, newest first.
func (s *Store) ListByManager(ctx context.Context, managerID string, limit int64) ([]models.Delegate, error) {
	if limit <= 0 {
		limit = 500
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"manager_id": managerID}, opts)
	if err != nil {
		return nil, storeerr.Map("list delegates", err)
	}
	defer cur.Close(ctx)

	var out []models.Delegate
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeerr.Map("list delegates", err)
	}
	return out, nil
}
