// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages membership applications.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// EnsureIndexes creates the application indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "applied_at", Value: -1}},
			Options: options.Index().SetName("idx_email_applied"),
		},
		{
			Keys:    bson.D{{Key: "phone_digits", Value: 1}, {Key: "applied_at", Value: -1}},
			Options: options.Index().SetName("idx_phone_applied"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "state", Value: 1}, {Key: "applied_at", Value: -1}},
			Options: options.Index().SetName("idx_status_state_applied"),
		},
	})
	return err
}

// Create inserts a pending application and returns it with its id.
func (s *Store) Create(ctx context.Context, a models.Application) (models.Application, error) {
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	a.FullName = normalize.Name(a.FullName)
	a.Email = normalize.Email(a.Email)
	a.Phone = normalize.Phone(a.Phone)
	a.PhoneDigits = normalize.PhoneDigits(a.Phone)
	a.Status = models.ApplicationPending
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Application{}, storeerr.Map("create application", err)
	}
	return a, nil
}

// Get loads an application by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, storeerr.Map("get application", err)
	}
	return &a, nil
}

func (s *Store) latest(ctx context.Context, op string, filter bson.M) (*models.Application, error) {
	var a models.Application
	opts := options.FindOne().SetSort(bson.D{{Key: "applied_at", Value: -1}})
	if err := s.c.FindOne(ctx, filter, opts).Decode(&a); err != nil {
		return nil, storeerr.Map(op, err)
	}
	return &a, nil
}

// LatestByEmail returns the most recent application filed with email.
func (s *Store) LatestByEmail(ctx context.Context, email string) (*models.Application, error) {
	return s.latest(ctx, "application by email", bson.M{"email": normalize.Email(email)})
}

// LatestByPhone returns the most recent application filed with phone.
func (s *Store) LatestByPhone(ctx context.Context, phone string) (*models.Application, error) {
	digits := normalize.PhoneDigits(phone)
	if digits == "" {
		return nil, fmt.Errorf("application by phone: %w", errs.ErrNotFound)
	}
	return s.latest(ctx, "application by phone", bson.M{"phone_digits": digits})
}

// Transition is the reviewed outcome written by Decide.
type Transition struct {
	Status          string
	ReviewedBy      string
	ReviewedAt      time.Time
	RejectionReason string
	MembershipID    string
}

// Decide moves a pending application to t.Status. The update is conditional
// on status still being pending; otherwise errs.ErrAlreadyProcessed (or
// errs.ErrNotFound if the id does not exist) is returned.
func (s *Store) Decide(ctx context.Context, id string, t Transition) error {
	if t.Status != models.ApplicationApproved && t.Status != models.ApplicationRejected {
		return errs.NewValidation("status", "must be approved or rejected")
	}
	set := bson.M{
		"status":      t.Status,
		"reviewed_by": t.ReviewedBy,
		"reviewed_at": t.ReviewedAt,
	}
	if t.RejectionReason != "" {
		set["rejection_reason"] = t.RejectionReason
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ApplicationPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return storeerr.Map("decide application", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("decide application: %w", errs.ErrAlreadyProcessed)
}

// SetMembershipID records the membership id issued for an approved
// application.
func (s *Store) SetMembershipID(ctx context.Context, id, membershipID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ApplicationApproved},
		bson.M{"$set": bson.M{"membership_id": membershipID}},
	)
	return storeerr.Map("set membership id", err)
}

// Reopen returns an approved application to pending. It is the
// compensation step when materializing the identity fails after approval.
func (s *Store) Reopen(ctx context.Context, id string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ApplicationApproved},
		bson.M{
			"$set":   bson.M{"status": models.ApplicationPending},
			"$unset": bson.M{"reviewed_by": "", "reviewed_at": "", "membership_id": ""},
		},
	)
	return storeerr.Map("reopen application", err)
}

// ListFilter restricts application listings. Empty fields do not filter.
type ListFilter struct {
	Status   string
	State    string
	District string
	Limit    int64
	Offset   int64
}

// List returns applications matching f, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Application, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.State != "" {
		q["state"] = f.State
	}
	if f.District != "" {
		q["district"] = f.District
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "applied_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, storeerr.Map("list applications", err)
	}
	defer cur.Close(ctx)

	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeerr.Map("list applications", err)
	}
	return out, nil
}
