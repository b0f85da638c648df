// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages identities (the profile store).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// EnsureIndexes creates the identity indexes. membership_id is unique among
// documents that carry one.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "membership_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_membership_id").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"membership_id": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "district", Value: 1}, {Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_state_district_name"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email"),
		},
		{
			Keys:    bson.D{{Key: "phone_digits", Value: 1}},
			Options: options.Index().SetName("idx_phone_digits"),
		},
	})
	return err
}

func (s *Store) findOne(ctx context.Context, op string, filter bson.M) (*models.Identity, error) {
	var u models.Identity
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, storeerr.Map(op, err)
	}
	return &u, nil
}

// GetByID loads an identity by user id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	return s.findOne(ctx, "identity by id", bson.M{"_id": id})
}

// GetByMembershipID loads an identity by its membership id.
func (s *Store) GetByMembershipID(ctx context.Context, membershipID string) (*models.Identity, error) {
	return s.findOne(ctx, "identity by membership id", bson.M{"membership_id": normalize.MembershipID(membershipID)})
}

// GetByEmail looks up an identity by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return s.findOne(ctx, "identity by email", bson.M{"email": normalize.Email(email)})
}

// GetByPhone looks up an identity by the digits of its phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.Identity, error) {
	digits := normalize.PhoneDigits(phone)
	if digits == "" {
		return nil, fmt.Errorf("identity by phone: %w", errs.ErrNotFound)
	}
	return s.findOne(ctx, "identity by phone", bson.M{"phone_digits": digits})
}

// Create inserts a new identity after normalizing fields. A duplicate _id or
// membership id yields errs.ErrConflict.
func (s *Store) Create(ctx context.Context, u models.Identity) (models.Identity, error) {
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)
	u.PhoneDigits = normalize.PhoneDigits(u.Phone)
	if u.MembershipID != nil {
		id := normalize.MembershipID(*u.MembershipID)
		u.MembershipID = &id
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.Identity{}, storeerr.Map("create identity", err)
	}
	return u, nil
}

// ListFilter restricts identity listings. Empty fields do not filter.
type ListFilter struct {
	State    string
	District string
	// ExcludeIDs leaves these user ids out before paging.
	ExcludeIDs []string
	Limit      int64
	Offset     int64
}

// List returns identities matching f ordered by name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Identity, error) {
	q := bson.M{}
	if f.State != "" {
		q["state"] = f.State
	}
	if f.District != "" {
		q["district"] = f.District
	}
	if len(f.ExcludeIDs) > 0 {
		q["_id"] = bson.M{"$nin": f.ExcludeIDs}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, storeerr.Map("list identities", err)
	}
	defer cur.Close(ctx)

	var out []models.Identity
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeerr.Map("list identities", err)
	}
	return out, nil
}

// update applies set to the identity, reporting errs.ErrNotFound when no
// document matched.
func (s *Store) update(ctx context.Context, op, id string, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeerr.Map(op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// SetCardIssuedAt sets or clears (nil) the id card timestamp.
func (s *Store) SetCardIssuedAt(ctx context.Context, id string, at *time.Time) error {
	return s.update(ctx, "set card issued", id, bson.M{"$set": bson.M{
		"id_card_issued_at": at,
		"updated_at":        time.Now().UTC(),
	}})
}

// SetConsent toggles one disclosure flag.
func (s *Store) SetConsent(ctx context.Context, id string, field models.ConsentField, value bool) error {
	if !field.Valid() {
		return errs.NewValidation("field", "unknown consent field")
	}
	return s.update(ctx, "set consent", id, bson.M{"$set": bson.M{
		string(field): value,
		"updated_at":  time.Now().UTC(),
	}})
}

// SetState moves the identity to state and clears its district.
func (s *Store) SetState(ctx context.Context, id, state string) error {
	return s.update(ctx, "set state", id, bson.M{"$set": bson.M{
		"state":      state,
		"district":   "",
		"updated_at": time.Now().UTC(),
	}})
}

// SetDesignation replaces the designation string.
func (s *Store) SetDesignation(ctx context.Context, id, designation string) error {
	return s.update(ctx, "set designation", id, bson.M{"$set": bson.M{
		"designation": designation,
		"updated_at":  time.Now().UTC(),
	}})
}
