// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/storeerr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAdmin    = "admin"
	CategoryPublic   = "public"
	CategorySecurity = "security"
)

// Target types
const (
	TargetIdentity    = "identity"
	TargetApplication = "application"
	TargetRole        = "role"
	TargetEventForm   = "event_form"
	TargetDelegate    = "delegate"
)

// Admin event types
const (
	EventApplicationApproved = "application_approved"
	EventApplicationRejected = "application_rejected"
	EventCardIssued          = "card_issued"
	EventCardRevoked         = "card_revoked"
	EventConsentChanged      = "consent_changed"
	EventRoleAssigned        = "role_assigned"
	EventStateTransferred    = "state_transferred"
	EventEventManagerGranted = "event_manager_granted"
	EventEventManagerRevoked = "event_manager_revoked"
	EventEventFormSaved      = "event_form_saved"
)

// Public event types
const (
	EventApplicationSubmitted = "application_submitted"
	EventDelegateRegistered   = "delegate_registered"
)

// Security event types
const (
	EventBreakGlassUsed      = "break_glass_used"
	EventAuthorizationDenied = "authorization_denied"
	EventSuperControllerBoot = "super_controller_bootstrapped"
)

// Event is one append-only audit entry. Entries are never updated or deleted.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who / what
	ActorID    string `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	TargetType string `bson:"target_type,omitempty" json:"target_type,omitempty"`
	TargetID   string `bson:"target_id,omitempty" json:"target_id,omitempty"`

	// Context
	IP string `bson:"ip,omitempty" json:"ip,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter selects audit events. Empty fields match everything; the time
// bounds are inclusive. Limit <= 0 means DefaultLimit.
type QueryFilter struct {
	ActorID   string
	TargetID  string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// DefaultLimit caps a query that names no limit.
const DefaultLimit = 100

// Store is the append-only audit_events collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates the indexes behind each QueryFilter field, all
// ending in timestamp so results come back newest first without a sort stage.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	newestFirst := func(prefix ...string) mongo.IndexModel {
		keys := bson.D{}
		for _, k := range prefix {
			keys = append(keys, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: append(keys, bson.E{Key: "timestamp", Value: -1})}
	}
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		newestFirst(),
		newestFirst("actor_id"),
		newestFirst("target_id"),
		newestFirst("category", "event_type"),
	})
	return storeerr.Map("audit indexes", err)
}

// Log appends event, stamping the id and timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return storeerr.Map("log audit event", err)
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	for field, v := range map[string]string{
		"actor_id":   f.ActorID,
		"target_id":  f.TargetID,
		"category":   f.Category,
		"event_type": f.EventType,
	} {
		if v != "" {
			q[field] = v
		}
	}
	if f.StartTime != nil || f.EndTime != nil {
		ts := bson.M{}
		if f.StartTime != nil {
			ts["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			ts["$lte"] = *f.EndTime
		}
		q["timestamp"] = ts
	}
	return q
}

// Query returns events matching filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, storeerr.Map("query audit events", err)
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, storeerr.Map("decode audit events", err)
	}
	return events, nil
}

// Count returns how many events match filter, ignoring Limit and Offset.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	n, err := s.c.CountDocuments(ctx, filter.bson())
	return n, storeerr.Map("count audit events", err)
}
