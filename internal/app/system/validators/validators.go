// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure("identities", identitiesSchema())
	ensure("user_roles", rolesSchema())
	ensure("applications", applicationsSchema())
	ensure("event_forms", eventFormsSchema())
	ensure("delegates", delegatesSchema())

	// Shape is owned by a single writer each.
	ensure("counters", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func commandMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func stringEnum[T ~string](values []T) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func identitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "state", "allow_email_sharing", "allow_mobile_sharing"},
			"properties": bson.M{
				"full_name":            nonBlank,
				"email":                bson.M{"bsonType": "string"},
				"phone_digits":         bson.M{"bsonType": "string"},
				"state":                bson.M{"bsonType": "string"},
				"district":             bson.M{"bsonType": "string"},
				"membership_id":        nonBlank,
				"id_card_issued_at":    bson.M{"bsonType": bson.A{"date", "null"}},
				"allow_email_sharing":  bson.M{"bsonType": "bool"},
				"allow_mobile_sharing": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func rolesSchema() bson.M {
	roles := append(authz.AllRanked(), authz.RoleEventManager)
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"role", "version"},
			"properties": bson.M{
				"role":       bson.M{"enum": stringEnum(roles)},
				"version":    bson.M{"bsonType": "long", "minimum": 1},
				"expires_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func applicationsSchema() bson.M {
	statuses := []string{models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "state", "status", "applied_at"},
			"properties": bson.M{
				"full_name":  nonBlank,
				"email":      bson.M{"bsonType": "string"},
				"state":      nonBlank,
				"status":     bson.M{"enum": stringEnum(statuses)},
				"applied_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func eventFormsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"is_active"},
			"properties": bson.M{
				"is_active": bson.M{"bsonType": "bool"},
				"fields": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"id", "label", "type"},
						"properties": bson.M{
							"label": nonBlank,
							"type":  bson.M{"enum": stringEnum(models.FieldKinds)},
						},
					},
				},
			},
		},
	}
}

func delegatesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"manager_id", "event_name", "created_at"},
			"properties": bson.M{
				"manager_id":  nonBlank,
				"event_name":  bson.M{"bsonType": "string"},
				"custom_data": bson.M{"bsonType": bson.A{"object", "null"}},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}
